package admin

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/notifyops/notify-admin/internal/services/admin/routepath"
	"github.com/notifyops/notify-admin/internal/services/admin/templates"
)

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]string{"status": "ok"}); err != nil {
		log.Printf("WARN status encode: %v", err)
	}
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	state := stateFromRequest(r)

	// Remember the last visited service so post-sign-in and invite flows
	// can send the user back here.
	state.session.ServiceID = state.service.ID
	s.persistSession(r)

	serviceTemplates, err := s.api.GetServiceTemplates(r.Context(), state.service.ID)
	if err != nil {
		s.renderAPIError(w, r, err)
		return
	}

	adminView := state.user.ViewsAsPlatformAdmin(state.session.DisablePlatformAdminView) &&
		!state.user.BelongsToService(state.service.ID)

	s.render(w, r, templates.DashboardPage(s.pageContext(r), templates.DashboardView{
		Service:       state.service,
		TemplateCount: len(serviceTemplates),
		AdminView:     adminView,
	}))
}

// handleToggleAdminView flips the per-session live-view toggle that lets a
// platform admin browse as an ordinary user. The underlying flag on the
// user record is untouched.
func (s *Server) handleToggleAdminView(w http.ResponseWriter, r *http.Request) {
	state := stateFromRequest(r)
	if !state.user.PlatformAdmin {
		s.renderError(w, r, http.StatusForbidden)
		return
	}
	state.session.DisablePlatformAdminView = !state.session.DisablePlatformAdminView
	s.persistSession(r)

	next := r.Referer()
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		next = routepath.Root
	}
	http.Redirect(w, r, next, http.StatusFound)
}
