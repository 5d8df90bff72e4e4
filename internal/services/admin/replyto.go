package admin

import (
	"net/http"

	"github.com/notifyops/notify-admin/internal/notify"
	"github.com/notifyops/notify-admin/internal/services/admin/routepath"
	"github.com/notifyops/notify-admin/internal/services/admin/templates"
)

func (s *Server) handleReplyToPage(w http.ResponseWriter, r *http.Request) {
	state := stateFromRequest(r)
	addresses, err := s.api.GetReplyToAddresses(r.Context(), state.service.ID)
	if err != nil {
		s.renderAPIError(w, r, err)
		return
	}
	s.render(w, r, templates.ReplyToPage(s.pageContext(r), templates.ReplyToView{
		ServiceID: state.service.ID,
		Addresses: addresses,
	}))
}

// handleArchiveReplyTo retires a reply-to entry. Archiving the default
// promotes the first surviving non-default address so the service is never
// left without one.
func (s *Server) handleArchiveReplyTo(w http.ResponseWriter, r *http.Request) {
	state := stateFromRequest(r)
	replyToID := r.PathValue("replyToID")

	addresses, err := s.api.GetReplyToAddresses(r.Context(), state.service.ID)
	if err != nil {
		s.renderAPIError(w, r, err)
		return
	}
	var target *notify.ReplyToAddress
	for i := range addresses {
		if addresses[i].ID == replyToID {
			target = &addresses[i]
			break
		}
	}
	if target == nil {
		s.renderError(w, r, http.StatusNotFound)
		return
	}

	if err := s.api.ArchiveReplyToAddress(r.Context(), state.service.ID, replyToID); err != nil {
		s.renderAPIError(w, r, err)
		return
	}
	if target.IsDefault {
		if next := notify.NextDefaultReplyTo(addresses, replyToID); next != nil {
			if err := s.api.UpdateReplyToAddress(r.Context(), state.service.ID, next.ID, map[string]any{"is_default": true}); err != nil {
				s.renderAPIError(w, r, err)
				return
			}
		}
	}

	s.flash(r, "info", "Reply-to address removed")
	http.Redirect(w, r, routepath.ServiceReplyTo(state.service.ID), http.StatusFound)
}
