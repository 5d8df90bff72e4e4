package admin

import (
	"bytes"
	"io"
	"log"
	"net/http"

	"github.com/notifyops/notify-admin/internal/integrations"
	"github.com/notifyops/notify-admin/internal/services/admin/routepath"
	"github.com/notifyops/notify-admin/internal/services/admin/templates"
)

// maxLogoBytes caps uploaded logo size.
const maxLogoBytes = 2 << 20

var allowedLogoTypes = map[string]bool{
	"image/png":     true,
	"image/svg+xml": true,
}

func logoKey(serviceID string) string {
	return "logos/" + serviceID
}

func (s *Server) handleLogoPage(w http.ResponseWriter, r *http.Request) {
	s.renderLogo(w, r, "")
}

func (s *Server) renderLogo(w http.ResponseWriter, r *http.Request, errorMessage string) {
	if s.objectStore == nil {
		s.renderError(w, r, http.StatusNotFound)
		return
	}
	state := stateFromRequest(r)
	s.render(w, r, templates.LogoPage(s.pageContext(r), templates.LogoView{
		ServiceID:  state.service.ID,
		CurrentURL: s.objectStore.URL(logoKey(state.service.ID)),
		Error:      errorMessage,
	}))
}

// handleUploadLogo scans the upload before it reaches the object store. The
// scanner is fail-open, so an outage degrades to an unscanned upload rather
// than a broken page.
func (s *Server) handleUploadLogo(w http.ResponseWriter, r *http.Request) {
	if s.objectStore == nil {
		s.renderError(w, r, http.StatusNotFound)
		return
	}
	state := stateFromRequest(r)

	file, header, err := r.FormFile("logo")
	if err != nil {
		s.renderLogo(w, r, "Select a file to upload")
		return
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, maxLogoBytes+1))
	if err != nil {
		s.renderError(w, r, http.StatusBadRequest)
		return
	}
	if len(content) > maxLogoBytes {
		s.renderError(w, r, http.StatusRequestEntityTooLarge)
		return
	}

	contentType := header.Header.Get("Content-Type")
	if !allowedLogoTypes[contentType] {
		s.renderLogo(w, r, "Logos must be PNG or SVG files")
		return
	}

	if s.fileScanner.Scan(r.Context(), header.Filename, bytes.NewReader(content)) != integrations.VerdictSafe {
		s.renderLogo(w, r, "The file you uploaded failed the security scan")
		return
	}

	if !s.objectStore.Put(r.Context(), logoKey(state.service.ID), contentType, content) {
		log.Printf("ERROR: store logo for service %s", state.service.ID)
		s.renderError(w, r, http.StatusInternalServerError)
		return
	}

	s.flash(r, "info", "Your logo has been uploaded")
	http.Redirect(w, r, routepath.ServiceLogo(state.service.ID), http.StatusFound)
}
