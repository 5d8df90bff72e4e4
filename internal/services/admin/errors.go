package admin

import (
	"errors"
	"log"
	"net/http"
	"runtime/debug"

	"github.com/notifyops/notify-admin/internal/notify"
	"github.com/notifyops/notify-admin/internal/services/admin/routepath"
	"github.com/notifyops/notify-admin/internal/services/admin/templates"
)

var errorDetails = map[int]string{
	http.StatusBadRequest:            "Something went wrong, please try again",
	http.StatusUnauthorized:          "Sign in",
	http.StatusForbidden:             "You do not have permission to view this page",
	http.StatusNotFound:              "Page not found",
	http.StatusMethodNotAllowed:      "Something went wrong, please try again",
	http.StatusGone:                  "This link has expired",
	http.StatusRequestEntityTooLarge: "The file you uploaded is too big",
	http.StatusInternalServerError:   "Something went wrong, please try again",
}

// renderError maps a status onto its dedicated page. 401 redirects to
// sign-in carrying the interrupted destination.
func (s *Server) renderError(w http.ResponseWriter, r *http.Request, status int) {
	if status == http.StatusUnauthorized {
		http.Redirect(w, r, routepath.WithNext(routepath.SignIn, r.URL.RequestURI()), http.StatusFound)
		return
	}
	detail, ok := errorDetails[status]
	if !ok {
		status = http.StatusInternalServerError
		detail = errorDetails[status]
	}
	pageCtx := s.pageContext(r)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := templates.ErrorPage(pageCtx, status, detail).Render(r.Context(), w); err != nil {
		log.Printf("render error page: %v", err)
	}
}

// renderAPIError maps a Notifications API failure onto the taxonomy. 5xx
// and transport failures log a stack trace; in debug the panic is re-raised
// to aid local development.
func (s *Server) renderAPIError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, notify.ErrServiceInactive) {
		s.renderError(w, r, http.StatusForbidden)
		return
	}
	var apiErr *notify.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusUnauthorized:
			s.renderError(w, r, http.StatusUnauthorized)
			return
		case http.StatusForbidden:
			s.renderError(w, r, http.StatusForbidden)
			return
		case http.StatusNotFound:
			s.renderError(w, r, http.StatusNotFound)
			return
		case http.StatusGone:
			s.renderError(w, r, http.StatusGone)
			return
		}
	}
	log.Printf("ERROR: %s %s: %v\n%s", r.Method, r.URL.Path, err, debug.Stack())
	if s.debug {
		panic(err)
	}
	s.renderError(w, r, http.StatusInternalServerError)
}

// methodNotAllowedWriter swallows the mux's plain-text 405 so the dedicated
// page can be rendered instead.
type methodNotAllowedWriter struct {
	http.ResponseWriter
	intercepted bool
}

func (w *methodNotAllowedWriter) WriteHeader(status int) {
	if status == http.StatusMethodNotAllowed {
		w.intercepted = true
		return
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *methodNotAllowedWriter) Write(p []byte) (int, error) {
	if w.intercepted {
		return len(p), nil
	}
	return w.ResponseWriter.Write(p)
}

// renderMethodNotAllowed replaces the mux's built-in 405 response with the
// shared error page.
func (s *Server) renderMethodNotAllowed(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mw := &methodNotAllowedWriter{ResponseWriter: w}
		next.ServeHTTP(mw, r)
		if mw.intercepted {
			w.Header().Del("Content-Type")
			s.renderError(w, r, http.StatusMethodNotAllowed)
		}
	})
}

// isClientError reports whether the API rejected the request for a reason
// the user can fix, as opposed to an outage.
func isClientError(err error) bool {
	var apiErr *notify.APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode < 500
}
