package admin

import (
	"crypto/subtle"
	"log"
	"net/http"
)

// csrfFormField is the hidden input every form carries.
const csrfFormField = "csrf_token"

// checkCSRF rejects any POST whose form token does not match the one bound
// to the session. An anonymous caller is sent back to sign-in; a signed-in
// one gets the generic error page, so a token that expired mid-form costs
// at most a resubmit.
func (s *Server) checkCSRF(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			next.ServeHTTP(w, r)
			return
		}
		state := stateFromRequest(r)
		// PostFormValue parses multipart bodies too.
		submitted := r.PostFormValue(csrfFormField)
		if state.session.CSRFToken == "" || submitted == "" ||
			subtle.ConstantTimeCompare([]byte(submitted), []byte(state.session.CSRFToken)) != 1 {
			log.Printf("WARN: token mismatch on %s from %s", r.URL.Path, state.callerIP)
			if !state.session.SignedIn() {
				s.renderError(w, r, http.StatusUnauthorized)
				return
			}
			s.renderError(w, r, http.StatusBadRequest)
			return
		}
		next.ServeHTTP(w, r)
	})
}
