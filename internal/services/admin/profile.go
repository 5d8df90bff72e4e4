package admin

import (
	"net/http"
	"net/mail"
	"strings"

	"github.com/notifyops/notify-admin/internal/services/admin/routepath"
	"github.com/notifyops/notify-admin/internal/services/admin/templates"
	"github.com/notifyops/notify-admin/internal/token"
)

func (s *Server) handleUserProfile(w http.ResponseWriter, r *http.Request) {
	s.renderProfile(w, r, nil)
}

func (s *Server) renderProfile(w http.ResponseWriter, r *http.Request, fieldErrors map[string][]string) {
	state := stateFromRequest(r)
	s.render(w, r, templates.ProfilePage(s.pageContext(r), templates.ProfileView{
		Name:          state.user.Name,
		EmailAddress:  state.user.EmailAddress,
		MobileNumber:  state.user.MobileNumber,
		PendingEmail:  state.session.NewEmailAddress,
		PendingMobile: state.session.NewMobileNumber != "" && state.session.MobileChangePasswordOK,
		FieldErrors:   fieldErrors,
	}))
}

// handleChangeEmail starts an email change. The new address only takes
// effect once its owner clicks the signed confirmation link, so typos and
// hijack attempts never touch the account.
func (s *Server) handleChangeEmail(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.renderError(w, r, http.StatusBadRequest)
		return
	}
	state := stateFromRequest(r)
	newEmail := strings.ToLower(strings.TrimSpace(r.PostFormValue("email_address")))
	if _, err := mail.ParseAddress(newEmail); err != nil {
		s.renderProfile(w, r, map[string][]string{"email_address": {"Enter a valid email address"}})
		return
	}
	if newEmail == strings.ToLower(state.user.EmailAddress) {
		s.renderProfile(w, r, map[string][]string{"email_address": {"This is already your email address"}})
		return
	}

	signed, err := s.tokens.Sign(token.PurposeEmailChange, map[string]string{
		"user_id":       state.user.ID,
		"email_address": newEmail,
	})
	if err != nil {
		s.renderAPIError(w, r, err)
		return
	}
	if err := s.api.SendVerifyCode(r.Context(), state.user.ID, "email", routepath.ConfirmChangeEmail+"/"+signed); err != nil {
		s.renderAPIError(w, r, err)
		return
	}

	state.session.NewEmailAddress = newEmail
	s.persistSession(r)
	http.Redirect(w, r, routepath.UserProfile, http.StatusFound)
}

func (s *Server) handleConfirmChangeEmail(w http.ResponseWriter, r *http.Request) {
	claims, err := s.tokens.Parse(token.PurposeEmailChange, r.PathValue("token"), s.tokenMaxAge)
	if err != nil {
		s.renderTokenError(w, r, err)
		return
	}
	userID := claims["user_id"]
	newEmail := claims["email_address"]
	if userID == "" || newEmail == "" {
		s.renderError(w, r, http.StatusBadRequest)
		return
	}

	if _, err := s.api.UpdateUser(r.Context(), userID, map[string]any{"email_address": newEmail}); err != nil {
		s.renderAPIError(w, r, err)
		return
	}

	state := stateFromRequest(r)
	state.session.NewEmailAddress = ""
	s.flash(r, "info", "Your email address has been changed")
	s.persistSession(r)
	http.Redirect(w, r, routepath.UserProfile, http.StatusFound)
}

// handleChangeMobile requires the account password before sending a code
// to the new number. Both facts ride in the session until confirmation.
func (s *Server) handleChangeMobile(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.renderError(w, r, http.StatusBadRequest)
		return
	}
	state := stateFromRequest(r)
	newMobile := strings.TrimSpace(r.PostFormValue("mobile_number"))
	password := r.PostFormValue("password")
	if newMobile == "" {
		s.renderProfile(w, r, map[string][]string{"mobile_number": {"Enter a mobile number"}})
		return
	}
	if err := s.api.VerifyPassword(r.Context(), state.user.ID, password); err != nil {
		if isClientError(err) {
			s.renderProfile(w, r, map[string][]string{"password": {"The password you entered is incorrect"}})
			return
		}
		s.renderAPIError(w, r, err)
		return
	}

	if err := s.api.SendVerifyCode(r.Context(), state.user.ID, "sms", newMobile); err != nil {
		s.renderAPIError(w, r, err)
		return
	}

	state.session.NewMobileNumber = newMobile
	state.session.MobileChangePasswordOK = true
	s.persistSession(r)
	http.Redirect(w, r, routepath.UserProfile, http.StatusFound)
}

func (s *Server) handleConfirmMobile(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.renderError(w, r, http.StatusBadRequest)
		return
	}
	state := stateFromRequest(r)
	newMobile := state.session.NewMobileNumber
	if newMobile == "" || !state.session.MobileChangePasswordOK {
		http.Redirect(w, r, routepath.UserProfile, http.StatusFound)
		return
	}

	code := strings.TrimSpace(r.PostFormValue("code"))
	if _, err := s.api.CheckVerifyCode(r.Context(), state.user.ID, code, "sms"); err != nil {
		if isClientError(err) {
			s.renderProfile(w, r, map[string][]string{"code": {"The security code you entered is incorrect"}})
			return
		}
		s.renderAPIError(w, r, err)
		return
	}

	if _, err := s.api.UpdateUser(r.Context(), state.user.ID, map[string]any{"mobile_number": newMobile}); err != nil {
		s.renderAPIError(w, r, err)
		return
	}

	state.session.NewMobileNumber = ""
	state.session.MobileChangePasswordOK = false
	s.flash(r, "info", "Your mobile number has been changed")
	s.persistSession(r)
	http.Redirect(w, r, routepath.UserProfile, http.StatusFound)
}
