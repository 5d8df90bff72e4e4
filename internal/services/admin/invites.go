package admin

import (
	"errors"
	"net/http"
	"strings"

	"github.com/notifyops/notify-admin/internal/identity"
	"github.com/notifyops/notify-admin/internal/notify"
	"github.com/notifyops/notify-admin/internal/services/admin/routepath"
	"github.com/notifyops/notify-admin/internal/services/admin/templates"
	"github.com/notifyops/notify-admin/internal/session"
	"github.com/notifyops/notify-admin/internal/token"
)

// handleInvitation consumes a service invite link. The invite's email is
// authoritative: a signed-in user with a different address gets a 403, and
// a fresh visitor is sent to register with the field locked.
func (s *Server) handleInvitation(w http.ResponseWriter, r *http.Request) {
	claims, err := s.tokens.Parse(token.PurposeServiceInvite, r.PathValue("token"), s.tokenMaxAge)
	if err != nil {
		s.renderTokenError(w, r, err)
		return
	}

	invite, err := s.api.GetInvitedUser(r.Context(), claims["invited_user_id"])
	if err != nil {
		s.renderAPIError(w, r, err)
		return
	}
	if !invite.Status.Consumable() {
		pageCtx := s.pageContext(r)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusGone)
		_ = templates.ErrorPage(pageCtx, http.StatusGone, "This invitation is no longer valid").Render(r.Context(), w)
		return
	}

	state := stateFromRequest(r)
	if state.session.SignedIn() {
		user, err := s.api.GetUser(r.Context(), state.session.UserID)
		if err != nil {
			s.renderAPIError(w, r, err)
			return
		}
		if !strings.EqualFold(user.EmailAddress, invite.EmailAddress) {
			pageCtx := s.pageContext(r)
			s.flash(r, "error", pageCtx.T("This invite is for another email address"))
			s.renderError(w, r, http.StatusForbidden)
			return
		}
		if err := s.api.AcceptInvite(r.Context(), invite.ID, user.ID); err != nil {
			s.renderAPIError(w, r, err)
			return
		}
		http.Redirect(w, r, routepath.Service(invite.ServiceID), http.StatusFound)
		return
	}

	// A returning user may exist without being signed in; send them to
	// sign-in, everyone else to registration with the address locked.
	state.session.InvitedUserID = invite.ID
	s.persistSession(r)
	if _, err := s.api.GetUserByEmail(r.Context(), invite.EmailAddress); err == nil {
		http.Redirect(w, r, routepath.WithNext(routepath.SignIn, routepath.Service(invite.ServiceID)), http.StatusFound)
		return
	}
	http.Redirect(w, r, routepath.RegisterFromInvite, http.StatusFound)
}

func (s *Server) handleOrgInvitation(w http.ResponseWriter, r *http.Request) {
	claims, err := s.tokens.Parse(token.PurposeOrgInvite, r.PathValue("token"), s.tokenMaxAge)
	if err != nil {
		s.renderTokenError(w, r, err)
		return
	}
	invite, err := s.api.GetInvitedOrgUser(r.Context(), claims["invited_org_user_id"])
	if err != nil {
		s.renderAPIError(w, r, err)
		return
	}

	state := stateFromRequest(r)
	if !state.session.SignedIn() {
		state.session.InvitedOrgUserID = invite.ID
		s.persistSession(r)
		http.Redirect(w, r, routepath.WithNext(routepath.SignIn, routepath.OrgInvitation(r.PathValue("token"))), http.StatusFound)
		return
	}

	user, err := s.api.GetUser(r.Context(), state.session.UserID)
	if err != nil {
		s.renderAPIError(w, r, err)
		return
	}
	if !strings.EqualFold(user.EmailAddress, invite.EmailAddress) {
		pageCtx := s.pageContext(r)
		s.flash(r, "error", pageCtx.T("This invite is for another email address"))
		s.renderError(w, r, http.StatusForbidden)
		return
	}
	if err := s.api.AcceptOrgInvite(r.Context(), invite.ID, user.ID); err != nil {
		s.renderAPIError(w, r, err)
		return
	}
	state.session.InvitedOrgUserID = ""
	s.persistSession(r)
	http.Redirect(w, r, routepath.Root, http.StatusFound)
}

func (s *Server) invitedUserFromSession(r *http.Request) (*identity.InvitedUser, error) {
	state := stateFromRequest(r)
	if state.session.InvitedUserID == "" {
		return nil, nil
	}
	return s.api.GetInvitedUser(r.Context(), state.session.InvitedUserID)
}

func (s *Server) handleRegisterFromInvitePage(w http.ResponseWriter, r *http.Request) {
	invite, err := s.invitedUserFromSession(r)
	if err != nil {
		s.renderAPIError(w, r, err)
		return
	}
	if invite == nil {
		http.Redirect(w, r, routepath.Register, http.StatusFound)
		return
	}
	s.render(w, r, templates.RegisterPage(s.pageContext(r), templates.RegisterForm{
		EmailAddress: invite.EmailAddress,
		EmailLocked:  true,
	}))
}

// handleRegisterFromInvite registers the invitee and accepts the invite in
// one pass; permissions and folder permissions come from the invite, never
// the form.
func (s *Server) handleRegisterFromInvite(w http.ResponseWriter, r *http.Request) {
	invite, err := s.invitedUserFromSession(r)
	if err != nil {
		s.renderAPIError(w, r, err)
		return
	}
	if invite == nil {
		http.Redirect(w, r, routepath.Register, http.StatusFound)
		return
	}
	if !invite.Status.Consumable() {
		s.renderError(w, r, http.StatusGone)
		return
	}
	if err := r.ParseForm(); err != nil {
		s.renderError(w, r, http.StatusBadRequest)
		return
	}

	name := strings.TrimSpace(r.PostFormValue("name"))
	mobile := strings.TrimSpace(r.PostFormValue("mobile_number"))
	password := r.PostFormValue("password")

	form := templates.RegisterForm{
		Name:         name,
		EmailAddress: invite.EmailAddress,
		Mobile:       mobile,
		EmailLocked:  true,
	}
	fieldErrors := map[string][]string{}
	if name == "" {
		fieldErrors["name"] = append(fieldErrors["name"], "cannot be empty")
	}
	if len(password) < 8 {
		fieldErrors["password"] = append(fieldErrors["password"], "must be at least 8 characters")
	}
	authType := invite.AcceptanceAuthType(mobile != "")
	if authType == identity.AuthTypeSMS && mobile == "" {
		fieldErrors["mobile_number"] = append(fieldErrors["mobile_number"], "cannot be empty")
	}
	if len(fieldErrors) > 0 {
		form.FieldErrors = fieldErrors
		s.render(w, r, templates.RegisterPage(s.pageContext(r), form))
		return
	}

	user, err := s.api.RegisterFromInvite(r.Context(), notify.RegisterFromInviteInput{
		Name:         name,
		MobileNumber: mobile,
		Password:     password,
		AuthType:     string(authType),
		InviteID:     invite.ID,
	})
	if err != nil {
		var apiErr *notify.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusBadRequest {
			form.FieldErrors = apiErr.FieldErrors
			s.render(w, r, templates.RegisterPage(s.pageContext(r), form))
			return
		}
		s.renderAPIError(w, r, err)
		return
	}

	if err := s.api.AcceptInvite(r.Context(), invite.ID, user.ID); err != nil {
		s.renderAPIError(w, r, err)
		return
	}

	state := stateFromRequest(r)
	state.session.InvitedUserID = ""
	state.session.UserDetails = &session.PendingUser{ID: user.ID, EmailAddress: user.EmailAddress}
	s.flash(r, "info", "Your account was created, sign in to continue")
	s.persistSession(r)
	http.Redirect(w, r, routepath.WithNext(routepath.SignIn, routepath.Service(invite.ServiceID)), http.StatusFound)
}
