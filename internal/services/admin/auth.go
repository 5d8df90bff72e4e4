package admin

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/a-h/templ"

	"github.com/notifyops/notify-admin/internal/identity"
	"github.com/notifyops/notify-admin/internal/notify"
	"github.com/notifyops/notify-admin/internal/services/admin/routepath"
	"github.com/notifyops/notify-admin/internal/services/admin/templates"
	"github.com/notifyops/notify-admin/internal/session"
	"github.com/notifyops/notify-admin/internal/token"
)

// smsCodeWindow bounds how long an email-backed login keeps SMS as an
// acceptable second factor.
const smsCodeWindow = 30 * 24 * time.Hour

const genericSignInError = "The email address or password you entered is incorrect"

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	// ServeMux treats "/" as a catch-all; anything unrouted lands here.
	if r.URL.Path != routepath.Root {
		s.renderError(w, r, http.StatusNotFound)
		return
	}
	http.Redirect(w, r, routepath.Welcome, http.StatusFound)
}

func (s *Server) handleWelcome(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, templates.WelcomePage(s.pageContext(r)))
}

func (s *Server) handleSignInPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, templates.SignInPage(s.pageContext(r), templates.SignInForm{Next: r.URL.Query().Get("next")}))
}

// handleSignIn verifies credentials and starts the 2FA leg. Every failure
// mode renders the same generic error so accounts cannot be enumerated.
func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.renderError(w, r, http.StatusBadRequest)
		return
	}
	email := strings.ToLower(strings.TrimSpace(r.PostFormValue("email_address")))
	password := r.PostFormValue("password")
	next := r.URL.Query().Get("next")

	rerender := func() {
		pageCtx := s.pageContext(r)
		s.render(w, r, templates.SignInPage(pageCtx, templates.SignInForm{
			EmailAddress: email,
			Error:        pageCtx.T(genericSignInError),
			Next:         next,
		}))
	}

	if email == "" || password == "" {
		rerender()
		return
	}

	user, err := s.api.GetUserByEmail(r.Context(), email)
	if err != nil {
		var apiErr *notify.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode < 500 {
			rerender()
			return
		}
		s.renderAPIError(w, r, err)
		return
	}
	if user.Blocked || user.IsLocked() {
		rerender()
		return
	}
	if err := s.api.VerifyPassword(r.Context(), user.ID, password); err != nil {
		var apiErr *notify.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode < 500 {
			rerender()
			return
		}
		s.renderAPIError(w, r, err)
		return
	}

	if user.PasswordExpired {
		state := stateFromRequest(r)
		state.session.ResetEmailAddress = user.EmailAddress
		s.persistSession(r)
		http.Redirect(w, r, routepath.ForcedReset, http.StatusFound)
		return
	}

	state := stateFromRequest(r)
	state.session.UserDetails = &session.PendingUser{ID: user.ID, EmailAddress: user.EmailAddress}

	// SMS stays acceptable only while a recent email-backed login vouches
	// for the account; otherwise the code goes over the stronger channel.
	channel := "email"
	if user.AuthType == identity.AuthTypeSMS {
		if !user.EmailLastVerified.IsZero() && time.Since(user.EmailLastVerified) <= smsCodeWindow {
			channel = "sms"
		} else {
			state.session.RequiresEmailLogin = true
		}
	}

	destination := user.MobileNumber
	if channel == "email" {
		destination = user.EmailAddress
	}
	if err := s.api.SendVerifyCode(r.Context(), user.ID, channel, destination); err != nil {
		s.renderAPIError(w, r, err)
		return
	}
	s.persistSession(r)

	target := routepath.TwoFactorEmailSent
	if channel == "sms" {
		target = routepath.TwoFactorSMSSent
	}
	http.Redirect(w, r, routepath.WithNext(target, next), http.StatusFound)
}

func (s *Server) handleTwoFactorPage(channel string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state := stateFromRequest(r)
		if state.session.UserDetails == nil {
			http.Redirect(w, r, routepath.SignIn, http.StatusFound)
			return
		}
		s.render(w, r, templates.TwoFactorPage(s.pageContext(r), templates.TwoFactorForm{
			Channel:            channel,
			RequiresEmailLogin: state.session.RequiresEmailLogin,
		}))
	}
}

// handleTwoFactor checks the submitted code and binds the session. The API
// mints a fresh current_session_id on success; the cookie session adopts it.
func (s *Server) handleTwoFactor(channel string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state := stateFromRequest(r)
		pending := state.session.UserDetails
		if pending == nil {
			http.Redirect(w, r, routepath.SignIn, http.StatusFound)
			return
		}
		if err := r.ParseForm(); err != nil {
			s.renderError(w, r, http.StatusBadRequest)
			return
		}
		code := strings.TrimSpace(r.PostFormValue("code"))

		user, err := s.api.CheckVerifyCode(r.Context(), pending.ID, code, channel)
		if err != nil {
			var apiErr *notify.APIError
			if errors.As(err, &apiErr) && apiErr.StatusCode < 500 {
				pageCtx := s.pageContext(r)
				s.render(w, r, templates.TwoFactorPage(pageCtx, templates.TwoFactorForm{
					Channel:            channel,
					RequiresEmailLogin: state.session.RequiresEmailLogin,
					Error:              pageCtx.T("The security code you entered is incorrect"),
				}))
				return
			}
			s.renderAPIError(w, r, err)
			return
		}

		if !user.IsActive() {
			if _, err := s.api.ActivateUser(r.Context(), user.ID); err != nil {
				s.renderAPIError(w, r, err)
				return
			}
		}

		s.sessions.Rotate(r.Context(), state.session)
		state.session.UserID = user.ID
		state.session.CurrentSessionID = user.CurrentSessionID
		state.session.ClearTransient()
		if err := s.sessions.Save(r.Context(), w, state.session); err != nil {
			log.Printf("WARN: save session: %v", err)
		}
		if s.analytics != nil {
			s.analytics.Track(r.Context(), "signed_in", user.ID, map[string]any{"channel": channel})
		}

		http.Redirect(w, r, s.postSignInDestination(r, user), http.StatusFound)
	}
}

// postSignInDestination honours ?next= and otherwise lands single-service
// users straight on their dashboard.
func (s *Server) postSignInDestination(r *http.Request, user *identity.User) string {
	if next := r.URL.Query().Get("next"); strings.HasPrefix(next, "/") && !strings.HasPrefix(next, "//") {
		return next
	}
	if len(user.Services) == 1 {
		return routepath.Service(user.Services[0])
	}
	if len(user.Services) == 0 {
		return routepath.AddService
	}
	return routepath.Root
}

func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	state := stateFromRequest(r)
	if err := s.sessions.Destroy(r.Context(), w, state.session); err != nil {
		log.Printf("WARN: destroy session: %v", err)
	}
	http.Redirect(w, r, routepath.SignIn, http.StatusFound)
}

func (s *Server) handleForcedReset(w http.ResponseWriter, r *http.Request) {
	state := stateFromRequest(r)
	email := state.session.ResetEmailAddress
	if email == "" {
		http.Redirect(w, r, routepath.SignIn, http.StatusFound)
		return
	}
	// The session slot is the only place the address lives; sending is
	// gated on the API's own password_expired flag.
	user, err := s.api.GetUserByEmail(r.Context(), email)
	if err == nil && user.PasswordExpired {
		if err := s.api.SendPasswordResetEmail(r.Context(), email); err != nil {
			log.Printf("WARN: forced reset email for %s: %v", email, err)
		}
	}
	s.render(w, r, templates.NoticePage(s.pageContext(r),
		"You need a new password",
		"We sent you an email with a link to choose a new password"))
}

func (s *Server) handleForgotPasswordPage(w http.ResponseWriter, r *http.Request) {
	pageCtx := s.pageContext(r)
	s.render(w, r, templates.Page(pageCtx, pageCtx.T("Forgot your password?"), templates.Raw(fmt.Sprintf(
		`<h1>%s</h1><p>%s</p><form method="post">%s`+
			`<label for="email_address">%s</label>`+
			`<input id="email_address" name="email_address" type="email" autocomplete="email">`+
			`<button type="submit">%s</button></form>`,
		templ.EscapeString(pageCtx.T("Forgot your password?")),
		templ.EscapeString(pageCtx.T("Enter your email address and we will send you a link to reset it")),
		pageCtx.CSRFField(),
		templ.EscapeString(pageCtx.T("Email address")),
		templ.EscapeString(pageCtx.T("Continue"))))))
}

// handleForgotPassword always renders the same notice so the form cannot
// probe which accounts exist.
func (s *Server) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.renderError(w, r, http.StatusBadRequest)
		return
	}
	email := strings.ToLower(strings.TrimSpace(r.PostFormValue("email_address")))
	if email != "" {
		if err := s.api.SendPasswordResetEmail(r.Context(), email); err != nil {
			log.Printf("WARN: password reset email: %v", err)
		}
	}
	s.render(w, r, templates.NoticePage(s.pageContext(r),
		"Check your email",
		"If that account exists we sent it a link to reset the password"))
}

func (s *Server) handleNewPasswordPage(w http.ResponseWriter, r *http.Request) {
	if _, err := s.parseResetToken(r); err != nil {
		s.renderTokenError(w, r, err)
		return
	}
	pageCtx := s.pageContext(r)
	s.render(w, r, templates.Page(pageCtx, pageCtx.T("Choose a new password"), templates.Raw(
		`<h1>Choose a new password</h1><form method="post">`+pageCtx.CSRFField()+
			`<label for="password">New password</label>`+
			`<input id="password" name="password" type="password" autocomplete="new-password">`+
			`<button type="submit">Save</button></form>`)))
}

func (s *Server) handleNewPassword(w http.ResponseWriter, r *http.Request) {
	claims, err := s.parseResetToken(r)
	if err != nil {
		s.renderTokenError(w, r, err)
		return
	}
	if err := r.ParseForm(); err != nil {
		s.renderError(w, r, http.StatusBadRequest)
		return
	}
	password := r.PostFormValue("password")
	if len(password) < 8 {
		s.renderError(w, r, http.StatusBadRequest)
		return
	}
	user, err := s.api.GetUserByEmail(r.Context(), claims["email_address"])
	if err != nil {
		s.renderAPIError(w, r, err)
		return
	}
	if _, err := s.api.UpdateUser(r.Context(), user.ID, map[string]any{"password": password}); err != nil {
		s.renderAPIError(w, r, err)
		return
	}
	state := stateFromRequest(r)
	state.session.ResetEmailAddress = ""
	s.flash(r, "info", "Your password was reset, sign in to continue")
	http.Redirect(w, r, routepath.SignIn, http.StatusFound)
}

func (s *Server) parseResetToken(r *http.Request) (map[string]string, error) {
	return s.tokens.Parse(token.PurposePasswordReset, r.PathValue("token"), s.tokenMaxAge)
}

// renderTokenError distinguishes a stale link from a forged one.
func (s *Server) renderTokenError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, token.ErrExpired) {
		s.renderError(w, r, http.StatusGone)
		return
	}
	pageCtx := s.pageContext(r)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusBadRequest)
	if err := templates.ErrorPage(pageCtx, http.StatusBadRequest, "This link is wrong").Render(r.Context(), w); err != nil {
		log.Printf("render %s: %v", r.URL.Path, err)
	}
}

// render writes a component, logging render failures mid-body.
func (s *Server) render(w http.ResponseWriter, r *http.Request, component templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := component.Render(r.Context(), w); err != nil {
		log.Printf("render %s: %v", r.URL.Path, err)
	}
}
