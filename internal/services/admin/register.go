package admin

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/a-h/templ"

	"github.com/notifyops/notify-admin/internal/identity"
	"github.com/notifyops/notify-admin/internal/integrations"
	"github.com/notifyops/notify-admin/internal/notify"
	"github.com/notifyops/notify-admin/internal/services/admin/routepath"
	"github.com/notifyops/notify-admin/internal/services/admin/templates"
	"github.com/notifyops/notify-admin/internal/session"
	"github.com/notifyops/notify-admin/internal/token"
)

func (s *Server) handleRegisterPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, templates.RegisterPage(s.pageContext(r), templates.RegisterForm{}))
}

// handleRegister creates the account and mails a verification link. The
// account stays pending until the link is followed.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.renderError(w, r, http.StatusBadRequest)
		return
	}
	form := templates.RegisterForm{
		Name:         strings.TrimSpace(r.PostFormValue("name")),
		EmailAddress: strings.ToLower(strings.TrimSpace(r.PostFormValue("email_address"))),
		Mobile:       strings.TrimSpace(r.PostFormValue("mobile_number")),
	}
	password := r.PostFormValue("password")

	fieldErrors := map[string][]string{}
	if form.Name == "" {
		fieldErrors["name"] = append(fieldErrors["name"], "cannot be empty")
	}
	if form.EmailAddress == "" {
		fieldErrors["email_address"] = append(fieldErrors["email_address"], "cannot be empty")
	}
	if len(password) < 8 {
		fieldErrors["password"] = append(fieldErrors["password"], "must be at least 8 characters")
	}
	if len(fieldErrors) > 0 {
		form.FieldErrors = fieldErrors
		s.render(w, r, templates.RegisterPage(s.pageContext(r), form))
		return
	}

	authType := identity.AuthTypeEmail
	if form.Mobile != "" {
		authType = identity.AuthTypeSMS
	}

	user, err := s.api.RegisterUser(r.Context(), notify.RegisterUserInput{
		Name:         form.Name,
		EmailAddress: form.EmailAddress,
		MobileNumber: form.Mobile,
		Password:     password,
		AuthType:     string(authType),
	})
	if err != nil {
		var apiErr *notify.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusBadRequest {
			// An address that already has an account gets the reminder
			// email instead of an inline reveal.
			if existing, lookupErr := s.api.GetUserByEmail(r.Context(), form.EmailAddress); lookupErr == nil {
				if sendErr := s.api.SendAlreadyRegisteredEmail(r.Context(), existing.ID, form.EmailAddress); sendErr != nil {
					log.Printf("WARN: already-registered email: %v", sendErr)
				}
				http.Redirect(w, r, routepath.RegistrationSent, http.StatusFound)
				return
			}
			form.FieldErrors = apiErr.FieldErrors
			s.render(w, r, templates.RegisterPage(s.pageContext(r), form))
			return
		}
		s.renderAPIError(w, r, err)
		return
	}

	state := stateFromRequest(r)
	state.session.UserDetails = &session.PendingUser{ID: user.ID, EmailAddress: user.EmailAddress}
	s.persistSession(r)

	if err := s.sendVerificationEmail(r, user.ID, user.EmailAddress); err != nil {
		s.renderAPIError(w, r, err)
		return
	}
	if s.crm != nil {
		s.crm.RegisterContact(r.Context(), integrations.Contact{Name: form.Name, EmailAddress: form.EmailAddress})
	}
	http.Redirect(w, r, routepath.RegistrationSent, http.StatusFound)
}

func (s *Server) sendVerificationEmail(r *http.Request, userID, email string) error {
	signed, err := s.tokens.Sign(token.PurposeEmailVerification, map[string]string{"user_id": userID})
	if err != nil {
		return err
	}
	// The API owns delivery; the link payload is ours.
	return s.api.SendVerifyCode(r.Context(), userID, "email", routepath.VerifyEmail(signed))
}

func (s *Server) handleRegistrationSent(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, templates.NoticePage(s.pageContext(r),
		"Check your email",
		"Follow the link in the email to confirm your address"))
}

// handleVerifyEmail consumes the emailed link. Expired links route back to
// the resend page instead of a dead end.
func (s *Server) handleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	claims, err := s.tokens.Parse(token.PurposeEmailVerification, r.PathValue("token"), s.tokenMaxAge)
	if err != nil {
		if errors.Is(err, token.ErrExpired) {
			s.flash(r, "info", "This link has expired")
			http.Redirect(w, r, routepath.ResendVerification, http.StatusFound)
			return
		}
		s.renderTokenError(w, r, err)
		return
	}

	if _, err := s.api.ActivateUser(r.Context(), claims["user_id"]); err != nil {
		s.renderAPIError(w, r, err)
		return
	}
	s.flash(r, "info", "Your email address is confirmed, sign in to continue")
	http.Redirect(w, r, routepath.SignIn, http.StatusFound)
}

func (s *Server) handleResendVerificationPage(w http.ResponseWriter, r *http.Request) {
	pageCtx := s.pageContext(r)
	s.render(w, r, templates.Page(pageCtx, pageCtx.T("Resend verification email"), templates.Raw(fmt.Sprintf(
		`<h1>%s</h1><p>%s</p><form method="post">%s<button type="submit">%s</button></form>`,
		templ.EscapeString(pageCtx.T("Resend verification email")),
		templ.EscapeString(pageCtx.T("We can send you a new confirmation link")),
		pageCtx.CSRFField(),
		templ.EscapeString(pageCtx.T("Resend email"))))))
}

func (s *Server) handleResendVerification(w http.ResponseWriter, r *http.Request) {
	state := stateFromRequest(r)
	pending := state.session.UserDetails
	if pending == nil {
		http.Redirect(w, r, routepath.Register, http.StatusFound)
		return
	}
	if err := s.sendVerificationEmail(r, pending.ID, pending.EmailAddress); err != nil {
		s.renderAPIError(w, r, err)
		return
	}
	http.Redirect(w, r, routepath.RegistrationSent, http.StatusFound)
}
