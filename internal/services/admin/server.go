// Package admin hosts the Notify Admin web application: sign-in and 2FA,
// registration and invites, service onboarding wizards, and the security
// header pipeline every response passes through.
package admin

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/notifyops/notify-admin/internal/cache"
	"github.com/notifyops/notify-admin/internal/identity"
	"github.com/notifyops/notify-admin/internal/integrations"
	"github.com/notifyops/notify-admin/internal/platform/timeouts"
	"github.com/notifyops/notify-admin/internal/services/admin/routepath"
	"github.com/notifyops/notify-admin/internal/session"
	"github.com/notifyops/notify-admin/internal/token"
)

// Config defines the inputs for the admin web process.
type Config struct {
	HTTPAddr    string
	API         *cache.Client
	Sessions    *session.Manager
	Tokens      *token.Signer
	AssetDomain string
	StaticDir   string
	// TokenMaxAge bounds email verification and invite links.
	TokenMaxAge time.Duration
	Debug       bool

	FileScanner *integrations.FileScanner
	CRM         *integrations.CRM
	ObjectStore *integrations.ObjectStore
	Analytics   *integrations.Analytics
}

// Server wires the handlers to their dependencies and owns the HTTP
// listener.
type Server struct {
	httpAddr    string
	api         *cache.Client
	sessions    *session.Manager
	tokens      *token.Signer
	assetDomain string
	tokenMaxAge time.Duration
	debug       bool

	fileScanner *integrations.FileScanner
	crm         *integrations.CRM
	objectStore *integrations.ObjectStore
	analytics   *integrations.Analytics

	httpServer *http.Server
}

// NewServer validates config and builds the route table.
func NewServer(config Config) (*Server, error) {
	httpAddr := strings.TrimSpace(config.HTTPAddr)
	if httpAddr == "" {
		return nil, errors.New("http address is required")
	}
	if config.API == nil {
		return nil, errors.New("api client is required")
	}
	if config.Sessions == nil {
		return nil, errors.New("session manager is required")
	}
	if config.Tokens == nil {
		return nil, errors.New("token signer is required")
	}
	if config.TokenMaxAge <= 0 {
		config.TokenMaxAge = 24 * time.Hour
	}
	if config.StaticDir == "" {
		config.StaticDir = "internal/services/admin/static"
	}

	s := &Server{
		httpAddr:    httpAddr,
		api:         config.API,
		sessions:    config.Sessions,
		tokens:      config.Tokens,
		assetDomain: strings.TrimSpace(config.AssetDomain),
		tokenMaxAge: config.TokenMaxAge,
		debug:       config.Debug,
		fileScanner: config.FileScanner,
		crm:         config.CRM,
		objectStore: config.ObjectStore,
		analytics:   config.Analytics,
	}

	s.httpServer = &http.Server{
		Addr:              httpAddr,
		Handler:           s.Handler(config.StaticDir),
		ReadHeaderTimeout: timeouts.ReadHeader,
	}
	return s, nil
}

// Handler assembles the route table inside the request pipeline. Exposed
// for tests.
func (s *Server) Handler(staticDir string) http.Handler {
	mux := http.NewServeMux()

	mux.Handle("GET "+routepath.StaticPrefix, http.StripPrefix(routepath.StaticPrefix, http.FileServer(http.Dir(staticDir))))
	mux.HandleFunc("GET "+routepath.Status, s.handleStatus)

	mux.HandleFunc("GET "+routepath.Root, s.handleRoot)
	mux.HandleFunc("GET "+routepath.Welcome, s.handleWelcome)

	mux.HandleFunc("GET "+routepath.SignIn, s.handleSignInPage)
	mux.HandleFunc("POST "+routepath.SignIn, s.handleSignIn)
	mux.HandleFunc("GET "+routepath.SignOut, s.handleSignOut)
	mux.HandleFunc("GET "+routepath.TwoFactorSMSSent, s.handleTwoFactorPage("sms"))
	mux.HandleFunc("POST "+routepath.TwoFactorSMSSent, s.handleTwoFactor("sms"))
	mux.HandleFunc("GET "+routepath.TwoFactorEmailSent, s.handleTwoFactorPage("email"))
	mux.HandleFunc("POST "+routepath.TwoFactorEmailSent, s.handleTwoFactor("email"))

	mux.HandleFunc("GET "+routepath.Register, s.handleRegisterPage)
	mux.HandleFunc("POST "+routepath.Register, s.handleRegister)
	mux.HandleFunc("GET "+routepath.RegistrationSent, s.handleRegistrationSent)
	mux.HandleFunc("GET /verify-email/{token}", s.handleVerifyEmail)
	mux.HandleFunc("GET "+routepath.ResendVerification, s.handleResendVerificationPage)
	mux.HandleFunc("POST "+routepath.ResendVerification, s.handleResendVerification)

	mux.HandleFunc("GET "+routepath.ForgotPassword, s.handleForgotPasswordPage)
	mux.HandleFunc("POST "+routepath.ForgotPassword, s.handleForgotPassword)
	mux.HandleFunc("GET /new-password/{token}", s.handleNewPasswordPage)
	mux.HandleFunc("POST /new-password/{token}", s.handleNewPassword)
	mux.HandleFunc("GET "+routepath.ForcedReset, s.handleForcedReset)

	mux.HandleFunc("GET /invitation/{token}", s.handleInvitation)
	mux.HandleFunc("GET /organisation-invitation/{token}", s.handleOrgInvitation)
	mux.HandleFunc("GET "+routepath.RegisterFromInvite, s.handleRegisterFromInvitePage)
	mux.HandleFunc("POST "+routepath.RegisterFromInvite, s.handleRegisterFromInvite)

	mux.HandleFunc("GET "+routepath.AddService, s.requireSignIn(s.handleAddServicePage))
	mux.HandleFunc("POST "+routepath.AddService, s.requireSignIn(s.handleAddService))

	mux.HandleFunc("GET /services/{serviceID}", s.protected(s.handleDashboard))
	mux.HandleFunc("GET /services/{serviceID}/use-case", s.protected(s.handleUseCasePage, identity.PermissionManageService))
	mux.HandleFunc("POST /services/{serviceID}/use-case", s.protected(s.handleUseCase, identity.PermissionManageService))
	mux.HandleFunc("POST /services/{serviceID}/accept-terms", s.protected(s.handleAcceptTerms, identity.PermissionManageService))
	mux.HandleFunc("GET /services/{serviceID}/contact", s.protected(s.handleContactPage, identity.PermissionManageService))
	mux.HandleFunc("POST /services/{serviceID}/contact", s.protected(s.handleContact, identity.PermissionManageService))
	mux.HandleFunc("GET /services/{serviceID}/users", s.protected(s.handleTeamPage, identity.PermissionManageService))
	mux.HandleFunc("POST /services/{serviceID}/users/invite", s.protected(s.handleInviteTeamMember, identity.PermissionManageService))
	mux.HandleFunc("POST /services/{serviceID}/invites/{inviteID}/cancel", s.protected(s.handleCancelInvite, identity.PermissionManageService))
	mux.HandleFunc("GET /services/{serviceID}/logo", s.protected(s.handleLogoPage, identity.PermissionManageService))
	mux.HandleFunc("POST /services/{serviceID}/logo", s.protected(s.handleUploadLogo, identity.PermissionManageService))
	mux.HandleFunc("GET /services/{serviceID}/reply-to", s.protected(s.handleReplyToPage, identity.PermissionManageService))
	mux.HandleFunc("POST /services/{serviceID}/reply-to/{replyToID}/archive", s.protected(s.handleArchiveReplyTo, identity.PermissionManageService))

	mux.HandleFunc("GET "+routepath.UserProfile, s.requireSignIn(s.handleUserProfile))
	mux.HandleFunc("POST "+routepath.ChangeEmail, s.requireSignIn(s.handleChangeEmail))
	mux.HandleFunc("GET /user-profile/email/confirm/{token}", s.handleConfirmChangeEmail)
	mux.HandleFunc("POST "+routepath.ChangeMobile, s.requireSignIn(s.handleChangeMobile))
	mux.HandleFunc("POST "+routepath.ConfirmMobile, s.requireSignIn(s.handleConfirmMobile))
	mux.HandleFunc("POST "+routepath.DisableAdminView, s.requireSignIn(s.handleToggleAdminView))

	return s.withRequestState(s.secureHeaders(s.checkCSRF(s.renderMethodNotAllowed(mux))))
}

// ListenAndServe runs the HTTP server until the context ends, draining
// in-flight requests on cancellation.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s == nil {
		return errors.New("admin server is nil")
	}
	if ctx == nil {
		return errors.New("context is required")
	}

	serveErr := make(chan error, 1)
	log.Printf("admin listening on %s", s.httpAddr)
	go func() {
		serveErr <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		err := s.httpServer.Shutdown(shutdownCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}
}
