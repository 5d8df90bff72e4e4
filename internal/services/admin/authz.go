package admin

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/notifyops/notify-admin/internal/identity"
	"github.com/notifyops/notify-admin/internal/notify"
	"github.com/notifyops/notify-admin/internal/platform/requestctx"
	"github.com/notifyops/notify-admin/internal/services/admin/routepath"
)

// requireSignIn resolves the session's user and enforces the session
// binding rule: the browser's current_session_id must match the one the
// API last minted for the user. A login elsewhere invalidates this one.
func (s *Server) requireSignIn(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state := stateFromRequest(r)
		if !state.session.SignedIn() {
			s.renderError(w, r, http.StatusUnauthorized)
			return
		}

		user, err := s.api.GetUser(r.Context(), state.session.UserID)
		if err != nil {
			s.renderAPIError(w, r, err)
			return
		}
		if !user.SessionMatches(state.session.CurrentSessionID) {
			state.session.UserID = ""
			state.session.CurrentSessionID = ""
			s.flash(r, "info", "You were signed out because you signed in on another browser")
			http.Redirect(w, r, routepath.WithNext(routepath.SignIn, r.URL.RequestURI()), http.StatusFound)
			return
		}

		state.user = user
		ctx := requestctx.WithUserID(r.Context(), user.ID)
		ctx = notify.WithCurrentUser(ctx, notify.UserContext{
			ID:            user.ID,
			EmailAddress:  user.EmailAddress,
			PlatformAdmin: user.PlatformAdmin,
		})
		next(w, r.WithContext(ctx))
	}
}

// authzOptions tune the permission decorator.
type authzOptions struct {
	restrictAdminUsage bool
	allowOrgUser       bool
}

// protected is requireSignIn plus service binding plus the permission
// contract for service-scoped routes.
func (s *Server) protected(next http.HandlerFunc, permissions ...identity.Permission) http.HandlerFunc {
	return s.requireSignIn(s.requirePermissions(next, authzOptions{}, permissions...))
}

// requirePermissions enforces the authorization contract on a route with a
// {serviceID} or {orgID} path segment. Using it on any other route is a
// programming mistake and panics rather than guessing an answer.
func (s *Server) requirePermissions(next http.HandlerFunc, options authzOptions, permissions ...identity.Permission) http.HandlerFunc {
	for _, permission := range permissions {
		if _, ok := identity.KnownPermissions[permission]; !ok {
			panic(fmt.Sprintf("admin: unknown permission %q", permission))
		}
	}

	return func(w http.ResponseWriter, r *http.Request) {
		serviceID := r.PathValue("serviceID")
		orgID := r.PathValue("orgID")
		if serviceID == "" && orgID == "" {
			panic("admin: requirePermissions used on a route without a service or organisation segment")
		}

		state := stateFromRequest(r)
		user := state.user

		ctx := r.Context()
		if serviceID != "" {
			service, err := s.api.GetService(ctx, serviceID)
			if err != nil {
				var apiErr *notify.APIError
				if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
					s.renderError(w, r, http.StatusNotFound)
					return
				}
				s.renderAPIError(w, r, err)
				return
			}
			state.service = service
			ctx = requestctx.WithServiceID(ctx, service.ID)
			ctx = notify.WithCurrentService(ctx, notify.ServiceContext{ID: service.ID, Active: service.Active})
		}
		if orgID != "" {
			organisation, err := s.api.GetOrganisation(ctx, orgID)
			if err != nil {
				var apiErr *notify.APIError
				if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
					s.renderError(w, r, http.StatusNotFound)
					return
				}
				s.renderAPIError(w, r, err)
				return
			}
			state.organisation = organisation
			ctx = requestctx.WithOrganisationID(ctx, organisation.ID)
		}
		r = r.WithContext(ctx)

		if !s.allowed(state, serviceID, orgID, options, permissions) {
			log.Printf("authz denied user %s on %s", user.ID, r.URL.Path)
			s.renderError(w, r, http.StatusForbidden)
			return
		}
		next(w, r)
	}
}

// allowed walks the authorization contract in order.
func (s *Server) allowed(state *requestState, serviceID, orgID string, options authzOptions, permissions []identity.Permission) bool {
	user := state.user
	if user == nil {
		return false
	}

	if user.ViewsAsPlatformAdmin(state.session.DisablePlatformAdminView) && !options.restrictAdminUsage {
		return true
	}
	if orgID != "" {
		return user.BelongsToOrganisation(orgID)
	}
	if len(permissions) == 0 {
		return user.BelongsToService(serviceID)
	}
	if user.HasPermissionForService(serviceID, permissions...) {
		return true
	}
	if options.allowOrgUser && state.service != nil && state.service.OrganisationID != "" {
		return user.BelongsToOrganisation(state.service.OrganisationID)
	}
	return false
}
