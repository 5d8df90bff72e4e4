// Package identity models the people who operate the admin interface: users,
// pending invitees, and the anonymous visitor.
package identity

import (
	"strings"
	"time"
)

// MaxFailedLoginCount is the number of failed password attempts after which
// a user is locked. The API owns the counter; admin only interprets it.
const MaxFailedLoginCount = 10

// AuthType selects the second factor used at sign-in.
type AuthType string

const (
	AuthTypeSMS   AuthType = "sms_auth"
	AuthTypeEmail AuthType = "email_auth"
)

// State is the lifecycle state of a user account.
type State string

const (
	StatePending State = "pending"
	StateActive  State = "active"
)

// Permission is a UI-level admin role tag. The API's fine-grained permission
// tags are collapsed to these at User construction; view code never sees the
// raw tags.
type Permission string

const (
	PermissionSendMessages    Permission = "send_messages"
	PermissionManageService   Permission = "manage_service"
	PermissionManageTemplates Permission = "manage_templates"
	PermissionManageAPIKeys   Permission = "manage_api_keys"
	PermissionViewActivity    Permission = "view_activity"
)

// KnownPermissions lists every valid role tag. Authorization checks reject
// names outside this set as programmer errors.
var KnownPermissions = map[Permission]struct{}{
	PermissionSendMessages:    {},
	PermissionManageService:   {},
	PermissionManageTemplates: {},
	PermissionManageAPIKeys:   {},
	PermissionViewActivity:    {},
}

// roleForRawTag collapses an API fine-grained tag to its admin role.
var roleForRawTag = map[string]Permission{
	"send_texts":       PermissionSendMessages,
	"send_emails":      PermissionSendMessages,
	"send_letters":     PermissionSendMessages,
	"manage_users":     PermissionManageService,
	"manage_settings":  PermissionManageService,
	"manage_templates": PermissionManageTemplates,
	"manage_api_keys":  PermissionManageAPIKeys,
	"view_activity":    PermissionViewActivity,
}

// UserPayload is the wire shape of a user as returned by the Notifications
// API, carrying raw fine-grained permission tags.
type UserPayload struct {
	ID                string              `json:"id"`
	Name              string              `json:"name"`
	EmailAddress      string              `json:"email_address"`
	MobileNumber      string              `json:"mobile_number"`
	AuthType          string              `json:"auth_type"`
	State             string              `json:"state"`
	Blocked           bool                `json:"blocked"`
	FailedLoginCount  int                 `json:"failed_login_count"`
	PlatformAdmin     bool                `json:"platform_admin"`
	PasswordChangedAt time.Time           `json:"password_changed_at"`
	PasswordExpired   bool                `json:"password_expired"`
	CurrentSessionID  string              `json:"current_session_id"`
	EmailLastVerified time.Time           `json:"email_access_validated_at"`
	Permissions       map[string][]string `json:"permissions"`
	Services          []string            `json:"services"`
	Organisations     []string            `json:"organisations"`
}

// User is an authenticated operator identity.
type User struct {
	ID                string
	Name              string
	EmailAddress      string
	MobileNumber      string
	AuthType          AuthType
	State             State
	Blocked           bool
	FailedLoginCount  int
	PlatformAdmin     bool
	PasswordChangedAt time.Time
	PasswordExpired   bool
	CurrentSessionID  string
	EmailLastVerified time.Time
	Permissions       map[string][]Permission
	Services          []string
	Organisations     []string
}

// NewUser converts an API payload into a User, collapsing fine-grained
// permission tags into admin roles exactly once.
func NewUser(payload UserPayload) *User {
	user := &User{
		ID:                payload.ID,
		Name:              payload.Name,
		EmailAddress:      strings.ToLower(strings.TrimSpace(payload.EmailAddress)),
		MobileNumber:      payload.MobileNumber,
		AuthType:          AuthType(payload.AuthType),
		State:             State(payload.State),
		Blocked:           payload.Blocked,
		FailedLoginCount:  payload.FailedLoginCount,
		PlatformAdmin:     payload.PlatformAdmin,
		PasswordChangedAt: payload.PasswordChangedAt,
		PasswordExpired:   payload.PasswordExpired,
		CurrentSessionID:  payload.CurrentSessionID,
		EmailLastVerified: payload.EmailLastVerified,
		Permissions:       translatePermissions(payload.Permissions),
		Services:          append([]string(nil), payload.Services...),
		Organisations:     append([]string(nil), payload.Organisations...),
	}
	return user
}

// translatePermissions collapses raw tags per service, dropping duplicates
// and unknown tags.
func translatePermissions(raw map[string][]string) map[string][]Permission {
	translated := make(map[string][]Permission, len(raw))
	for serviceID, tags := range raw {
		seen := make(map[Permission]struct{}, len(tags))
		roles := make([]Permission, 0, len(tags))
		for _, tag := range tags {
			role, ok := roleForRawTag[strings.TrimSpace(tag)]
			if !ok {
				continue
			}
			if _, dup := seen[role]; dup {
				continue
			}
			seen[role] = struct{}{}
			roles = append(roles, role)
		}
		translated[serviceID] = roles
	}
	return translated
}

// IsLocked reports whether the account has reached the failed-login ceiling.
func (u *User) IsLocked() bool {
	return u != nil && u.FailedLoginCount >= MaxFailedLoginCount
}

// IsActive reports whether the account has completed first sign-in.
func (u *User) IsActive() bool {
	return u != nil && u.State == StateActive
}

// BelongsToService reports direct membership in a service.
func (u *User) BelongsToService(serviceID string) bool {
	if u == nil {
		return false
	}
	for _, id := range u.Services {
		if id == serviceID {
			return true
		}
	}
	return false
}

// BelongsToOrganisation reports membership in an organisation.
func (u *User) BelongsToOrganisation(organisationID string) bool {
	if u == nil {
		return false
	}
	for _, id := range u.Organisations {
		if id == organisationID {
			return true
		}
	}
	return false
}

// HasPermissionForService reports whether the user holds any of the given
// role tags on the service.
func (u *User) HasPermissionForService(serviceID string, permissions ...Permission) bool {
	if u == nil {
		return false
	}
	held := u.Permissions[serviceID]
	for _, wanted := range permissions {
		for _, role := range held {
			if role == wanted {
				return true
			}
		}
	}
	return false
}

// ViewsAsPlatformAdmin reports whether the user should be treated as a
// platform admin for UI purposes. The per-session live-view toggle can
// suspend the elevated view without touching the underlying flag.
func (u *User) ViewsAsPlatformAdmin(disablePlatformAdminView bool) bool {
	if u == nil {
		return false
	}
	return u.PlatformAdmin && !disablePlatformAdminView
}

// SessionMatches reports whether the browser session id equals the latest
// session id minted by the API. A login on another device rotates the API
// side and invalidates this browser.
func (u *User) SessionMatches(sessionID string) bool {
	if u == nil || u.CurrentSessionID == "" {
		return false
	}
	return u.CurrentSessionID == sessionID
}

// AnonymousUser is the identity of an unauthenticated request.
type AnonymousUser struct{}

// IsAuthenticated always reports false for the anonymous user.
func (AnonymousUser) IsAuthenticated() bool { return false }

// BelongsToService always reports false for the anonymous user.
func (AnonymousUser) BelongsToService(string) bool { return false }

// BelongsToOrganisation always reports false for the anonymous user.
func (AnonymousUser) BelongsToOrganisation(string) bool { return false }
