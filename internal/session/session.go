// Package session holds per-browser state for the Admin app. Sessions are
// stored server-side keyed by an opaque id; the cookie carries only the
// signed id.
package session

import (
	"time"

	"github.com/google/uuid"
)

// PendingUser is the registration or sign-in subject while the 2FA or email
// verification step is outstanding. Passwords are never stored here.
type PendingUser struct {
	ID           string `json:"id,omitempty"`
	EmailAddress string `json:"email_address,omitempty"`
}

// WizardState is the saved progress of one multi-step form: the step the
// user is on plus the validated data of every step already passed.
type WizardState struct {
	CurrentStep string                    `json:"current_step"`
	Steps       map[string]map[string]any `json:"steps"`
}

// Flash is a one-shot banner queued for the next rendered page.
type Flash struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// Session is the full slot set. Zero values mean "slot unset"; JSON
// omission keeps Redis payloads small.
type Session struct {
	ID string `json:"-"`

	UserID           string `json:"user_id,omitempty"`
	CurrentSessionID string `json:"current_session_id,omitempty"`
	UserLang         string `json:"userlang,omitempty"`

	ServiceID      string `json:"service_id,omitempty"`
	OrganisationID string `json:"organisation_id,omitempty"`

	UserDetails      *PendingUser `json:"user_details,omitempty"`
	InvitedUserID    string       `json:"invited_user,omitempty"`
	InvitedOrgUserID string       `json:"invited_org_user,omitempty"`

	Wizards map[string]*WizardState `json:"wizards,omitempty"`
	Flashes []Flash                 `json:"flashes,omitempty"`

	CSRFToken string `json:"csrf_token,omitempty"`

	NewEmailAddress          string    `json:"team_member_email_change,omitempty"`
	NewMobileNumber          string    `json:"team_member_mobile_change,omitempty"`
	MobileChangePasswordOK   bool      `json:"team_member_mobile_change_password_confirmed,omitempty"`
	ResetEmailAddress        string    `json:"reset_email_address,omitempty"`
	RequiresEmailLogin       bool      `json:"requires_email_login,omitempty"`
	DisablePlatformAdminView bool      `json:"disable_platform_admin_view,omitempty"`
	EmailLoginValidatedAt    time.Time `json:"email_login_validated_at,omitempty"`
}

// New creates an empty session with a fresh id.
func New() *Session {
	return &Session{ID: uuid.NewString()}
}

// SignedIn reports whether the session is bound to a user.
func (s *Session) SignedIn() bool {
	return s != nil && s.UserID != ""
}

// Wizard returns the named wizard's state, creating it on first use.
func (s *Session) Wizard(name string) *WizardState {
	if s.Wizards == nil {
		s.Wizards = make(map[string]*WizardState)
	}
	state, ok := s.Wizards[name]
	if !ok {
		state = &WizardState{Steps: make(map[string]map[string]any)}
		s.Wizards[name] = state
	}
	return state
}

// ClearWizard drops the named wizard's saved progress.
func (s *Session) ClearWizard(name string) {
	delete(s.Wizards, name)
}

// ClearTransient drops every slot that must not survive a completed or
// abandoned auth flow. Language and the platform-admin view toggle stay.
func (s *Session) ClearTransient() {
	if s == nil {
		return
	}
	s.UserDetails = nil
	s.InvitedUserID = ""
	s.InvitedOrgUserID = ""
	s.NewEmailAddress = ""
	s.NewMobileNumber = ""
	s.MobileChangePasswordOK = false
	s.ResetEmailAddress = ""
	s.RequiresEmailLogin = false
}

// Rotate gives the session a fresh id while keeping its slots. Called at
// sign-in so a pre-auth cookie cannot be replayed as an authenticated one.
func (s *Session) Rotate() {
	if s == nil {
		return
	}
	s.ID = uuid.NewString()
}
