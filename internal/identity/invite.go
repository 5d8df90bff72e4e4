package identity

import "time"

// InviteStatus is the lifecycle state of a membership offer.
type InviteStatus string

const (
	InviteStatusPending   InviteStatus = "pending"
	InviteStatusAccepted  InviteStatus = "accepted"
	InviteStatusCancelled InviteStatus = "cancelled"
	InviteStatusExpired   InviteStatus = "expired"
)

// validInviteTransitions encodes the pending -> {accepted, cancelled,
// expired} DAG. Terminal states have no outgoing edges.
var validInviteTransitions = map[InviteStatus][]InviteStatus{
	InviteStatusPending: {InviteStatusAccepted, InviteStatusCancelled, InviteStatusExpired},
}

// CanTransition reports whether an invite may move from one status to
// another.
func (s InviteStatus) CanTransition(to InviteStatus) bool {
	for _, allowed := range validInviteTransitions[s] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Consumable reports whether an invite can still be accepted.
func (s InviteStatus) Consumable() bool {
	return s == InviteStatusPending
}

// InvitedUser is a pending offer of membership in a service.
type InvitedUser struct {
	ID                string       `json:"id"`
	FromUserID        string       `json:"from_user"`
	ServiceID         string       `json:"service"`
	EmailAddress      string       `json:"email_address"`
	Permissions       []Permission `json:"permissions"`
	FolderPermissions []string     `json:"folder_permissions"`
	AuthType          AuthType     `json:"auth_type"`
	Status            InviteStatus `json:"status"`
	CreatedAt         time.Time    `json:"created_at"`
}

// InvitedOrgUser is a pending offer of membership in an organisation.
type InvitedOrgUser struct {
	ID             string       `json:"id"`
	FromUserID     string       `json:"invited_by"`
	OrganisationID string       `json:"organisation"`
	EmailAddress   string       `json:"email_address"`
	Status         InviteStatus `json:"status"`
	CreatedAt      time.Time    `json:"created_at"`
}

// AcceptanceAuthType resolves the auth type a user registered from this
// invite should get. The invite's choice is kept as-is; sms_auth is never
// silently downgraded to email_auth for phoneless invitees, who must supply
// a mobile number during registration instead.
func (i InvitedUser) AcceptanceAuthType(hasMobileNumber bool) AuthType {
	if i.AuthType != "" {
		return i.AuthType
	}
	if hasMobileNumber {
		return AuthTypeSMS
	}
	return AuthTypeEmail
}
