package notify

import (
	"context"

	"github.com/notifyops/notify-admin/internal/identity"
)

type inviteEnvelope struct {
	Data identity.InvitedUser `json:"data"`
}

type orgInviteEnvelope struct {
	Data identity.InvitedOrgUser `json:"data"`
}

// GetInvitedUser fetches a service invite by id.
func (c *Client) GetInvitedUser(ctx context.Context, inviteID string) (*identity.InvitedUser, error) {
	var envelope inviteEnvelope
	if err := c.get(ctx, "/invite/service/"+inviteID, nil, &envelope); err != nil {
		return nil, err
	}
	return &envelope.Data, nil
}

// CreateInviteInput describes a new team-member invitation.
type CreateInviteInput struct {
	FromUserID        string                `json:"from_user"`
	ServiceID         string                `json:"service"`
	EmailAddress      string                `json:"email_address"`
	Permissions       []identity.Permission `json:"permissions"`
	FolderPermissions []string              `json:"folder_permissions"`
	AuthType          identity.AuthType     `json:"auth_type"`
}

// CreateInvitedUser creates a pending invite; the API emails the signed link.
func (c *Client) CreateInvitedUser(ctx context.Context, input CreateInviteInput) (*identity.InvitedUser, error) {
	var envelope inviteEnvelope
	if err := c.post(ctx, "/invite/service", input, &envelope); err != nil {
		return nil, err
	}
	return &envelope.Data, nil
}

// UpdateInvitedUserStatus transitions an invite. The API rejects moves out
// of terminal states.
func (c *Client) UpdateInvitedUserStatus(ctx context.Context, serviceID, inviteID string, status identity.InviteStatus) error {
	body := map[string]string{"status": string(status)}
	return c.post(ctx, "/service/"+serviceID+"/invite/"+inviteID, body, nil)
}

// AcceptInvite adds the user to the invite's service with the invite's
// permissions and folder permissions, and marks the invite accepted, in one
// atomic API call. Re-accepting an already-accepted invite is a no-op.
func (c *Client) AcceptInvite(ctx context.Context, inviteID, userID string) error {
	return c.post(ctx, "/invite/service/"+inviteID+"/accept", map[string]string{"user_id": userID}, nil)
}

// RegisterFromInviteInput creates an account and consumes an invite in one
// call, so the new user lands with the invite's permission set.
type RegisterFromInviteInput struct {
	Name         string `json:"name"`
	MobileNumber string `json:"mobile_number,omitempty"`
	Password     string `json:"password"`
	AuthType     string `json:"auth_type"`
	InviteID     string `json:"invited_user_id"`
}

// RegisterFromInvite registers the invitee. The invite's email address is
// authoritative; the API rejects mismatches.
func (c *Client) RegisterFromInvite(ctx context.Context, input RegisterFromInviteInput) (*identity.User, error) {
	var envelope userEnvelope
	if err := c.post(ctx, "/user/register-from-invite", input, &envelope); err != nil {
		return nil, err
	}
	return identity.NewUser(envelope.Data), nil
}

// GetInvitedOrgUser fetches an organisation invite by id.
func (c *Client) GetInvitedOrgUser(ctx context.Context, inviteID string) (*identity.InvitedOrgUser, error) {
	var envelope orgInviteEnvelope
	if err := c.get(ctx, "/invite/organisation/"+inviteID, nil, &envelope); err != nil {
		return nil, err
	}
	return &envelope.Data, nil
}

// AcceptOrgInvite adds the user to the invite's organisation and marks the
// invite accepted.
func (c *Client) AcceptOrgInvite(ctx context.Context, inviteID, userID string) error {
	return c.post(ctx, "/invite/organisation/"+inviteID+"/accept", map[string]string{"user_id": userID}, nil)
}
