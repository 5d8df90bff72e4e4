package notify

import (
	"context"
	"net/url"

	"github.com/notifyops/notify-admin/internal/identity"
)

// userEnvelope is the API's wrapper around a single user record.
type userEnvelope struct {
	Data identity.UserPayload `json:"data"`
}

// GetUser fetches a user by id.
func (c *Client) GetUser(ctx context.Context, userID string) (*identity.User, error) {
	var envelope userEnvelope
	if err := c.get(ctx, "/user/"+userID, nil, &envelope); err != nil {
		return nil, err
	}
	return identity.NewUser(envelope.Data), nil
}

// GetUserByEmail fetches a user by email address. The API treats the address
// case-insensitively.
func (c *Client) GetUserByEmail(ctx context.Context, email string) (*identity.User, error) {
	var envelope userEnvelope
	if err := c.post(ctx, "/user/email", map[string]string{"email": email}, &envelope); err != nil {
		return nil, err
	}
	return identity.NewUser(envelope.Data), nil
}

// VerifyPassword delegates password verification to the API. A failure
// increments the user's failed-login counter server-side.
func (c *Client) VerifyPassword(ctx context.Context, userID, password string) error {
	return c.post(ctx, "/user/"+userID+"/verify/password", map[string]string{"password": password}, nil)
}

// SendVerifyCode asks the API to send a 2FA code over the given channel
// ("sms" or "email"). An empty destination uses the address on record.
func (c *Client) SendVerifyCode(ctx context.Context, userID, codeType, to string) error {
	body := map[string]string{"code_type": codeType}
	if to != "" {
		body["to"] = to
	}
	return c.post(ctx, "/user/"+userID+"/"+codeType+"-code", body, nil)
}

// CheckVerifyCode verifies a 2FA code. On success the API mints a fresh
// current_session_id; the returned user carries it so the caller can rebind
// the browser session.
func (c *Client) CheckVerifyCode(ctx context.Context, userID, code, codeType string) (*identity.User, error) {
	var envelope userEnvelope
	body := map[string]string{"code": code, "code_type": codeType}
	if err := c.post(ctx, "/user/"+userID+"/verify/code", body, &envelope); err != nil {
		return nil, err
	}
	return identity.NewUser(envelope.Data), nil
}

// RegisterUserInput describes a self-service registration.
type RegisterUserInput struct {
	Name         string `json:"name"`
	EmailAddress string `json:"email_address"`
	MobileNumber string `json:"mobile_number,omitempty"`
	Password     string `json:"password"`
	AuthType     string `json:"auth_type"`
}

// RegisterUser creates a pending user. Activation happens after the first
// successful 2FA verification.
func (c *Client) RegisterUser(ctx context.Context, input RegisterUserInput) (*identity.User, error) {
	var envelope userEnvelope
	if err := c.post(ctx, "/user", input, &envelope); err != nil {
		return nil, err
	}
	return identity.NewUser(envelope.Data), nil
}

// UpdateUser patches user fields and returns the refreshed record.
func (c *Client) UpdateUser(ctx context.Context, userID string, fields map[string]any) (*identity.User, error) {
	var envelope userEnvelope
	if err := c.post(ctx, "/user/"+userID, fields, &envelope); err != nil {
		return nil, err
	}
	return identity.NewUser(envelope.Data), nil
}

// ActivateUser marks a pending user active after first 2FA success.
func (c *Client) ActivateUser(ctx context.Context, userID string) (*identity.User, error) {
	var envelope userEnvelope
	if err := c.post(ctx, "/user/"+userID+"/activate", nil, &envelope); err != nil {
		return nil, err
	}
	return identity.NewUser(envelope.Data), nil
}

// SendPasswordResetEmail asks the API to email a password reset link. The
// API only sends when the account exists and is flagged for reset, so this
// call cannot be used to probe for accounts.
func (c *Client) SendPasswordResetEmail(ctx context.Context, email string) error {
	return c.post(ctx, "/user/reset-password", map[string]string{"email": email}, nil)
}

// SendAlreadyRegisteredEmail notifies an existing account that someone tried
// to register with its address.
func (c *Client) SendAlreadyRegisteredEmail(ctx context.Context, userID, email string) error {
	return c.post(ctx, "/user/"+userID+"/email-already-registered", map[string]string{"email": email}, nil)
}

// GetUsersForService lists the members of a service.
func (c *Client) GetUsersForService(ctx context.Context, serviceID string) ([]*identity.User, error) {
	var envelope struct {
		Data []identity.UserPayload `json:"data"`
	}
	query := url.Values{"service_id": {serviceID}}
	if err := c.get(ctx, "/service/"+serviceID+"/users", query, &envelope); err != nil {
		return nil, err
	}
	users := make([]*identity.User, 0, len(envelope.Data))
	for _, payload := range envelope.Data {
		users = append(users, identity.NewUser(payload))
	}
	return users, nil
}
