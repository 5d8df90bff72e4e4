package notify

import (
	"context"
	"log"
	"net/url"
)

// Service is a tenant of the notification platform.
type Service struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	EmailFrom       string   `json:"email_from"`
	Active          bool     `json:"active"`
	Restricted      bool     `json:"restricted"`
	Permissions     []string `json:"permissions"`
	DefaultBranding bool     `json:"default_branding_is_french"`
	OrganisationID  string   `json:"organisation"`
	GoLiveState     string   `json:"go_live_state"`
	MessageLimit    int      `json:"message_limit"`
}

// HasPermission reports whether the service carries a feature flag such as
// "email", "sms", "letter", "email_auth", or "caseworking".
func (s *Service) HasPermission(name string) bool {
	if s == nil {
		return false
	}
	for _, permission := range s.Permissions {
		if permission == name {
			return true
		}
	}
	return false
}

type serviceEnvelope struct {
	Data Service `json:"data"`
}

// GetService fetches one service.
func (c *Client) GetService(ctx context.Context, serviceID string) (*Service, error) {
	var envelope serviceEnvelope
	if err := c.get(ctx, "/service/"+serviceID, nil, &envelope); err != nil {
		return nil, err
	}
	return &envelope.Data, nil
}

// CreateServiceInput describes the add-service wizard's final commit.
type CreateServiceInput struct {
	Name                    string `json:"name"`
	EmailFrom               string `json:"email_from"`
	UserID                  string `json:"user_id"`
	MessageLimit            int    `json:"message_limit"`
	Restricted              bool   `json:"restricted"`
	DefaultBrandingIsFrench bool   `json:"default_branding_is_french"`
	OrganisationType        string `json:"organisation_type,omitempty"`
	OrganisationNotes       string `json:"organisation_notes,omitempty"`
	ParentOrganisationName  string `json:"parent_organisation_name,omitempty"`
	ChildOrganisationName   string `json:"child_organisation_name,omitempty"`
}

// CreateService creates a new trial-mode service and returns its id.
func (c *Client) CreateService(ctx context.Context, input CreateServiceInput) (string, error) {
	var envelope struct {
		Data string `json:"data"`
	}
	if err := c.post(ctx, "/service", input, &envelope); err != nil {
		return "", err
	}
	return envelope.Data, nil
}

// UpdateService patches service fields and returns the refreshed record.
func (c *Client) UpdateService(ctx context.Context, serviceID string, fields map[string]any) (*Service, error) {
	var envelope serviceEnvelope
	if err := c.post(ctx, "/service/"+serviceID, fields, &envelope); err != nil {
		return nil, err
	}
	return &envelope.Data, nil
}

// IsServiceNameUnique checks name availability for the wizard.
func (c *Client) IsServiceNameUnique(ctx context.Context, serviceID, name string) (bool, error) {
	var envelope struct {
		Result bool `json:"result"`
	}
	query := url.Values{"service_id": {serviceID}, "name": {name}}
	if err := c.get(ctx, "/service/name/unique", query, &envelope); err != nil {
		return false, err
	}
	return envelope.Result, nil
}

// IsEmailFromUnique checks sending-address availability for the wizard.
func (c *Client) IsEmailFromUnique(ctx context.Context, serviceID, emailFrom string) (bool, error) {
	var envelope struct {
		Result bool `json:"result"`
	}
	query := url.Values{"service_id": {serviceID}, "email_from": {emailFrom}}
	if err := c.get(ctx, "/service/email-from/unique", query, &envelope); err != nil {
		return false, err
	}
	return envelope.Result, nil
}

// CreateOrUpdateFreeSMSFragmentLimit sets a service's yearly free SMS
// allowance. The add-service wizard calls this after service creation; if it
// fails the service still exists and the limit is created lazily later.
func (c *Client) CreateOrUpdateFreeSMSFragmentLimit(ctx context.Context, serviceID string, limit int) error {
	body := map[string]int{"free_sms_fragment_limit": limit}
	return c.post(ctx, "/service/"+serviceID+"/billing/free-sms-fragment-limit", body, nil)
}

// DataRetention is a per-notification-type retention override.
type DataRetention struct {
	ID               string `json:"id"`
	NotificationType string `json:"notification_type"`
	DaysOfRetention  int    `json:"days_of_retention"`
}

// GetServiceDataRetention lists retention overrides for a service.
func (c *Client) GetServiceDataRetention(ctx context.Context, serviceID string) ([]DataRetention, error) {
	var envelope struct {
		Data []DataRetention `json:"data"`
	}
	if err := c.get(ctx, "/service/"+serviceID+"/data-retention", nil, &envelope); err != nil {
		return nil, err
	}
	return envelope.Data, nil
}

// SetServiceDataRetention creates or updates a retention override.
func (c *Client) SetServiceDataRetention(ctx context.Context, serviceID, notificationType string, days int) error {
	body := map[string]any{"notification_type": notificationType, "days_of_retention": days}
	return c.post(ctx, "/service/"+serviceID+"/data-retention", body, nil)
}

// ReplyToAddress is a service email reply-to entry.
type ReplyToAddress struct {
	ID           string `json:"id"`
	EmailAddress string `json:"email_address"`
	IsDefault    bool   `json:"is_default"`
	Archived     bool   `json:"archived"`
}

// GetReplyToAddresses lists a service's reply-to addresses.
func (c *Client) GetReplyToAddresses(ctx context.Context, serviceID string) ([]ReplyToAddress, error) {
	var envelope struct {
		Data []ReplyToAddress `json:"data"`
	}
	if err := c.get(ctx, "/service/"+serviceID+"/email-reply-to", nil, &envelope); err != nil {
		return nil, err
	}
	return envelope.Data, nil
}

// UpdateReplyToAddress updates fields on a reply-to entry, such as promoting
// it to the default.
func (c *Client) UpdateReplyToAddress(ctx context.Context, serviceID, replyToID string, fields map[string]any) error {
	return c.post(ctx, "/service/"+serviceID+"/email-reply-to/"+replyToID, fields, nil)
}

// ArchiveReplyToAddress retires a reply-to entry. Archived entries stay in
// the list for notification history but cannot be picked for new sends.
func (c *Client) ArchiveReplyToAddress(ctx context.Context, serviceID, replyToID string) error {
	return c.post(ctx, "/service/"+serviceID+"/email-reply-to/"+replyToID+"/archive", nil, nil)
}

// NextDefaultReplyTo picks the replacement default when the current default
// is archived: the first surviving non-default address. The input list is
// assumed to carry at most one default; a duplicated default should never
// happen, and when it does the helper logs a warning and returns nil rather
// than guessing.
func NextDefaultReplyTo(addresses []ReplyToAddress, archivedID string) *ReplyToAddress {
	defaults := 0
	for _, address := range addresses {
		if address.IsDefault {
			defaults++
		}
	}
	if defaults > 1 {
		log.Printf("WARN: reply-to list carries %d defaults; refusing to pick a replacement", defaults)
		return nil
	}
	for i := range addresses {
		if addresses[i].ID == archivedID || addresses[i].Archived {
			continue
		}
		if !addresses[i].IsDefault {
			return &addresses[i]
		}
	}
	return nil
}
