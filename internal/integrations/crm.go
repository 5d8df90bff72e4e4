package integrations

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/notifyops/notify-admin/internal/platform/timeouts"
)

// CRMConfig configures contact registration with the CRM.
type CRMConfig struct {
	BaseURL string
	APIKey  string
}

// CRM records new sign-ups as contacts. Failures are logged and dropped;
// registration must never block a user from signing up.
type CRM struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewCRM(config CRMConfig) *CRM {
	if config.BaseURL == "" || config.APIKey == "" {
		warnDisabled("CRM")
		return nil
	}
	return &CRM{
		baseURL:    config.BaseURL,
		apiKey:     config.APIKey,
		httpClient: newHTTPClient(timeouts.Integration),
	}
}

// Contact is what the CRM learns about a sign-up.
type Contact struct {
	Name         string `json:"name"`
	EmailAddress string `json:"email_address"`
	ServiceName  string `json:"service_name,omitempty"`
}

// RegisterContact reports whether the contact was recorded.
func (c *CRM) RegisterContact(ctx context.Context, contact Contact) bool {
	if c == nil {
		return false
	}
	payload, err := json.Marshal(contact)
	if err != nil {
		log.Printf("WARN: crm contact %s: %v", contact.EmailAddress, err)
		return false
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/contacts", bytes.NewReader(payload))
	if err != nil {
		log.Printf("WARN: crm contact %s: %v", contact.EmailAddress, err)
		return false
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("WARN: crm contact %s: %v", contact.EmailAddress, err)
		return false
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		log.Printf("WARN: crm contact %s: status %d", contact.EmailAddress, resp.StatusCode)
		return false
	}
	return true
}
