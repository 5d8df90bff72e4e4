package integrations

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/notifyops/notify-admin/internal/platform/timeouts"
)

// AnalyticsConfig configures product-event tracking.
type AnalyticsConfig struct {
	EndpointURL string
	WriteKey    string
}

// Analytics emits product events. Fire and forget; nothing user-facing
// depends on an event landing.
type Analytics struct {
	endpointURL string
	writeKey    string
	httpClient  *http.Client
	now         func() time.Time
}

func NewAnalytics(config AnalyticsConfig) *Analytics {
	if config.EndpointURL == "" || config.WriteKey == "" {
		warnDisabled("analytics")
		return nil
	}
	return &Analytics{
		endpointURL: config.EndpointURL,
		writeKey:    config.WriteKey,
		httpClient:  newHTTPClient(timeouts.Integration),
		now:         time.Now,
	}
}

type analyticsEvent struct {
	Event      string         `json:"event"`
	UserID     string         `json:"user_id,omitempty"`
	Properties map[string]any `json:"properties,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
}

// Track records one event.
func (a *Analytics) Track(ctx context.Context, event, userID string, properties map[string]any) {
	if a == nil {
		return
	}
	payload, err := json.Marshal(analyticsEvent{
		Event:      event,
		UserID:     userID,
		Properties: properties,
		Timestamp:  a.now().UTC(),
	})
	if err != nil {
		log.Printf("WARN: analytics event %s: %v", event, err)
		return
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpointURL, bytes.NewReader(payload))
	if err != nil {
		log.Printf("WARN: analytics event %s: %v", event, err)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.writeKey)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		log.Printf("WARN: analytics event %s: %v", event, err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		log.Printf("WARN: analytics event %s: status %d", event, resp.StatusCode)
	}
}
