package integrations

import (
	"bytes"
	"context"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/notifyops/notify-admin/internal/platform/timeouts"
)

// ObjectStoreConfig points at the bucket gateway holding uploaded assets
// such as branding logos.
type ObjectStoreConfig struct {
	BaseURL string
	Bucket  string
	APIKey  string
}

// ObjectStore uploads assets over the gateway's HTTP surface.
type ObjectStore struct {
	baseURL    string
	bucket     string
	apiKey     string
	httpClient *http.Client
}

func NewObjectStore(config ObjectStoreConfig) *ObjectStore {
	if config.BaseURL == "" || config.Bucket == "" {
		warnDisabled("object store")
		return nil
	}
	return &ObjectStore{
		baseURL:    strings.TrimSuffix(config.BaseURL, "/"),
		bucket:     config.Bucket,
		apiKey:     config.APIKey,
		httpClient: newHTTPClient(timeouts.Integration),
	}
}

func (s *ObjectStore) objectURL(key string) string {
	return s.baseURL + "/" + s.bucket + "/" + url.PathEscape(key)
}

// Put stores an object and reports success. Callers treat false as "keep
// the previous asset".
func (s *ObjectStore) Put(ctx context.Context, key, contentType string, content []byte) bool {
	if s == nil {
		return false
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, s.objectURL(key), bytes.NewReader(content))
	if err != nil {
		log.Printf("WARN: object store put %s: %v", key, err)
		return false
	}
	req.Header.Set("Content-Type", contentType)
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		log.Printf("WARN: object store put %s: %v", key, err)
		return false
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		log.Printf("WARN: object store put %s: status %d", key, resp.StatusCode)
		return false
	}
	return true
}

// URL returns the public address of a stored object, or "" when the store
// is disabled.
func (s *ObjectStore) URL(key string) string {
	if s == nil {
		return ""
	}
	return s.objectURL(key)
}
