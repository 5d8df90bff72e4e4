// Package integrations wraps the external services the Admin app enriches
// itself with. Every adapter degrades to a no-op when unconfigured and
// swallows transport failures; none of them may take a request down.
package integrations

import (
	"log"
	"net/http"
	"time"
)

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

// warnDisabled logs the single startup notice for a feature left off.
func warnDisabled(name string) {
	log.Printf("WARN: %s integration is not configured, feature disabled", name)
}
