package admin

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/notifyops/notify-admin/internal/services/admin/routepath"
)

const (
	cacheStatic  = "public, max-age=31536000, immutable"
	cacheDynamic = "no-store, no-cache, private, must-revalidate"

	hstsValue = "max-age=63072000; includeSubDomains; preload"
)

// secureHeaders is the after-request half of the pipeline: fixed security
// headers, CSP with the request nonce, response cache policy, then ASCII
// sanitisation of every header value. A header value carrying a newline
// aborts the response with a 400, never a 500.
func (s *Server) secureHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sw := &secWriter{ResponseWriter: w, server: s, request: r}
		next.ServeHTTP(sw, r)
		// A handler that never writes still gets the header treatment.
		if !sw.wroteHeader {
			sw.WriteHeader(http.StatusOK)
		}
	})
}

type secWriter struct {
	http.ResponseWriter
	server      *Server
	request     *http.Request
	wroteHeader bool
	blocked     bool
}

func (sw *secWriter) WriteHeader(status int) {
	if sw.wroteHeader {
		return
	}
	sw.wroteHeader = true

	header := sw.Header()
	header.Set("Referrer-Policy", "strict-origin-when-cross-origin")
	header.Set("Strict-Transport-Security", hstsValue)
	header.Set("X-Frame-Options", "deny")
	header.Set("X-Content-Type-Options", "nosniff")
	header.Set("X-XSS-Protection", "1; mode=block")
	header.Set("Upgrade-Insecure-Requests", "1")
	header.Set("Content-Security-Policy", sw.server.contentSecurityPolicy(sw.request))
	header.Set("Report-To", `{"group":"default","max_age":10886400,"endpoints":[{"url":"/_reports"}]}`)

	if routepath.IsStatic(sw.request.URL.Path) {
		header.Set("Cache-Control", cacheStatic)
	} else {
		header.Set("Cache-Control", cacheDynamic)
	}

	if !sanitizeHeader(header) {
		sw.blocked = true
		for key := range header {
			header.Del(key)
		}
		header.Set("Content-Type", "text/plain; charset=utf-8")
		sw.ResponseWriter.WriteHeader(http.StatusBadRequest)
		fmt.Fprintln(sw.ResponseWriter, "Bad request")
		return
	}

	sw.ResponseWriter.WriteHeader(status)
}

func (sw *secWriter) Write(p []byte) (int, error) {
	if !sw.wroteHeader {
		sw.WriteHeader(http.StatusOK)
	}
	if sw.blocked {
		// The original body is discarded after a header violation.
		return len(p), nil
	}
	return sw.ResponseWriter.Write(p)
}

// contentSecurityPolicy assembles the CSP from the configured asset domain
// and the per-request nonce. Static routes have no nonce.
func (s *Server) contentSecurityPolicy(r *http.Request) string {
	assetSources := "'self'"
	if s.assetDomain != "" {
		assetSources += " " + s.assetDomain
	}

	scriptSources := "'self'"
	if state := stateFromRequest(r); state.nonce != "" {
		scriptSources += fmt.Sprintf(" 'nonce-%s'", state.nonce)
	}

	directives := []string{
		"default-src " + assetSources,
		"img-src " + assetSources + " data:",
		"script-src " + scriptSources,
		"script-src-elem " + scriptSources,
		"style-src " + assetSources,
		"frame-ancestors 'self'",
		"object-src 'self'",
	}
	return strings.Join(directives, "; ")
}

// sanitizeHeader drops non-ASCII bytes from every header value in place.
// It reports false when a value embeds a newline, which is never repaired.
func sanitizeHeader(header http.Header) bool {
	for key, values := range header {
		for i, value := range values {
			if strings.ContainsAny(value, "\r\n") {
				return false
			}
			values[i] = stripNonASCII(value)
		}
		header[key] = values
	}
	return true
}

func stripNonASCII(value string) string {
	clean := true
	for i := 0; i < len(value); i++ {
		if value[i] > 0x7f {
			clean = false
			break
		}
	}
	if clean {
		return value
	}
	var b strings.Builder
	b.Grow(len(value))
	for i := 0; i < len(value); i++ {
		if value[i] <= 0x7f {
			b.WriteByte(value[i])
		}
	}
	return b.String()
}
