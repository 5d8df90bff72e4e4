package integrations

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"

	"github.com/notifyops/notify-admin/internal/platform/timeouts"
)

// Verdict is the collapsed scan outcome.
type Verdict string

const (
	VerdictSafe   Verdict = "safe"
	VerdictUnsafe Verdict = "unsafe"
)

// Only confirmed findings make a file unsafe. Scanner trouble (error,
// unknown, unable_to_scan) and unrecognised verdicts fail open: the scan is
// an enrichment, not the only control on uploads.
var unsafeVerdicts = map[string]bool{
	"suspicious": true,
	"malicious":  true,
}

// FileScannerConfig configures the antivirus adapter. Both fields empty
// means the feature is off.
type FileScannerConfig struct {
	BaseURL string
	APIKey  string
}

// FileScanner submits uploads to the scanning service.
type FileScanner struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewFileScanner validates config at startup. Missing config yields a nil
// scanner, which scans everything as safe.
func NewFileScanner(config FileScannerConfig) *FileScanner {
	if config.BaseURL == "" || config.APIKey == "" {
		warnDisabled("file scan")
		return nil
	}
	return &FileScanner{
		baseURL:    config.BaseURL,
		apiKey:     config.APIKey,
		httpClient: newHTTPClient(timeouts.FileScan),
	}
}

type scanResponse struct {
	Verdict string `json:"verdict"`
}

// Scan submits one file and returns the collapsed verdict. Any failure to
// reach or parse the scanner is logged and reported safe.
func (s *FileScanner) Scan(ctx context.Context, filename string, content io.Reader) Verdict {
	if s == nil {
		return VerdictSafe
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		log.Printf("WARN: file scan request for %q: %v", filename, err)
		return VerdictSafe
	}
	if _, err := io.Copy(part, content); err != nil {
		log.Printf("WARN: file scan request for %q: %v", filename, err)
		return VerdictSafe
	}
	if err := writer.Close(); err != nil {
		log.Printf("WARN: file scan request for %q: %v", filename, err)
		return VerdictSafe
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/v1/scan", &body)
	if err != nil {
		log.Printf("WARN: file scan request for %q: %v", filename, err)
		return VerdictSafe
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "ApiKey "+s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		log.Printf("WARN: file scan for %q: %v", filename, err)
		return VerdictSafe
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("WARN: file scan for %q: status %d", filename, resp.StatusCode)
		return VerdictSafe
	}

	var result scanResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		log.Printf("WARN: file scan for %q: %v", filename, fmt.Errorf("decode response: %w", err))
		return VerdictSafe
	}
	if unsafeVerdicts[result.Verdict] {
		return VerdictUnsafe
	}
	return VerdictSafe
}
