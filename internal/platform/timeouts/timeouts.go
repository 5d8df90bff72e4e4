// Package timeouts defines shared timeout constants used across the admin
// service. Centralizing these values prevents drift between call sites and
// makes the durations discoverable.
package timeouts

import "time"

// APIRequest caps the time allowed for a single Notifications API call.
const APIRequest = 30 * time.Second

// Redis caps the time allowed for a single cache or session store operation.
const Redis = 2 * time.Second

// FileScan caps the wait for an antivirus verdict on an uploaded file.
const FileScan = 15 * time.Second

// Integration caps best-effort calls to CRM and analytics collectors.
const Integration = 5 * time.Second

// ReadHeader limits how long the HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long the HTTP server waits for in-flight requests
// during graceful shutdown.
const Shutdown = 5 * time.Second
