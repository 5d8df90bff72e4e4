package cache

import (
	"fmt"
	"strconv"
	"time"
)

const (
	// DefaultTTL bounds how stale a memoised API read can get.
	DefaultTTL = 7 * 24 * time.Hour

	tosAcceptedTTL      = 30 * 24 * time.Hour
	useCaseDataTTL      = 60 * 24 * time.Hour
	useCaseSubmittedTTL = 30 * 24 * time.Hour
)

const (
	keyOrganisations = "organisations"
	keyDomains       = "domains"
	keyLiveCounts    = "live-service-and-organisation-counts"
)

func userKey(userID string) string {
	return "user-" + userID
}

func serviceKey(serviceID string) string {
	return "service-" + serviceID
}

func serviceTemplatesKey(serviceID string) string {
	return fmt.Sprintf("service-%s-templates", serviceID)
}

// templateVersionKey names one cached template read. A nil version is the
// "current" read and keys as None, matching what mutation sweeps expect.
func templateVersionKey(templateID string, version *int) string {
	suffix := "None"
	if version != nil {
		suffix = strconv.Itoa(*version)
	}
	return fmt.Sprintf("template-%s-version-%s", templateID, suffix)
}

func templateVersionPattern(templateID string) string {
	return fmt.Sprintf("template-%s-version-*", templateID)
}

func templateVersionsKey(templateID string) string {
	return fmt.Sprintf("template-%s-versions", templateID)
}

func serviceDataRetentionKey(serviceID string) string {
	return fmt.Sprintf("service-%s-data-retention", serviceID)
}

func tosAcceptedKey(serviceID string) string {
	return "tos-accepted-" + serviceID
}

func useCaseDataKey(serviceID string) string {
	return "use-case-data-" + serviceID
}

func useCaseSubmittedKey(serviceID string) string {
	return "use-case-submitted-" + serviceID
}
