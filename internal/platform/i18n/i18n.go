// Package i18n defines the supported locales for the admin interface and
// helpers for resolving a request language against them.
package i18n

import (
	"strings"

	"golang.org/x/text/language"
)

var supported = []language.Tag{
	language.English,
	language.French,
}

var matcher = language.NewMatcher(supported)

// SupportedTags returns the list of supported language tags. English is
// first and acts as the default.
func SupportedTags() []language.Tag {
	return append([]language.Tag(nil), supported...)
}

// DefaultTag returns the default language tag.
func DefaultTag() language.Tag {
	return supported[0]
}

// ParseTag parses a raw language value and reports whether it maps to a
// supported tag. Unsupported or malformed values return false.
func ParseTag(value string) (language.Tag, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return language.Tag{}, false
	}
	tag, err := language.Parse(value)
	if err != nil {
		return language.Tag{}, false
	}
	for _, candidate := range supported {
		if candidate == tag {
			return candidate, true
		}
	}
	// Accept regional variants of a supported base (en-CA, fr-CA).
	base, confidence := tag.Base()
	if confidence == language.No {
		return language.Tag{}, false
	}
	for _, candidate := range supported {
		candidateBase, _ := candidate.Base()
		if candidateBase == base {
			return candidate, true
		}
	}
	return language.Tag{}, false
}

// MatchTags returns the best supported tag for an ordered preference list,
// falling back to the default.
func MatchTags(preferred []language.Tag) language.Tag {
	if len(preferred) == 0 {
		return DefaultTag()
	}
	_, index, confidence := matcher.Match(preferred...)
	if confidence == language.No {
		return DefaultTag()
	}
	return supported[index]
}
