// Package i18n resolves the display language for admin requests and hands
// out printers bound to the message catalog.
package i18n

import (
	"net/http"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	platformi18n "github.com/notifyops/notify-admin/internal/platform/i18n"
	"github.com/notifyops/notify-admin/internal/session"
)

// LangParam is the query parameter used to switch languages.
const LangParam = "lang"

// Printer returns a message printer for the supplied tag.
func Printer(tag language.Tag) *message.Printer {
	return message.NewPrinter(tag)
}

// ResolveTag picks the display language. Order: explicit ?lang=, the
// session's saved preference, then the request's Accept-Language, falling
// back to English. The bool reports whether the choice should be saved to
// the session.
func ResolveTag(r *http.Request, s *session.Session) (language.Tag, bool) {
	if r == nil {
		return platformi18n.DefaultTag(), false
	}

	if value := strings.TrimSpace(r.URL.Query().Get(LangParam)); value != "" {
		if tag, ok := platformi18n.ParseTag(value); ok {
			return tag, true
		}
	}

	if s != nil && s.UserLang != "" {
		if tag, ok := platformi18n.ParseTag(s.UserLang); ok {
			return tag, false
		}
	}

	if accept := strings.TrimSpace(r.Header.Get("Accept-Language")); accept != "" {
		if tags, _, err := language.ParseAcceptLanguage(accept); err == nil {
			return platformi18n.MatchTags(tags), false
		}
	}

	return platformi18n.DefaultTag(), false
}
