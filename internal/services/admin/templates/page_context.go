package templates

import (
	"fmt"

	"github.com/a-h/templ"
	"golang.org/x/text/message"
)

// Flash is a one-shot banner shown at the top of the next page.
type Flash struct {
	Level   string
	Message string
}

// PageContext provides shared layout context for admin pages.
type PageContext struct {
	Lang        string
	Loc         *message.Printer
	Nonce       string
	CurrentPath string
	SignedIn    bool
	CSRFToken   string
	Flashes     []Flash
}

// CSRFField is the hidden input every POST form must carry.
func (c PageContext) CSRFField() string {
	return fmt.Sprintf(`<input type="hidden" name="csrf_token" value=%q>`, templ.EscapeString(c.CSRFToken))
}

// T translates a catalog key, passing it through untouched when no printer
// is bound.
func (c PageContext) T(key string, args ...any) string {
	if c.Loc == nil {
		return key
	}
	return c.Loc.Sprintf(key, args...)
}
