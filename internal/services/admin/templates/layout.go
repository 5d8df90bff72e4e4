// Package templates renders the admin pages as templ components. Components
// are written by hand; every inline script carries the request nonce so the
// CSP emitted by the server matches the markup.
package templates

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"
)

const appName = "Notify Admin"

// ComposePageTitle suffixes the brand name onto a page title.
func ComposePageTitle(title string) string {
	if title == "" {
		return appName
	}
	return title + " | " + appName
}

// Page wraps body in the shared chrome. The inline bootstrap script is the
// only script the layout emits and it is nonce-tagged.
func Page(pageCtx PageContext, title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		lang := pageCtx.Lang
		if lang == "" {
			lang = "en"
		}
		if _, err := fmt.Fprintf(w, `<!DOCTYPE html><html lang=%q><head><meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1"><title>%s</title><link rel="stylesheet" href="/static/app.css"></head><body>`,
			lang, templ.EscapeString(ComposePageTitle(title))); err != nil {
			return err
		}
		if err := flashes(pageCtx).Render(ctx, w); err != nil {
			return err
		}
		if _, err := io.WriteString(w, `<main class="container">`); err != nil {
			return err
		}
		if body != nil {
			if err := body.Render(ctx, w); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, `</main>`); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, `<script nonce=%q src="/static/app.js"></script><script nonce=%q>window.appLang=%q;</script>`,
			pageCtx.Nonce, pageCtx.Nonce, lang); err != nil {
			return err
		}
		_, err := io.WriteString(w, `</body></html>`)
		return err
	})
}

func flashes(pageCtx PageContext) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		for _, flash := range pageCtx.Flashes {
			level := flash.Level
			if level == "" {
				level = "info"
			}
			if _, err := fmt.Fprintf(w, `<div class="banner banner-%s" role="alert">%s</div>`,
				templ.EscapeString(level), templ.EscapeString(flash.Message)); err != nil {
				return err
			}
		}
		return nil
	})
}

// Raw emits pre-escaped markup. Callers own the escaping of interpolated
// values.
func Raw(markup string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := io.WriteString(w, markup)
		return err
	})
}
