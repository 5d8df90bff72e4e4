package templates

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"
)

// ProfileView is the user-profile page model. PendingEmail and
// PendingMobile surface in-flight changes that still need confirmation.
type ProfileView struct {
	Name          string
	EmailAddress  string
	MobileNumber  string
	PendingEmail  string
	PendingMobile bool
	FieldErrors   map[string][]string
}

func ProfilePage(pageCtx PageContext, view ProfileView) templ.Component {
	body := templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, `<h1>%s</h1><dl><dt>%s</dt><dd>%s</dd><dt>%s</dt><dd>%s</dd><dt>%s</dt><dd>%s</dd></dl>`,
			templ.EscapeString(pageCtx.T("Your profile")),
			templ.EscapeString(pageCtx.T("Name")), templ.EscapeString(view.Name),
			templ.EscapeString(pageCtx.T("Email address")), templ.EscapeString(view.EmailAddress),
			templ.EscapeString(pageCtx.T("Mobile number")), templ.EscapeString(view.MobileNumber)); err != nil {
			return err
		}
		if view.PendingEmail != "" {
			if _, err := fmt.Fprintf(w, `<div class="banner banner-info">%s</div>`,
				templ.EscapeString(pageCtx.T("Check %s for a link to confirm your new email address", view.PendingEmail))); err != nil {
				return err
			}
		}

		if err := fieldErrorList(w, view.FieldErrors, "email_address"); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, `<form method="post" action="/user-profile/email">%s<label for="email_address">%s</label><input id="email_address" name="email_address" type="email"><button type="submit">%s</button></form>`,
			pageCtx.CSRFField(),
			templ.EscapeString(pageCtx.T("New email address")),
			templ.EscapeString(pageCtx.T("Change email address"))); err != nil {
			return err
		}

		if err := fieldErrorList(w, view.FieldErrors, "mobile_number"); err != nil {
			return err
		}
		if err := fieldErrorList(w, view.FieldErrors, "password"); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, `<form method="post" action="/user-profile/mobile">%s<label for="mobile_number">%s</label><input id="mobile_number" name="mobile_number" type="tel"><label for="password">%s</label><input id="password" name="password" type="password"><button type="submit">%s</button></form>`,
			pageCtx.CSRFField(),
			templ.EscapeString(pageCtx.T("New mobile number")),
			templ.EscapeString(pageCtx.T("Confirm your password")),
			templ.EscapeString(pageCtx.T("Change mobile number"))); err != nil {
			return err
		}

		if view.PendingMobile {
			if err := fieldErrorList(w, view.FieldErrors, "code"); err != nil {
				return err
			}
			if _, err := fmt.Fprintf(w, `<form method="post" action="/user-profile/mobile/confirm">%s<label for="code">%s</label><input id="code" name="code" type="text" inputmode="numeric"><button type="submit">%s</button></form>`,
				pageCtx.CSRFField(),
				templ.EscapeString(pageCtx.T("Enter the code we sent to your new mobile number")),
				templ.EscapeString(pageCtx.T("Confirm"))); err != nil {
				return err
			}
		}
		return nil
	})
	return Page(pageCtx, pageCtx.T("Your profile"), body)
}

func fieldErrorList(w io.Writer, fieldErrors map[string][]string, field string) error {
	for _, message := range fieldErrors[field] {
		if _, err := fmt.Fprintf(w, `<p class="error-message">%s</p>`, templ.EscapeString(message)); err != nil {
			return err
		}
	}
	return nil
}
