package templates

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"
)

// SignInForm carries re-render state for the sign-in page.
type SignInForm struct {
	EmailAddress string
	Error        string
	Next         string
}

func SignInPage(pageCtx PageContext, form SignInForm) templ.Component {
	body := templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, `<h1>%s</h1>`, templ.EscapeString(pageCtx.T("Sign in"))); err != nil {
			return err
		}
		if form.Error != "" {
			if _, err := fmt.Fprintf(w, `<p class="error-message">%s</p>`, templ.EscapeString(form.Error)); err != nil {
				return err
			}
		}
		action := "/sign-in"
		if form.Next != "" {
			action += "?next=" + templ.EscapeString(form.Next)
		}
		_, err := fmt.Fprintf(w, `<form method="post" action=%q>%s`+
			`<label for="email_address">Email address</label>`+
			`<input id="email_address" name="email_address" type="email" autocomplete="email" value=%q>`+
			`<label for="password">Password</label>`+
			`<input id="password" name="password" type="password" autocomplete="current-password">`+
			`<button type="submit">%s</button>`+
			`</form>`,
			action, pageCtx.CSRFField(), templ.EscapeString(form.EmailAddress), templ.EscapeString(pageCtx.T("Sign in")))
		return err
	})
	return Page(pageCtx, pageCtx.T("Sign in"), body)
}

// TwoFactorForm carries re-render state for a 2FA code page.
type TwoFactorForm struct {
	Channel            string // "sms" or "email"
	RequiresEmailLogin bool
	Error              string
}

func TwoFactorPage(pageCtx PageContext, form TwoFactorForm) templ.Component {
	body := templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		heading := "Check your phone"
		if form.Channel == "email" {
			heading = "Check your email"
		}
		if _, err := fmt.Fprintf(w, `<h1>%s</h1>`, templ.EscapeString(pageCtx.T(heading))); err != nil {
			return err
		}
		if form.RequiresEmailLogin {
			if _, err := fmt.Fprintf(w, `<div class="banner banner-info">%s</div>`,
				templ.EscapeString(pageCtx.T("We sent the code by email because it has been a while since your last email sign-in"))); err != nil {
				return err
			}
		}
		if form.Error != "" {
			if _, err := fmt.Fprintf(w, `<p class="error-message">%s</p>`, templ.EscapeString(form.Error)); err != nil {
				return err
			}
		}
		_, err := fmt.Fprintf(w, `<form method="post">%s`+
			`<label for="code">Security code</label>`+
			`<input id="code" name="code" type="text" inputmode="numeric" autocomplete="one-time-code">`+
			`<button type="submit">Continue</button>`+
			`</form>`, pageCtx.CSRFField())
		return err
	})
	return Page(pageCtx, pageCtx.T("Security code"), body)
}

// RegisterForm carries re-render state for the registration page. When the
// registration comes from an invite the email field is read-only.
type RegisterForm struct {
	Name         string
	EmailAddress string
	Mobile       string
	EmailLocked  bool
	FieldErrors  map[string][]string
}

func RegisterPage(pageCtx PageContext, form RegisterForm) templ.Component {
	body := templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, `<h1>%s</h1><form method="post">%s`, templ.EscapeString(pageCtx.T("Create an account")), pageCtx.CSRFField()); err != nil {
			return err
		}
		if err := textInput(w, pageCtx, "name", "Full name", form.Name, false, form.FieldErrors); err != nil {
			return err
		}
		if err := textInput(w, pageCtx, "email_address", "Email address", form.EmailAddress, form.EmailLocked, form.FieldErrors); err != nil {
			return err
		}
		if err := textInput(w, pageCtx, "mobile_number", "Mobile number (optional)", form.Mobile, false, form.FieldErrors); err != nil {
			return err
		}
		if err := textInput(w, pageCtx, "password", "Password", "", false, form.FieldErrors); err != nil {
			return err
		}
		_, err := fmt.Fprintf(w, `<button type="submit">%s</button></form>`, templ.EscapeString(pageCtx.T("Continue")))
		return err
	})
	return Page(pageCtx, pageCtx.T("Create an account"), body)
}

func textInput(w io.Writer, pageCtx PageContext, name, label, value string, readonly bool, fieldErrors map[string][]string) error {
	inputType := "text"
	switch name {
	case "password":
		inputType = "password"
	case "email_address":
		inputType = "email"
	}
	if _, err := fmt.Fprintf(w, `<label for=%q>%s</label>`, name, templ.EscapeString(pageCtx.T(label))); err != nil {
		return err
	}
	for _, message := range fieldErrors[name] {
		if _, err := fmt.Fprintf(w, `<p class="error-message" data-field=%q>%s</p>`, name, templ.EscapeString(pageCtx.T(message))); err != nil {
			return err
		}
	}
	attrs := ""
	if readonly {
		attrs = " readonly"
	}
	_, err := fmt.Fprintf(w, `<input id=%q name=%q type=%q value=%q%s>`, name, name, inputType, templ.EscapeString(value), attrs)
	return err
}

// NoticePage renders a heading and one paragraph, used for "check your
// email" style interstitials.
func NoticePage(pageCtx PageContext, title, detail string) templ.Component {
	body := templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, `<h1>%s</h1><p>%s</p>`,
			templ.EscapeString(pageCtx.T(title)), templ.EscapeString(pageCtx.T(detail)))
		return err
	})
	return Page(pageCtx, pageCtx.T(title), body)
}
