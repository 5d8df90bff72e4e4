package templates

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"

	"github.com/notifyops/notify-admin/internal/notify"
)

func WelcomePage(pageCtx PageContext) templ.Component {
	body := templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, `<h1>%s</h1><p>%s</p><a class="button" href="/sign-in">%s</a>`,
			templ.EscapeString(pageCtx.T("Notify")),
			templ.EscapeString(pageCtx.T("Send emails and text messages to the people you serve")),
			templ.EscapeString(pageCtx.T("Sign in")))
		return err
	})
	return Page(pageCtx, "", body)
}

// DashboardView is the service landing page model.
type DashboardView struct {
	Service       *notify.Service
	TemplateCount int
	AdminView     bool
}

func DashboardPage(pageCtx PageContext, view DashboardView) templ.Component {
	body := templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, `<h1>%s</h1>`, templ.EscapeString(view.Service.Name)); err != nil {
			return err
		}
		if view.Service.Restricted {
			if _, err := fmt.Fprintf(w, `<div class="banner banner-info">%s</div>`,
				templ.EscapeString(pageCtx.T("Your service is in trial mode"))); err != nil {
				return err
			}
		}
		if view.AdminView {
			if _, err := fmt.Fprintf(w, `<div class="banner banner-admin">%s</div>`,
				templ.EscapeString(pageCtx.T("You are viewing this service as a platform admin"))); err != nil {
				return err
			}
		}
		_, err := fmt.Fprintf(w, `<p>%s</p>`,
			templ.EscapeString(pageCtx.T("%d templates", view.TemplateCount)))
		return err
	})
	return Page(pageCtx, view.Service.Name, body)
}

// WizardStepView is the generic model for one wizard page.
type WizardStepView struct {
	Title       string
	Action      string
	Step        string
	Fields      []WizardField
	FieldErrors map[string][]string
}

// WizardField is one input of a wizard step.
type WizardField struct {
	Name    string
	Label   string
	Value   string
	Type    string   // defaults to text
	Options []string // renders a select when non-empty
}

func WizardStepPage(pageCtx PageContext, view WizardStepView) templ.Component {
	body := templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, `<h1>%s</h1><form method="post" action=%q>%s<input type="hidden" name="current_step" value=%q>`,
			templ.EscapeString(pageCtx.T(view.Title)), view.Action, pageCtx.CSRFField(), templ.EscapeString(view.Step)); err != nil {
			return err
		}
		for _, field := range view.Fields {
			if _, err := fmt.Fprintf(w, `<label for=%q>%s</label>`, field.Name, templ.EscapeString(pageCtx.T(field.Label))); err != nil {
				return err
			}
			for _, message := range view.FieldErrors[field.Name] {
				if _, err := fmt.Fprintf(w, `<p class="error-message" data-field=%q>%s</p>`, field.Name, templ.EscapeString(pageCtx.T(message))); err != nil {
					return err
				}
			}
			if len(field.Options) > 0 {
				if _, err := fmt.Fprintf(w, `<select id=%q name=%q>`, field.Name, field.Name); err != nil {
					return err
				}
				for _, option := range field.Options {
					selected := ""
					if option == field.Value {
						selected = " selected"
					}
					if _, err := fmt.Fprintf(w, `<option value=%q%s>%s</option>`, templ.EscapeString(option), selected, templ.EscapeString(pageCtx.T(option))); err != nil {
						return err
					}
				}
				if _, err := io.WriteString(w, `</select>`); err != nil {
					return err
				}
				continue
			}
			inputType := field.Type
			if inputType == "" {
				inputType = "text"
			}
			if _, err := fmt.Fprintf(w, `<input id=%q name=%q type=%q value=%q>`, field.Name, field.Name, inputType, templ.EscapeString(field.Value)); err != nil {
				return err
			}
		}
		_, err := fmt.Fprintf(w, `<button type="submit">%s</button></form>`, templ.EscapeString(pageCtx.T("Continue")))
		return err
	})
	return Page(pageCtx, pageCtx.T(view.Title), body)
}

// ErrorPage renders the generic error page for the taxonomy's statuses.
func ErrorPage(pageCtx PageContext, status int, detail string) templ.Component {
	body := templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, `<h1>%d</h1><p>%s</p>`, status, templ.EscapeString(pageCtx.T(detail)))
		return err
	})
	return Page(pageCtx, pageCtx.T(detail), body)
}
