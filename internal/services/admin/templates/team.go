package templates

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"

	"github.com/notifyops/notify-admin/internal/identity"
)

// TeamMember is one row of the team page.
type TeamMember struct {
	Name         string
	EmailAddress string
	Permissions  []identity.Permission
}

// TeamView is the team management page model. Folders lists the template
// folders the inviter can grant access to.
type TeamView struct {
	ServiceID   string
	Members     []TeamMember
	Folders     []identity.VisibleFolder
	FieldErrors map[string][]string
}

// invitePermissions fixes the checkbox order on the invite form.
var invitePermissions = []struct {
	Permission identity.Permission
	Label      string
}{
	{identity.PermissionSendMessages, "Send messages"},
	{identity.PermissionManageService, "Manage settings and team"},
	{identity.PermissionManageTemplates, "Manage templates"},
	{identity.PermissionManageAPIKeys, "Manage API keys"},
	{identity.PermissionViewActivity, "View activity"},
}

func TeamPage(pageCtx PageContext, view TeamView) templ.Component {
	body := templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, `<h1>%s</h1><ul class="team-members">`, templ.EscapeString(pageCtx.T("Team members"))); err != nil {
			return err
		}
		for _, member := range view.Members {
			if _, err := fmt.Fprintf(w, `<li>%s <span class="email">%s</span>`,
				templ.EscapeString(member.Name), templ.EscapeString(member.EmailAddress)); err != nil {
				return err
			}
			for _, permission := range member.Permissions {
				if _, err := fmt.Fprintf(w, ` <span class="permission">%s</span>`, templ.EscapeString(string(permission))); err != nil {
					return err
				}
			}
			if _, err := io.WriteString(w, `</li>`); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, `</ul><h2>%s</h2>`, templ.EscapeString(pageCtx.T("Invite a team member"))); err != nil {
			return err
		}

		for _, message := range view.FieldErrors["email_address"] {
			if _, err := fmt.Fprintf(w, `<p class="error-message" data-field="email_address">%s</p>`, templ.EscapeString(pageCtx.T(message))); err != nil {
				return err
			}
		}
		for _, message := range view.FieldErrors["permissions"] {
			if _, err := fmt.Fprintf(w, `<p class="error-message" data-field="permissions">%s</p>`, templ.EscapeString(pageCtx.T(message))); err != nil {
				return err
			}
		}

		if _, err := fmt.Fprintf(w, `<form method="post" action=%q>%s`+
			`<label for="email_address">%s</label>`+
			`<input id="email_address" name="email_address" type="email" autocomplete="off">`,
			"/services/"+view.ServiceID+"/users/invite",
			pageCtx.CSRFField(),
			templ.EscapeString(pageCtx.T("Email address"))); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, `<fieldset><legend>%s</legend>`, templ.EscapeString(pageCtx.T("Permissions"))); err != nil {
			return err
		}
		for _, entry := range invitePermissions {
			if _, err := fmt.Fprintf(w, `<label><input type="checkbox" name="permissions" value=%q> %s</label>`,
				string(entry.Permission), templ.EscapeString(pageCtx.T(entry.Label))); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, `</fieldset>`); err != nil {
			return err
		}
		if len(view.Folders) > 0 {
			if _, err := fmt.Fprintf(w, `<fieldset><legend>%s</legend>`, templ.EscapeString(pageCtx.T("Folders this team member can see"))); err != nil {
				return err
			}
			for _, folder := range view.Folders {
				if _, err := fmt.Fprintf(w, `<label><input type="checkbox" name="folder_permissions" value=%q> %s</label>`,
					templ.EscapeString(folder.ID), templ.EscapeString(folder.DisplayName)); err != nil {
					return err
				}
			}
			if _, err := io.WriteString(w, `</fieldset>`); err != nil {
				return err
			}
		}
		_, err := fmt.Fprintf(w, `<button type="submit">%s</button></form>`, templ.EscapeString(pageCtx.T("Send invitation")))
		return err
	})
	return Page(pageCtx, pageCtx.T("Team members"), body)
}

// LogoView is the service logo page model.
type LogoView struct {
	ServiceID  string
	CurrentURL string
	Error      string
}

func LogoPage(pageCtx PageContext, view LogoView) templ.Component {
	body := templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, `<h1>%s</h1>`, templ.EscapeString(pageCtx.T("Service logo"))); err != nil {
			return err
		}
		if view.CurrentURL != "" {
			if _, err := fmt.Fprintf(w, `<img class="service-logo" src=%q alt="">`, templ.EscapeString(view.CurrentURL)); err != nil {
				return err
			}
		}
		if view.Error != "" {
			if _, err := fmt.Fprintf(w, `<p class="error-message" data-field="logo">%s</p>`, templ.EscapeString(pageCtx.T(view.Error))); err != nil {
				return err
			}
		}
		_, err := fmt.Fprintf(w, `<form method="post" action=%q enctype="multipart/form-data">%s`+
			`<label for="logo">%s</label>`+
			`<input id="logo" name="logo" type="file" accept="image/png,image/svg+xml">`+
			`<button type="submit">%s</button></form>`,
			"/services/"+view.ServiceID+"/logo",
			pageCtx.CSRFField(),
			templ.EscapeString(pageCtx.T("Upload a logo")),
			templ.EscapeString(pageCtx.T("Upload")))
		return err
	})
	return Page(pageCtx, pageCtx.T("Service logo"), body)
}
