package admin

import (
	"net/http"
	"net/mail"
	"strings"

	"github.com/notifyops/notify-admin/internal/identity"
	"github.com/notifyops/notify-admin/internal/notify"
	"github.com/notifyops/notify-admin/internal/services/admin/routepath"
	"github.com/notifyops/notify-admin/internal/services/admin/templates"
)

func (s *Server) handleTeamPage(w http.ResponseWriter, r *http.Request) {
	s.renderTeam(w, r, nil)
}

func (s *Server) renderTeam(w http.ResponseWriter, r *http.Request, fieldErrors map[string][]string) {
	state := stateFromRequest(r)

	members, err := s.api.GetUsersForService(r.Context(), state.service.ID)
	if err != nil {
		s.renderAPIError(w, r, err)
		return
	}
	folderRecords, err := s.api.GetTemplateFolders(r.Context(), state.service.ID)
	if err != nil {
		s.renderAPIError(w, r, err)
		return
	}
	folders := make([]identity.TemplateFolder, 0, len(folderRecords))
	for _, record := range folderRecords {
		folders = append(folders, identity.TemplateFolder{
			ID:                  record.ID,
			Name:                record.Name,
			ParentID:            record.ParentID,
			UsersWithPermission: record.UsersWithPermission,
		})
	}

	view := templates.TeamView{
		ServiceID:   state.service.ID,
		Folders:     identity.VisibleFolders(folders, state.user),
		FieldErrors: fieldErrors,
	}
	for _, member := range members {
		view.Members = append(view.Members, templates.TeamMember{
			Name:         member.Name,
			EmailAddress: member.EmailAddress,
			Permissions:  member.Permissions[state.service.ID],
		})
	}
	s.render(w, r, templates.TeamPage(s.pageContext(r), view))
}

// handleInviteTeamMember creates a pending invite; the API emails the signed
// link to the invitee.
func (s *Server) handleInviteTeamMember(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.renderError(w, r, http.StatusBadRequest)
		return
	}
	state := stateFromRequest(r)

	email := strings.ToLower(strings.TrimSpace(r.PostFormValue("email_address")))
	if _, err := mail.ParseAddress(email); err != nil {
		s.renderTeam(w, r, map[string][]string{"email_address": {"Enter a valid email address"}})
		return
	}

	permissions := make([]identity.Permission, 0, len(r.PostForm["permissions"]))
	for _, raw := range r.PostForm["permissions"] {
		permission := identity.Permission(raw)
		if _, ok := identity.KnownPermissions[permission]; !ok {
			continue
		}
		permissions = append(permissions, permission)
	}
	if len(permissions) == 0 {
		s.renderTeam(w, r, map[string][]string{"permissions": {"Select at least one permission"}})
		return
	}

	_, err := s.api.CreateInvitedUser(r.Context(), notify.CreateInviteInput{
		FromUserID:        state.user.ID,
		ServiceID:         state.service.ID,
		EmailAddress:      email,
		Permissions:       permissions,
		FolderPermissions: r.PostForm["folder_permissions"],
	})
	if err != nil {
		if isClientError(err) {
			s.renderTeam(w, r, map[string][]string{"email_address": {"This person has already been invited"}})
			return
		}
		s.renderAPIError(w, r, err)
		return
	}

	s.flash(r, "info", "Invitation sent to "+email)
	http.Redirect(w, r, routepath.ServiceTeam(state.service.ID), http.StatusFound)
}

// handleCancelInvite moves a pending invite to cancelled. The API rejects
// moves out of terminal states.
func (s *Server) handleCancelInvite(w http.ResponseWriter, r *http.Request) {
	state := stateFromRequest(r)
	inviteID := r.PathValue("inviteID")

	if err := s.api.UpdateInvitedUserStatus(r.Context(), state.service.ID, inviteID, identity.InviteStatusCancelled); err != nil {
		s.renderAPIError(w, r, err)
		return
	}

	s.flash(r, "info", "Invitation cancelled")
	http.Redirect(w, r, routepath.ServiceTeam(state.service.ID), http.StatusFound)
}
