package identity

import "strings"

// TemplateFolder is a node in a service's template folder tree.
type TemplateFolder struct {
	ID                  string   `json:"id"`
	Name                string   `json:"name"`
	ParentID            string   `json:"parent_id"`
	UsersWithPermission []string `json:"users_with_permission"`
}

// VisibleFolder is a folder the user may open, with its display name
// expanded through any invisible ancestors.
type VisibleFolder struct {
	ID          string
	DisplayName string
}

// CanSeeFolder reports whether the user may open the folder. Platform
// admins see everything; other users must appear in the folder's permission
// list. Root-level templates sit outside any folder and are always visible.
func (u *User) CanSeeFolder(folder TemplateFolder) bool {
	if u == nil {
		return false
	}
	if u.PlatformAdmin {
		return true
	}
	for _, id := range folder.UsersWithPermission {
		if id == u.ID {
			return true
		}
	}
	return false
}

// VisibleFolders flattens a folder tree for display. A visible leaf under an
// invisible parent keeps its ancestor chain in the display name, joined as
// "Invisible parent › Leaf", so the hierarchy stays legible without
// exposing links to folders the user cannot open.
func VisibleFolders(folders []TemplateFolder, user *User) []VisibleFolder {
	byID := make(map[string]TemplateFolder, len(folders))
	for _, folder := range folders {
		byID[folder.ID] = folder
	}

	visible := make([]VisibleFolder, 0, len(folders))
	for _, folder := range folders {
		if !user.CanSeeFolder(folder) {
			continue
		}
		visible = append(visible, VisibleFolder{
			ID:          folder.ID,
			DisplayName: folderDisplayName(folder, byID, user),
		})
	}
	return visible
}

// folderDisplayName walks ancestors from the leaf up, including the names of
// invisible ancestors so the path reads naturally.
func folderDisplayName(folder TemplateFolder, byID map[string]TemplateFolder, user *User) string {
	segments := []string{folder.Name}
	parentID := folder.ParentID
	for parentID != "" {
		parent, ok := byID[parentID]
		if !ok {
			break
		}
		if !user.CanSeeFolder(parent) {
			segments = append([]string{parent.Name}, segments...)
		}
		parentID = parent.ParentID
	}
	return strings.Join(segments, " › ")
}
