package admin

import (
	"testing"

	"github.com/notifyops/notify-admin/internal/identity"
	"github.com/notifyops/notify-admin/internal/notify"
	"github.com/notifyops/notify-admin/internal/session"
)

func authzState(user *identity.User, service *notify.Service) *requestState {
	return &requestState{session: session.New(), user: user, service: service}
}

func TestAllowedContract(t *testing.T) {
	server := &Server{}
	member := &identity.User{
		ID:       "u1",
		Services: []string{"svc-1"},
		Permissions: map[string][]identity.Permission{
			"svc-1": {identity.PermissionManageService},
		},
	}
	admin := &identity.User{ID: "u2", PlatformAdmin: true}
	orgUser := &identity.User{ID: "u3", Organisations: []string{"org-1"}}

	tests := []struct {
		name        string
		state       *requestState
		serviceID   string
		orgID       string
		options     authzOptions
		permissions []identity.Permission
		want        bool
	}{
		{
			name:  "nil user denied",
			state: authzState(nil, nil), serviceID: "svc-1",
			want: false,
		},
		{
			name:  "platform admin allowed everywhere",
			state: authzState(admin, nil), serviceID: "svc-9",
			permissions: []identity.Permission{identity.PermissionManageService},
			want:        true,
		},
		{
			name:  "platform admin blocked when route restricts admin usage",
			state: authzState(admin, nil), serviceID: "svc-9",
			options: authzOptions{restrictAdminUsage: true},
			want:    false,
		},
		{
			name:  "org route checks org membership",
			state: authzState(orgUser, nil), orgID: "org-1",
			want: true,
		},
		{
			name:  "org route denies non-member",
			state: authzState(orgUser, nil), orgID: "org-2",
			want: false,
		},
		{
			name:  "no permissions means membership check",
			state: authzState(member, nil), serviceID: "svc-1",
			want: true,
		},
		{
			name:  "membership check fails for other service",
			state: authzState(member, nil), serviceID: "svc-2",
			want: false,
		},
		{
			name:  "permission present",
			state: authzState(member, nil), serviceID: "svc-1",
			permissions: []identity.Permission{identity.PermissionManageService},
			want:        true,
		},
		{
			name:  "permission absent",
			state: authzState(member, nil), serviceID: "svc-1",
			permissions: []identity.Permission{identity.PermissionManageAPIKeys},
			want:        false,
		},
		{
			name: "org fallback grants access to org-owned service",
			state: authzState(orgUser, &notify.Service{
				ID: "svc-5", OrganisationID: "org-1",
			}), serviceID: "svc-5",
			options:     authzOptions{allowOrgUser: true},
			permissions: []identity.Permission{identity.PermissionManageService},
			want:        true,
		},
		{
			name: "org fallback needs the option",
			state: authzState(orgUser, &notify.Service{
				ID: "svc-5", OrganisationID: "org-1",
			}), serviceID: "svc-5",
			permissions: []identity.Permission{identity.PermissionManageService},
			want:        false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := server.allowed(tt.state, tt.serviceID, tt.orgID, tt.options, tt.permissions)
			if got != tt.want {
				t.Fatalf("allowed = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAdminViewToggleSuspendsElevation(t *testing.T) {
	server := &Server{}
	admin := &identity.User{ID: "u2", PlatformAdmin: true}

	state := authzState(admin, nil)
	if !server.allowed(state, "svc-9", "", authzOptions{}, nil) {
		t.Fatal("admin should be allowed with the elevated view on")
	}
	state.session.DisablePlatformAdminView = true
	if server.allowed(state, "svc-9", "", authzOptions{}, nil) {
		t.Fatal("admin should be denied with the elevated view off")
	}
}

func TestRequirePermissionsPanicsOnUnknownPermission(t *testing.T) {
	server := &Server{}
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for an unknown permission")
		}
	}()
	server.requirePermissions(nil, authzOptions{}, identity.Permission("made_up"))
}
