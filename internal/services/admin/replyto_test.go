package admin

import (
	"net/http"
	"strings"
	"testing"

	"github.com/notifyops/notify-admin/internal/notify"
)

func TestReplyToPageListsActiveAddresses(t *testing.T) {
	app := newTestApp(t)
	_, service := app.seedUser()
	app.api.replyTos[service.ID] = []notify.ReplyToAddress{
		{ID: "rt-1", EmailAddress: "clinic@example.gov", IsDefault: true},
		{ID: "rt-2", EmailAddress: "retired@example.gov", Archived: true},
	}

	cookies := app.signIn(t)
	resp := app.do(t, http.MethodGet, "/services/"+service.ID+"/reply-to", nil, cookies)
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", resp.Code, resp.Body.String())
	}
	body := resp.Body.String()
	if !strings.Contains(body, "clinic@example.gov") {
		t.Fatalf("body missing active address: %s", body)
	}
	if strings.Contains(body, "retired@example.gov") {
		t.Fatalf("body lists an archived address: %s", body)
	}
}

func TestArchiveDefaultReplyToPromotesSurvivor(t *testing.T) {
	app := newTestApp(t)
	_, service := app.seedUser()
	app.api.replyTos[service.ID] = []notify.ReplyToAddress{
		{ID: "rt-1", EmailAddress: "clinic@example.gov", IsDefault: true},
		{ID: "rt-2", EmailAddress: "desk@example.gov"},
	}

	cookies := app.signIn(t)
	resp := app.do(t, http.MethodPost, "/services/"+service.ID+"/reply-to/rt-1/archive", nil, cookies)
	if resp.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302; body %s", resp.Code, resp.Body.String())
	}

	if len(app.api.archivedReplyTos) != 1 || app.api.archivedReplyTos[0] != "rt-1" {
		t.Fatalf("archived = %v, want [rt-1]", app.api.archivedReplyTos)
	}
	if len(app.api.replyToUpdates) != 1 {
		t.Fatalf("recorded %d reply-to updates, want 1", len(app.api.replyToUpdates))
	}
	update := app.api.replyToUpdates[0]
	if update.replyToID != "rt-2" || update.fields["is_default"] != true {
		t.Fatalf("update = %+v, want rt-2 promoted to default", update)
	}
}

func TestArchiveNonDefaultReplyToLeavesDefaultAlone(t *testing.T) {
	app := newTestApp(t)
	_, service := app.seedUser()
	app.api.replyTos[service.ID] = []notify.ReplyToAddress{
		{ID: "rt-1", EmailAddress: "clinic@example.gov", IsDefault: true},
		{ID: "rt-2", EmailAddress: "desk@example.gov"},
	}

	cookies := app.signIn(t)
	resp := app.do(t, http.MethodPost, "/services/"+service.ID+"/reply-to/rt-2/archive", nil, cookies)
	if resp.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", resp.Code)
	}
	if len(app.api.replyToUpdates) != 0 {
		t.Fatalf("recorded %d reply-to updates, want none", len(app.api.replyToUpdates))
	}
}

func TestArchiveUnknownReplyToIs404(t *testing.T) {
	app := newTestApp(t)
	_, service := app.seedUser()
	cookies := app.signIn(t)

	resp := app.do(t, http.MethodPost, "/services/"+service.ID+"/reply-to/rt-9/archive", nil, cookies)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.Code)
	}
}
