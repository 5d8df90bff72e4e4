package templates

import (
	"context"
	"strings"
	"testing"

	"golang.org/x/text/language"

	admini18n "github.com/notifyops/notify-admin/internal/services/admin/i18n"
)

func TestPageTagsEveryInlineScriptWithNonce(t *testing.T) {
	pageCtx := PageContext{Lang: "en", Nonce: "test-nonce-value"}
	var b strings.Builder
	if err := Page(pageCtx, "Welcome", nil).Render(context.Background(), &b); err != nil {
		t.Fatalf("render: %v", err)
	}
	got := b.String()

	scripts := strings.Count(got, "<script")
	tagged := strings.Count(got, `<script nonce="test-nonce-value"`)
	if scripts == 0 {
		t.Fatal("expected at least one script tag")
	}
	if scripts != tagged {
		t.Fatalf("%d script tags, %d nonce-tagged", scripts, tagged)
	}
}

func TestPageEscapesTitle(t *testing.T) {
	pageCtx := PageContext{Lang: "en"}
	var b strings.Builder
	if err := Page(pageCtx, `<script>alert(1)</script>`, nil).Render(context.Background(), &b); err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(b.String(), "<script>alert(1)</script>") {
		t.Fatal("title must be escaped")
	}
}

func TestComposePageTitle(t *testing.T) {
	if got := ComposePageTitle("Sign in"); got != "Sign in | Notify Admin" {
		t.Fatalf("ComposePageTitle = %q", got)
	}
	if got := ComposePageTitle(""); got != "Notify Admin" {
		t.Fatalf("ComposePageTitle = %q", got)
	}
}

func TestSignInPageKeepsEmailAndShowsError(t *testing.T) {
	pageCtx := PageContext{Lang: "en", Loc: admini18n.Printer(language.English)}
	form := SignInForm{EmailAddress: "valid@example.canada.ca", Error: "The email address or password you entered is incorrect"}
	var b strings.Builder
	if err := SignInPage(pageCtx, form).Render(context.Background(), &b); err != nil {
		t.Fatalf("render: %v", err)
	}
	got := b.String()
	if !strings.Contains(got, `value="valid@example.canada.ca"`) {
		t.Fatal("expected the email to be re-rendered")
	}
	if !strings.Contains(got, "incorrect") {
		t.Fatal("expected the error message")
	}
}

func TestFlashesRender(t *testing.T) {
	pageCtx := PageContext{Lang: "en", Flashes: []Flash{{Level: "error", Message: "This invite is for another email address"}}}
	var b strings.Builder
	if err := Page(pageCtx, "x", nil).Render(context.Background(), &b); err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(b.String(), "banner-error") {
		t.Fatal("expected an error banner")
	}
}
