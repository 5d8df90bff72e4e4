package session

import (
	"testing"
)

func TestClearTransientKeepsPreferences(t *testing.T) {
	s := New()
	s.UserID = "user-1"
	s.UserLang = "fr"
	s.DisablePlatformAdminView = true
	s.UserDetails = &PendingUser{ID: "user-2", EmailAddress: "new@example.canada.ca"}
	s.InvitedUserID = "invite-1"
	s.ResetEmailAddress = "reset@example.canada.ca"
	s.NewEmailAddress = "change@example.canada.ca"
	s.MobileChangePasswordOK = true
	s.RequiresEmailLogin = true

	s.ClearTransient()

	if s.UserDetails != nil || s.InvitedUserID != "" || s.ResetEmailAddress != "" {
		t.Fatal("auth-flow slots must be cleared")
	}
	if s.NewEmailAddress != "" || s.MobileChangePasswordOK || s.RequiresEmailLogin {
		t.Fatal("change-flow slots must be cleared")
	}
	if s.UserLang != "fr" {
		t.Fatalf("UserLang = %q, want %q", s.UserLang, "fr")
	}
	if !s.DisablePlatformAdminView {
		t.Fatal("view toggle must survive")
	}
	if s.UserID != "user-1" {
		t.Fatal("user binding must survive")
	}
}

func TestRotateChangesID(t *testing.T) {
	s := New()
	s.UserID = "user-1"
	before := s.ID

	s.Rotate()

	if s.ID == before {
		t.Fatal("expected a new id")
	}
	if s.UserID != "user-1" {
		t.Fatal("slots must survive rotation")
	}
}

func TestWizardCreatesOnFirstUse(t *testing.T) {
	s := New()
	state := s.Wizard("add_service_form")
	state.CurrentStep = "choose_name"
	state.Steps["choose_name"] = map[string]any{"name": "Vaccination reminders"}

	again := s.Wizard("add_service_form")
	if again.CurrentStep != "choose_name" {
		t.Fatalf("CurrentStep = %q, want %q", again.CurrentStep, "choose_name")
	}

	s.ClearWizard("add_service_form")
	if s.Wizard("add_service_form").CurrentStep != "" {
		t.Fatal("expected cleared wizard state")
	}
}

func TestNilSessionHelpers(t *testing.T) {
	var s *Session
	if s.SignedIn() {
		t.Fatal("nil session must not be signed in")
	}
	s.ClearTransient()
	s.Rotate()
}
