package admin

import (
	"bytes"
	"context"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/notifyops/notify-admin/internal/cache"
	"github.com/notifyops/notify-admin/internal/identity"
	"github.com/notifyops/notify-admin/internal/notify"
	"github.com/notifyops/notify-admin/internal/session"
	"github.com/notifyops/notify-admin/internal/token"
)

// stubAPI fakes the slices of the Notifications API the handlers touch.
// Anything a test does not wire up panics via the embedded nil interface.
type stubAPI struct {
	cache.API

	users        map[string]*identity.User
	services     map[string]*notify.Service
	templates    map[string][]notify.Template
	invites      map[string]*identity.InvitedUser
	serviceUsers map[string][]*identity.User
	folders      map[string][]notify.TemplateFolderRecord
	replyTos     map[string][]notify.ReplyToAddress

	verifyPasswordErr error
	sentCodes         []sentCode
	activated         []string
	acceptedInvites   []string
	createdServices   []notify.CreateServiceInput
	smsLimits         []string
	smsLimitErr       error
	alreadyRegistered []string
	resetEmails       []string
	userUpdates       []map[string]any
	createdInvites    []notify.CreateInviteInput
	statusUpdates     []inviteStatusUpdate
	archivedReplyTos  []string
	replyToUpdates    []replyToUpdate
}

type replyToUpdate struct {
	replyToID string
	fields    map[string]any
}

type inviteStatusUpdate struct {
	serviceID, inviteID string
	status              identity.InviteStatus
}

type sentCode struct {
	userID, codeType, to string
}

func notFoundErr(url string) *notify.APIError {
	return &notify.APIError{StatusCode: http.StatusNotFound, URL: url, Message: "not found"}
}

func (a *stubAPI) GetUser(_ context.Context, userID string) (*identity.User, error) {
	if user, ok := a.users[userID]; ok {
		copied := *user
		return &copied, nil
	}
	return nil, notFoundErr("/user/" + userID)
}

func (a *stubAPI) GetUserByEmail(_ context.Context, email string) (*identity.User, error) {
	for _, user := range a.users {
		if strings.EqualFold(user.EmailAddress, email) {
			copied := *user
			return &copied, nil
		}
	}
	return nil, notFoundErr("/user/email")
}

func (a *stubAPI) VerifyPassword(_ context.Context, userID, password string) error {
	return a.verifyPasswordErr
}

func (a *stubAPI) SendVerifyCode(_ context.Context, userID, codeType, to string) error {
	a.sentCodes = append(a.sentCodes, sentCode{userID, codeType, to})
	return nil
}

func (a *stubAPI) CheckVerifyCode(_ context.Context, userID, code, codeType string) (*identity.User, error) {
	if code != "12345" {
		return nil, &notify.APIError{StatusCode: http.StatusBadRequest, URL: "/verify", Message: "Code not found"}
	}
	user, ok := a.users[userID]
	if !ok {
		return nil, notFoundErr("/user/" + userID)
	}
	user.CurrentSessionID = "api-session-1"
	copied := *user
	return &copied, nil
}

func (a *stubAPI) ActivateUser(_ context.Context, userID string) (*identity.User, error) {
	user, ok := a.users[userID]
	if !ok {
		return nil, notFoundErr("/user/" + userID)
	}
	user.State = identity.StateActive
	a.activated = append(a.activated, userID)
	copied := *user
	return &copied, nil
}

func (a *stubAPI) GetService(_ context.Context, serviceID string) (*notify.Service, error) {
	if service, ok := a.services[serviceID]; ok {
		copied := *service
		return &copied, nil
	}
	return nil, notFoundErr("/service/" + serviceID)
}

func (a *stubAPI) GetServiceTemplates(_ context.Context, serviceID string) ([]notify.Template, error) {
	return a.templates[serviceID], nil
}

func (a *stubAPI) GetInvitedUser(_ context.Context, inviteID string) (*identity.InvitedUser, error) {
	if invite, ok := a.invites[inviteID]; ok {
		copied := *invite
		return &copied, nil
	}
	return nil, notFoundErr("/invite/" + inviteID)
}

func (a *stubAPI) AcceptInvite(_ context.Context, inviteID, userID string) error {
	a.acceptedInvites = append(a.acceptedInvites, inviteID)
	return nil
}

func (a *stubAPI) GetUsersForService(_ context.Context, serviceID string) ([]*identity.User, error) {
	return a.serviceUsers[serviceID], nil
}

func (a *stubAPI) GetTemplateFolders(_ context.Context, serviceID string) ([]notify.TemplateFolderRecord, error) {
	return a.folders[serviceID], nil
}

func (a *stubAPI) CreateInvitedUser(_ context.Context, input notify.CreateInviteInput) (*identity.InvitedUser, error) {
	a.createdInvites = append(a.createdInvites, input)
	return &identity.InvitedUser{
		ID:           "invite-new",
		FromUserID:   input.FromUserID,
		ServiceID:    input.ServiceID,
		EmailAddress: input.EmailAddress,
		Permissions:  input.Permissions,
		Status:       identity.InviteStatusPending,
	}, nil
}

func (a *stubAPI) UpdateInvitedUserStatus(_ context.Context, serviceID, inviteID string, status identity.InviteStatus) error {
	a.statusUpdates = append(a.statusUpdates, inviteStatusUpdate{serviceID, inviteID, status})
	return nil
}

func (a *stubAPI) GetReplyToAddresses(_ context.Context, serviceID string) ([]notify.ReplyToAddress, error) {
	return a.replyTos[serviceID], nil
}

func (a *stubAPI) UpdateReplyToAddress(_ context.Context, serviceID, replyToID string, fields map[string]any) error {
	a.replyToUpdates = append(a.replyToUpdates, replyToUpdate{replyToID, fields})
	return nil
}

func (a *stubAPI) ArchiveReplyToAddress(_ context.Context, serviceID, replyToID string) error {
	a.archivedReplyTos = append(a.archivedReplyTos, replyToID)
	return nil
}

type testApp struct {
	handler http.Handler
	server  *Server
	api     *stubAPI
	cache   *cache.Client
	tokens  *token.Signer
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	api := &stubAPI{
		users:        map[string]*identity.User{},
		services:     map[string]*notify.Service{},
		templates:    map[string][]notify.Template{},
		invites:      map[string]*identity.InvitedUser{},
		serviceUsers: map[string][]*identity.User{},
		folders:      map[string][]notify.TemplateFolderRecord{},
		replyTos:     map[string][]notify.ReplyToAddress{},
	}
	cacheClient := cache.NewClient(api, cache.NewMemoryStore())

	sessions, err := session.NewManager(session.Config{
		Store:  session.NewMemoryStore(),
		Secret: "test-session-secret",
	})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	tokens, err := token.NewSigner("test-token-secret", nil)
	if err != nil {
		t.Fatalf("NewSigner: %v", err)
	}
	server, err := NewServer(Config{
		HTTPAddr:    "127.0.0.1:0",
		API:         cacheClient,
		Sessions:    sessions,
		Tokens:      tokens,
		AssetDomain: "https://assets.example.gov",
		StaticDir:   t.TempDir(),
	})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return &testApp{
		handler: server.Handler(t.TempDir()),
		server:  server,
		api:     api,
		cache:   cacheClient,
		tokens:  tokens,
	}
}

// seedUser installs an active sms_auth user who belongs to one service and
// may manage it.
func (app *testApp) seedUser() (*identity.User, *notify.Service) {
	service := &notify.Service{
		ID:         "svc-1",
		Name:       "Flu Clinic Reminders",
		Active:     true,
		Restricted: true,
	}
	user := &identity.User{
		ID:                "user-1",
		Name:              "Pat Doe",
		EmailAddress:      "pat@example.gov",
		MobileNumber:      "+16135550123",
		AuthType:          identity.AuthTypeSMS,
		State:             identity.StateActive,
		EmailLastVerified: time.Now().Add(-24 * time.Hour),
		Services:          []string{service.ID},
		Permissions: map[string][]identity.Permission{
			service.ID: {identity.PermissionManageService},
		},
	}
	app.api.users[user.ID] = user
	app.api.services[service.ID] = service
	return user, service
}

func (app *testApp) do(t *testing.T, method, target string, form url.Values, cookies []*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	if method == http.MethodPost {
		if form == nil {
			form = url.Values{}
		}
		formToken, extra := app.formToken(t, cookies)
		form.Set("csrf_token", formToken)
		cookies = mergeCookies(cookies, extra)
	}
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	r := httptest.NewRequest(method, target, body)
	if form != nil {
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	for _, cookie := range cookies {
		r.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	app.handler.ServeHTTP(w, r)
	return w
}

var formTokenPattern = regexp.MustCompile(`name="csrf_token" value="([^"]+)"`)

// formToken loads the sign-in page to learn the token bound to the cookie
// jar, returning any cookies the page set on the way.
func (app *testApp) formToken(t *testing.T, cookies []*http.Cookie) (string, []*http.Cookie) {
	t.Helper()
	r := httptest.NewRequest(http.MethodGet, "/sign-in", nil)
	for _, cookie := range cookies {
		r.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	app.handler.ServeHTTP(w, r)
	match := formTokenPattern.FindStringSubmatch(w.Body.String())
	if match == nil {
		t.Fatalf("sign-in page has no form token: %s", w.Body.String())
	}
	return match[1], w.Result().Cookies()
}

// mergeCookies layers later responses over earlier ones by cookie name.
func mergeCookies(sets ...[]*http.Cookie) []*http.Cookie {
	byName := map[string]*http.Cookie{}
	var order []string
	for _, set := range sets {
		for _, cookie := range set {
			if _, seen := byName[cookie.Name]; !seen {
				order = append(order, cookie.Name)
			}
			byName[cookie.Name] = cookie
		}
	}
	merged := make([]*http.Cookie, 0, len(order))
	for _, name := range order {
		merged = append(merged, byName[name])
	}
	return merged
}

// signIn drives the credential and 2FA legs and returns the bound cookies.
func (app *testApp) signIn(t *testing.T) []*http.Cookie {
	t.Helper()
	resp := app.do(t, http.MethodPost, "/sign-in", url.Values{
		"email_address": {"pat@example.gov"},
		"password":      {"correct horse battery staple"},
	}, nil)
	if resp.Code != http.StatusFound {
		t.Fatalf("sign-in status = %d, want 302; body %s", resp.Code, resp.Body.String())
	}
	cookies := resp.Result().Cookies()

	resp = app.do(t, http.MethodPost, resp.Header().Get("Location"), url.Values{"code": {"12345"}}, cookies)
	if resp.Code != http.StatusFound {
		t.Fatalf("2fa status = %d, want 302; body %s", resp.Code, resp.Body.String())
	}
	return mergeCookies(cookies, resp.Result().Cookies())
}

func TestSignInWithSMSTwoFactor(t *testing.T) {
	app := newTestApp(t)
	user, service := app.seedUser()

	resp := app.do(t, http.MethodPost, "/sign-in", url.Values{
		"email_address": {"  Pat@Example.GOV "},
		"password":      {"correct horse battery staple"},
	}, nil)
	if resp.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", resp.Code)
	}
	if got := resp.Header().Get("Location"); got != "/two-factor-sms-sent" {
		t.Fatalf("Location = %q, want /two-factor-sms-sent", got)
	}
	if len(app.api.sentCodes) != 1 {
		t.Fatalf("sent %d codes, want 1", len(app.api.sentCodes))
	}
	if got := app.api.sentCodes[0]; got.codeType != "sms" || got.to != user.MobileNumber {
		t.Fatalf("sent code = %+v, want sms to %s", got, user.MobileNumber)
	}

	cookies := resp.Result().Cookies()
	resp = app.do(t, http.MethodPost, "/two-factor-sms-sent", url.Values{"code": {"12345"}}, cookies)
	if resp.Code != http.StatusFound {
		t.Fatalf("2fa status = %d, want 302", resp.Code)
	}
	if got, want := resp.Header().Get("Location"), "/services/"+service.ID; got != want {
		t.Fatalf("Location = %q, want %q", got, want)
	}
}

func TestSignInWrongCodeRejected(t *testing.T) {
	app := newTestApp(t)
	app.seedUser()

	resp := app.do(t, http.MethodPost, "/sign-in", url.Values{
		"email_address": {"pat@example.gov"},
		"password":      {"correct horse battery staple"},
	}, nil)
	cookies := resp.Result().Cookies()

	resp = app.do(t, http.MethodPost, "/two-factor-sms-sent", url.Values{"code": {"99999"}}, cookies)
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 re-render", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "security code you entered is incorrect") {
		t.Fatalf("body missing code error: %s", resp.Body.String())
	}
}

func TestSignInBlockedUserGetsGenericError(t *testing.T) {
	app := newTestApp(t)
	user, _ := app.seedUser()
	user.Blocked = true

	resp := app.do(t, http.MethodPost, "/sign-in", url.Values{
		"email_address": {"pat@example.gov"},
		"password":      {"correct horse battery staple"},
	}, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), genericSignInError) {
		t.Fatalf("body missing generic error: %s", resp.Body.String())
	}
	if len(app.api.sentCodes) != 0 {
		t.Fatalf("sent %d codes for a blocked user, want 0", len(app.api.sentCodes))
	}
}

func TestSignInUnknownEmailGetsSameError(t *testing.T) {
	app := newTestApp(t)
	app.seedUser()

	resp := app.do(t, http.MethodPost, "/sign-in", url.Values{
		"email_address": {"nobody@example.gov"},
		"password":      {"whatever password"},
	}, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), genericSignInError) {
		t.Fatalf("body missing generic error: %s", resp.Body.String())
	}
}

func TestStaleEmailVerificationFallsBackToEmailCode(t *testing.T) {
	app := newTestApp(t)
	user, _ := app.seedUser()
	user.EmailLastVerified = time.Now().Add(-40 * 24 * time.Hour)

	resp := app.do(t, http.MethodPost, "/sign-in", url.Values{
		"email_address": {"pat@example.gov"},
		"password":      {"correct horse battery staple"},
	}, nil)
	if got := resp.Header().Get("Location"); got != "/two-factor-email-sent" {
		t.Fatalf("Location = %q, want /two-factor-email-sent", got)
	}
	if got := app.api.sentCodes[0]; got.codeType != "email" || got.to != user.EmailAddress {
		t.Fatalf("sent code = %+v, want email to %s", got, user.EmailAddress)
	}
}

func TestProtectedRouteRedirectsAnonymous(t *testing.T) {
	app := newTestApp(t)
	app.seedUser()

	resp := app.do(t, http.MethodGet, "/services/svc-1", nil, nil)
	if resp.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", resp.Code)
	}
	location := resp.Header().Get("Location")
	if !strings.HasPrefix(location, "/sign-in?next=") {
		t.Fatalf("Location = %q, want sign-in with next", location)
	}
}

func TestDashboardAfterSignIn(t *testing.T) {
	app := newTestApp(t)
	_, service := app.seedUser()
	app.api.templates[service.ID] = []notify.Template{{ID: "tpl-1", Name: "Appointment reminder"}}

	cookies := app.signIn(t)
	resp := app.do(t, http.MethodGet, "/services/"+service.ID, nil, cookies)
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", resp.Code, resp.Body.String())
	}
	body := resp.Body.String()
	if !strings.Contains(body, service.Name) {
		t.Fatalf("body missing service name: %s", body)
	}
	if !strings.Contains(body, "trial mode") {
		t.Fatalf("body missing trial banner: %s", body)
	}
}

func TestOtherBrowserSignInInvalidatesSession(t *testing.T) {
	app := newTestApp(t)
	user, service := app.seedUser()

	cookies := app.signIn(t)

	// A login elsewhere rotates the API-side session id.
	user.CurrentSessionID = "api-session-2"

	resp := app.do(t, http.MethodGet, "/services/"+service.ID, nil, cookies)
	if resp.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", resp.Code)
	}
	if !strings.HasPrefix(resp.Header().Get("Location"), "/sign-in?next=") {
		t.Fatalf("Location = %q, want sign-in redirect", resp.Header().Get("Location"))
	}

	// The flash explains the sign-out on the next page view.
	resp = app.do(t, http.MethodGet, "/sign-in", nil, mergeCookies(cookies, resp.Result().Cookies()))
	if !strings.Contains(resp.Body.String(), "signed in on another browser") {
		t.Fatalf("body missing other-browser banner: %s", resp.Body.String())
	}
}

func TestInvitationEmailMismatchForbidden(t *testing.T) {
	app := newTestApp(t)
	app.seedUser()
	app.api.invites["invite-1"] = &identity.InvitedUser{
		ID:           "invite-1",
		ServiceID:    "svc-2",
		EmailAddress: "someone.else@example.gov",
		Status:       identity.InviteStatusPending,
	}
	signed, err := app.tokens.Sign(token.PurposeServiceInvite, map[string]string{"invited_user_id": "invite-1"})
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	cookies := app.signIn(t)
	resp := app.do(t, http.MethodGet, "/invitation/"+signed, nil, cookies)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", resp.Code)
	}
	if len(app.api.acceptedInvites) != 0 {
		t.Fatalf("invite accepted despite email mismatch")
	}
}

func TestInvitationMatchingEmailAccepted(t *testing.T) {
	app := newTestApp(t)
	user, _ := app.seedUser()
	app.api.invites["invite-2"] = &identity.InvitedUser{
		ID:           "invite-2",
		ServiceID:    "svc-2",
		EmailAddress: user.EmailAddress,
		Status:       identity.InviteStatusPending,
	}
	signed, err := app.tokens.Sign(token.PurposeServiceInvite, map[string]string{"invited_user_id": "invite-2"})
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	cookies := app.signIn(t)
	resp := app.do(t, http.MethodGet, "/invitation/"+signed, nil, cookies)
	if resp.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302; body %s", resp.Code, resp.Body.String())
	}
	if got := resp.Header().Get("Location"); got != "/services/svc-2" {
		t.Fatalf("Location = %q, want /services/svc-2", got)
	}
	if len(app.api.acceptedInvites) != 1 || app.api.acceptedInvites[0] != "invite-2" {
		t.Fatalf("acceptedInvites = %v, want [invite-2]", app.api.acceptedInvites)
	}
}

func TestCancelledInvitationGone(t *testing.T) {
	app := newTestApp(t)
	app.api.invites["invite-3"] = &identity.InvitedUser{
		ID:           "invite-3",
		ServiceID:    "svc-2",
		EmailAddress: "new@example.gov",
		Status:       identity.InviteStatusCancelled,
	}
	signed, err := app.tokens.Sign(token.PurposeServiceInvite, map[string]string{"invited_user_id": "invite-3"})
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	resp := app.do(t, http.MethodGet, "/invitation/"+signed, nil, nil)
	if resp.Code != http.StatusGone {
		t.Fatalf("status = %d, want 410", resp.Code)
	}
}

func TestTamperedInvitationTokenRejected(t *testing.T) {
	app := newTestApp(t)

	resp := app.do(t, http.MethodGet, "/invitation/not-a-real-token", nil, nil)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.Code)
	}
}

func TestUseCasePersistence(t *testing.T) {
	app := newTestApp(t)
	_, service := app.seedUser()
	cookies := app.signIn(t)

	resp := app.do(t, http.MethodPost, "/services/"+service.ID+"/use-case", url.Values{
		"current_step":      {"about-notifications"},
		"exact_daily_sms":   {"10"},
		"exact_daily_email": {"20"},
	}, cookies)
	if resp.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302; body %s", resp.Code, resp.Body.String())
	}

	ctx := context.Background()
	data, ok := app.cache.UseCaseData(ctx, service.ID)
	if !ok {
		t.Fatal("use case data not stored")
	}
	if got := data["exact_daily_sms"]; got != float64(10) && got != 10 {
		t.Fatalf("exact_daily_sms = %v, want 10", got)
	}
	if got := data["exact_daily_email"]; got != float64(20) && got != 20 {
		t.Fatalf("exact_daily_email = %v, want 20", got)
	}
	if !app.cache.HasSubmittedUseCase(ctx, service.ID) {
		t.Fatal("HasSubmittedUseCase = false after final step")
	}

	// Writing the data again clears the submission marker.
	if err := app.cache.StoreUseCaseData(ctx, service.ID, map[string]any{"purpose": "reminders"}); err != nil {
		t.Fatalf("StoreUseCaseData: %v", err)
	}
	if app.cache.HasSubmittedUseCase(ctx, service.ID) {
		t.Fatal("HasSubmittedUseCase = true after rewrite")
	}
}

func TestAcceptTerms(t *testing.T) {
	app := newTestApp(t)
	_, service := app.seedUser()
	cookies := app.signIn(t)

	resp := app.do(t, http.MethodPost, "/services/"+service.ID+"/accept-terms", nil, cookies)
	if resp.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", resp.Code)
	}
	if !app.cache.TermsAccepted(context.Background(), service.ID) {
		t.Fatal("TermsAccepted = false after accept")
	}
}

func TestUnknownServiceIs404(t *testing.T) {
	app := newTestApp(t)
	app.seedUser()
	cookies := app.signIn(t)

	resp := app.do(t, http.MethodGet, "/services/missing", nil, cookies)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.Code)
	}
}

func TestNonMemberForbidden(t *testing.T) {
	app := newTestApp(t)
	app.seedUser()
	app.api.services["svc-9"] = &notify.Service{ID: "svc-9", Name: "Other Tenant", Active: true}

	cookies := app.signIn(t)
	resp := app.do(t, http.MethodGet, "/services/svc-9", nil, cookies)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", resp.Code)
	}
}

func TestPlatformAdminSeesAnyService(t *testing.T) {
	app := newTestApp(t)
	user, _ := app.seedUser()
	user.PlatformAdmin = true
	app.api.services["svc-9"] = &notify.Service{ID: "svc-9", Name: "Other Tenant", Active: true}

	cookies := app.signIn(t)
	resp := app.do(t, http.MethodGet, "/services/svc-9", nil, cookies)
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", resp.Code, resp.Body.String())
	}
}

func TestDisableAdminViewToggle(t *testing.T) {
	app := newTestApp(t)
	user, _ := app.seedUser()
	user.PlatformAdmin = true
	app.api.services["svc-9"] = &notify.Service{ID: "svc-9", Name: "Other Tenant", Active: true}

	cookies := app.signIn(t)
	resp := app.do(t, http.MethodPost, "/user-profile/disable-platform-admin-view", nil, cookies)
	if resp.Code != http.StatusFound {
		t.Fatalf("toggle status = %d, want 302", resp.Code)
	}
	cookies = mergeCookies(cookies, resp.Result().Cookies())

	resp = app.do(t, http.MethodGet, "/services/svc-9", nil, cookies)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403 with admin view disabled", resp.Code)
	}
}

func TestStatusEndpoint(t *testing.T) {
	app := newTestApp(t)
	resp := app.do(t, http.MethodGet, "/_status", nil, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), `"ok"`) {
		t.Fatalf("body = %s, want ok", resp.Body.String())
	}
}

func TestRootRedirectsAndUnknownPathIs404(t *testing.T) {
	app := newTestApp(t)

	resp := app.do(t, http.MethodGet, "/", nil, nil)
	if resp.Code != http.StatusFound || resp.Header().Get("Location") != "/welcome" {
		t.Fatalf("got %d %q, want 302 /welcome", resp.Code, resp.Header().Get("Location"))
	}

	resp = app.do(t, http.MethodGet, "/definitely-not-a-page", nil, nil)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.Code)
	}
}

func TestStaticFilesServeAlongsideRoot(t *testing.T) {
	app := newTestApp(t)
	staticDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(staticDir, "app.css"), []byte("body{margin:0}"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	handler := app.server.Handler(staticDir)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/static/app.css", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("static status = %d, want 200", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "margin:0") {
		t.Fatalf("static body = %s, want stylesheet", resp.Body.String())
	}

	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))
	if resp.Code != http.StatusFound || resp.Header().Get("Location") != "/welcome" {
		t.Fatalf("root got %d %q, want 302 /welcome", resp.Code, resp.Header().Get("Location"))
	}
}

func TestFrozenServiceErrorRendersForbidden(t *testing.T) {
	app := newTestApp(t)

	r := httptest.NewRequest(http.MethodGet, "/services/svc-1", nil)
	w := httptest.NewRecorder()
	app.server.renderAPIError(w, r, notify.ErrServiceInactive)
	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", w.Code)
	}
	if !strings.Contains(w.Body.String(), "do not have permission") {
		t.Fatalf("body = %s, want permission error page", w.Body.String())
	}
}

// rawPost bypasses the harness's automatic token injection.
func (app *testApp) rawPost(t *testing.T, target string, form url.Values, cookies []*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	r := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, cookie := range cookies {
		r.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	app.handler.ServeHTTP(w, r)
	return w
}

func TestPostWithoutTokenRedirectsAnonymous(t *testing.T) {
	app := newTestApp(t)
	app.seedUser()

	resp := app.rawPost(t, "/sign-in", url.Values{
		"email_address": {"pat@example.gov"},
		"password":      {"correct horse battery staple"},
	}, nil)
	if resp.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", resp.Code)
	}
	if !strings.HasPrefix(resp.Header().Get("Location"), "/sign-in") {
		t.Fatalf("Location = %q, want sign-in redirect", resp.Header().Get("Location"))
	}
	if len(app.api.sentCodes) != 0 {
		t.Fatalf("sent %d codes without a form token, want 0", len(app.api.sentCodes))
	}
}

func TestPostWithForgedTokenRejectedSignedIn(t *testing.T) {
	app := newTestApp(t)
	app.seedUser()
	cookies := app.signIn(t)
	codesSent := len(app.api.sentCodes)

	resp := app.rawPost(t, "/user-profile/email", url.Values{
		"email_address": {"new@example.gov"},
		"csrf_token":    {"forged"},
	}, cookies)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "Something went wrong") {
		t.Fatalf("body = %s, want generic error page", resp.Body.String())
	}
	if len(app.api.sentCodes) != codesSent {
		t.Fatal("email change proceeded despite forged token")
	}
}

func TestMethodNotAllowedRendersErrorPage(t *testing.T) {
	app := newTestApp(t)

	resp := app.do(t, http.MethodPost, "/welcome", nil, nil)
	if resp.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", resp.Code)
	}
	body := resp.Body.String()
	if !strings.Contains(body, "<html") || !strings.Contains(body, "Something went wrong") {
		t.Fatalf("body = %s, want the dedicated error page", body)
	}
}

func TestRequestLogLine(t *testing.T) {
	app := newTestApp(t)
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	app.do(t, http.MethodGet, "/welcome", nil, nil)
	if !strings.Contains(buf.String(), "GET /welcome") {
		t.Fatalf("log = %q, want request line for GET /welcome", buf.String())
	}
}
