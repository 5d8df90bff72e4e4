package notify

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func newTestClient(t *testing.T, serverURL string) *Client {
	t.Helper()
	client, err := NewClient(Config{
		BaseURL:     serverURL,
		ClientID:    "ad",
		Secret:      strings.Repeat("s", 73),
		RouteSecret: "route-secret",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	client.sleep = func(time.Duration) {}
	return client
}

func TestRequestCarriesAuthHeaders(t *testing.T) {
	var captured http.Header
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = r.Header.Clone()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"id":"user-1"}}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	if _, err := client.GetUser(context.Background(), "user-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	authorization := captured.Get("Authorization")
	if !strings.HasPrefix(authorization, "Bearer ") {
		t.Fatalf("Authorization = %q, want bearer token", authorization)
	}
	parsed, err := jwt.Parse(strings.TrimPrefix(authorization, "Bearer "), func(token *jwt.Token) (any, error) {
		return []byte(strings.Repeat("s", 73)), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		t.Fatalf("bearer token does not verify: %v", err)
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		t.Fatal("expected map claims")
	}
	if claims["iss"] != "ad" {
		t.Fatalf("iss = %v, want %q", claims["iss"], "ad")
	}
	if captured.Get("X-Custom-Forwarder") != "route-secret" {
		t.Fatalf("X-Custom-Forwarder = %q, want %q", captured.Get("X-Custom-Forwarder"), "route-secret")
	}
	if captured.Get("User-agent") == "" {
		t.Fatal("expected a User-agent header")
	}
}

func TestGetRetriesOn503(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"id":"user-1"}}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	user, err := client.GetUser(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.ID != "user-1" {
		t.Fatalf("user.ID = %q, want %q", user.ID, "user-1")
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
}

func TestGetGivesUpAfterThree503s(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.GetUser(context.Background(), "user-1")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want APIError", err)
	}
	if apiErr.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("StatusCode = %d, want 503", apiErr.StatusCode)
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
}

func TestNonGetDoesNotRetryOn503(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	err := client.VerifyPassword(context.Background(), "user-1", "pw")
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestInactiveServiceGuardBlocksMutations(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("request must not reach the API")
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	ctx := WithCurrentService(context.Background(), ServiceContext{ID: "svc-1", Active: false})
	ctx = WithCurrentUser(ctx, UserContext{ID: "user-1"})

	err := client.VerifyPassword(ctx, "user-1", "pw")
	if !errors.Is(err, ErrServiceInactive) {
		t.Fatalf("err = %v, want ErrServiceInactive", err)
	}
}

func TestInactiveServiceGuardAllowsPlatformAdmin(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	ctx := WithCurrentService(context.Background(), ServiceContext{ID: "svc-1", Active: false})
	ctx = WithCurrentUser(ctx, UserContext{ID: "user-1", PlatformAdmin: true})

	if err := client.VerifyPassword(ctx, "user-1", "pw"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestInactiveServiceGuardAllowsGets(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"id":"svc-1","active":false}}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	ctx := WithCurrentService(context.Background(), ServiceContext{ID: "svc-1", Active: false})

	if _, err := client.GetService(ctx, "svc-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAPIErrorStringMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"Name already in use","result":"error"}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.GetService(context.Background(), "svc-1")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want APIError", err)
	}
	if apiErr.Message != "Name already in use" {
		t.Fatalf("Message = %q, want %q", apiErr.Message, "Name already in use")
	}
	if apiErr.FieldErrors != nil {
		t.Fatal("expected no field errors for string body")
	}
}

func TestAPIErrorFieldMapMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":{"name":["Can't be empty"],"email_from":["Not a valid address"]}}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.GetService(context.Background(), "svc-1")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want APIError", err)
	}
	if got := apiErr.FieldErrors["name"]; len(got) != 1 || got[0] != "Can't be empty" {
		t.Fatalf("FieldErrors[name] = %v, want [Can't be empty]", got)
	}
	if len(apiErr.FieldErrors["email_from"]) != 1 {
		t.Fatalf("FieldErrors[email_from] = %v, want one message", apiErr.FieldErrors["email_from"])
	}
}

func TestNewClientValidation(t *testing.T) {
	if _, err := NewClient(Config{ClientID: "ad", Secret: "x"}); err == nil {
		t.Fatal("expected error for missing base url")
	}
	if _, err := NewClient(Config{BaseURL: "http://api", Secret: "x"}); err == nil {
		t.Fatal("expected error for missing client id")
	}
	if _, err := NewClient(Config{BaseURL: "http://api", ClientID: "ad"}); err == nil {
		t.Fatal("expected error for missing secret")
	}
}
