// Package requestctx carries request-scoped identity and routing values.
//
// Values live on the request context, never in package state, so concurrent
// requests cannot observe each other's bindings.
package requestctx

import "context"

type userIDContextKey struct{}
type serviceIDContextKey struct{}
type organisationIDContextKey struct{}
type requestIDContextKey struct{}
type nonceContextKey struct{}

// WithUserID stores the authenticated user identifier in context.
func WithUserID(ctx context.Context, userID string) context.Context {
	return with(ctx, userIDContextKey{}, userID)
}

// UserIDFromContext returns the user identifier stored in context.
func UserIDFromContext(ctx context.Context) string {
	return value(ctx, userIDContextKey{})
}

// WithServiceID stores the current service identifier in context.
func WithServiceID(ctx context.Context, serviceID string) context.Context {
	return with(ctx, serviceIDContextKey{}, serviceID)
}

// ServiceIDFromContext returns the current service identifier.
func ServiceIDFromContext(ctx context.Context) string {
	return value(ctx, serviceIDContextKey{})
}

// WithOrganisationID stores the current organisation identifier in context.
func WithOrganisationID(ctx context.Context, organisationID string) context.Context {
	return with(ctx, organisationIDContextKey{}, organisationID)
}

// OrganisationIDFromContext returns the current organisation identifier.
func OrganisationIDFromContext(ctx context.Context) string {
	return value(ctx, organisationIDContextKey{})
}

// WithRequestID stores the inbound request identifier in context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return with(ctx, requestIDContextKey{}, requestID)
}

// RequestIDFromContext returns the inbound request identifier.
func RequestIDFromContext(ctx context.Context) string {
	return value(ctx, requestIDContextKey{})
}

// WithNonce stores the per-request CSP nonce in context.
func WithNonce(ctx context.Context, nonce string) context.Context {
	return with(ctx, nonceContextKey{}, nonce)
}

// NonceFromContext returns the per-request CSP nonce. Static routes carry no
// nonce and return the empty string.
func NonceFromContext(ctx context.Context) string {
	return value(ctx, nonceContextKey{})
}

func with(ctx context.Context, key any, v string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, key, v)
}

func value(ctx context.Context, key any) string {
	if ctx == nil {
		return ""
	}
	v, _ := ctx.Value(key).(string)
	return v
}
