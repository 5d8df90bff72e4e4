// Package routepath centralises the admin app's URL space so handlers and
// templates never concatenate paths by hand.
package routepath

import (
	"net/url"
	"strings"
)

const (
	Root    = "/"
	Welcome = "/welcome"
	Status  = "/_status"
)

const (
	StaticPrefix = "/static/"
)

const (
	SignIn             = "/sign-in"
	SignOut            = "/sign-out"
	TwoFactorSMSSent   = "/two-factor-sms-sent"
	TwoFactorEmailSent = "/two-factor-email-sent"
	Register           = "/register"
	RegistrationSent   = "/registration-complete"
	VerifyEmailPrefix  = "/verify-email/"
	ResendVerification = "/resend-email-verification"
	ForgotPassword     = "/forgot-password"
	NewPasswordPrefix  = "/new-password/"
	ForcedReset        = "/forced-password-reset"
)

const (
	InvitationPrefix    = "/invitation/"
	OrgInvitationPrefix = "/organisation-invitation/"
	RegisterFromInvite  = "/register-from-invite"
)

const (
	AddService     = "/add-service"
	ServicesPrefix = "/services/"
)

const (
	UserProfile        = "/user-profile"
	ChangeEmail        = "/user-profile/email"
	ConfirmChangeEmail = "/user-profile/email/confirm"
	ChangeMobile       = "/user-profile/mobile"
	ConfirmMobile      = "/user-profile/mobile/confirm"
	DisableAdminView   = "/user-profile/disable-platform-admin-view"
)

func Service(serviceID string) string {
	return ServicesPrefix + escapeSegment(serviceID)
}

func ServiceUseCase(serviceID string) string {
	return Service(serviceID) + "/use-case"
}

func ServiceContact(serviceID string) string {
	return Service(serviceID) + "/contact"
}

func ServiceTemplates(serviceID string) string {
	return Service(serviceID) + "/templates"
}

func ServiceTeam(serviceID string) string {
	return Service(serviceID) + "/users"
}

func ServiceTeamInvite(serviceID string) string {
	return ServiceTeam(serviceID) + "/invite"
}

func ServiceCancelInvite(serviceID, inviteID string) string {
	return Service(serviceID) + "/invites/" + escapeSegment(inviteID) + "/cancel"
}

func ServiceLogo(serviceID string) string {
	return Service(serviceID) + "/logo"
}

func ServiceReplyTo(serviceID string) string {
	return Service(serviceID) + "/reply-to"
}

func ServiceArchiveReplyTo(serviceID, replyToID string) string {
	return ServiceReplyTo(serviceID) + "/" + escapeSegment(replyToID) + "/archive"
}

func Invitation(token string) string {
	return InvitationPrefix + escapeSegment(token)
}

func OrgInvitation(token string) string {
	return OrgInvitationPrefix + escapeSegment(token)
}

func VerifyEmail(token string) string {
	return VerifyEmailPrefix + escapeSegment(token)
}

func NewPassword(token string) string {
	return NewPasswordPrefix + escapeSegment(token)
}

// WithNext appends the post-sign-in destination to the sign-in path.
func WithNext(path, next string) string {
	if next == "" {
		return path
	}
	return path + "?next=" + url.QueryEscape(next)
}

// IsStatic reports whether the path serves a fingerprinted asset.
func IsStatic(path string) bool {
	return strings.HasPrefix(path, StaticPrefix)
}

func escapeSegment(segment string) string {
	return url.PathEscape(segment)
}
