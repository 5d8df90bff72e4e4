// Package errors provides structured error handling for the admin service.
package errors

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Identity errors
	CodeUserUnknownPermission Code = "USER_UNKNOWN_PERMISSION"
	CodeUserBlocked           Code = "USER_BLOCKED"
	CodeUserNotFound          Code = "USER_NOT_FOUND"

	// Authorization errors
	CodeAuthzNoScope         Code = "AUTHZ_NO_SERVICE_OR_ORGANISATION"
	CodeAuthzDenied          Code = "AUTHZ_DENIED"
	CodeAuthzServiceInactive Code = "AUTHZ_SERVICE_INACTIVE"

	// Session errors
	CodeSessionExpired       Code = "SESSION_EXPIRED"
	CodeSessionOtherBrowser  Code = "SESSION_OTHER_BROWSER"
	CodeSessionMissingSlot   Code = "SESSION_MISSING_SLOT"
	CodeSessionDecodeFailure Code = "SESSION_DECODE_FAILURE"

	// Invite errors
	CodeInviteNotPending    Code = "INVITE_NOT_PENDING"
	CodeInviteEmailMismatch Code = "INVITE_EMAIL_MISMATCH"

	// Token errors
	CodeTokenInvalid Code = "TOKEN_INVALID"
	CodeTokenExpired Code = "TOKEN_EXPIRED"

	// Wizard errors
	CodeWizardUnknownStep  Code = "WIZARD_UNKNOWN_STEP"
	CodeWizardStepOutOfSeq Code = "WIZARD_STEP_OUT_OF_SEQUENCE"

	// Header errors
	CodeHeaderNewline Code = "HEADER_NEWLINE_DETECTED"
)
