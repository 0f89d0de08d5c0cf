package service

import "errors"

// Kind classifies a service failure so the transport layer can pick a status.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindConflict
	KindBadRequest
	KindUnauthorized

	// KindNotification means state was persisted but the email could not
	// be delivered.
	KindNotification
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindBadRequest:
		return "bad_request"
	case KindUnauthorized:
		return "unauthorized"
	case KindNotification:
		return "notification_failed"
	default:
		return "internal"
	}
}

// Error is a classified, user-presentable failure. Message is safe to show
// to the caller.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

func newError(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// KindOf reports the kind of err. Anything that is not a *Error is internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// MessageOf returns the user-facing message carried by err, or "" when err
// is not a classified failure.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return ""
}

var (
	ErrEmailTaken       = newError(KindConflict, "email already exists")
	ErrAccountNotFound  = newError(KindNotFound, "user not found")
	ErrEmailNotVerified = newError(KindBadRequest, "please verify your email first")
	ErrInvalidPassword  = newError(KindConflict, "invalid password")
)

var (
	ErrInvalidToken    = newError(KindUnauthorized, "invalid token")
	ErrTokenNotFound   = newError(KindBadRequest, "invalid or expired token")
	ErrTokenExpired    = newError(KindBadRequest, "token has expired")
	ErrAlreadyVerified = newError(KindBadRequest, "email already verified")
)

var (
	ErrOldPasswordIncorrect = newError(KindBadRequest, "old password is incorrect")
	ErrPasswordUnchanged    = newError(KindBadRequest, "new password must be different from the old password")
	ErrPasswordMismatch     = newError(KindBadRequest, "passwords do not match")
)

var (
	ErrOTPNotFound = newError(KindBadRequest, "invalid or expired OTP")
	ErrOTPExpired  = newError(KindBadRequest, "OTP has expired")
	ErrInvalidOTP  = newError(KindBadRequest, "invalid OTP")
	ErrOTPRequired = newError(KindBadRequest, "please verify OTP first")
)

var (
	ErrVerificationNotSent = newError(KindNotification, "account created but the verification email could not be sent")
	ErrOTPNotSent          = newError(KindNotification, "OTP created but the email could not be sent")
)
