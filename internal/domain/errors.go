package domain

import (
	"errors"
	"fmt"
)

// ErrorKind is the stable category reported to callers alongside the message.
type ErrorKind string

const (
	KindValidation       ErrorKind = "validation_error"
	KindNotFound         ErrorKind = "not_found"
	KindForbidden        ErrorKind = "forbidden"
	KindConflict         ErrorKind = "conflict"
	KindInvalidOperation ErrorKind = "invalid_operation"
	KindUnauthorized     ErrorKind = "unauthorized"
	KindTransient        ErrorKind = "transient_store_error"
	KindInternal         ErrorKind = "internal_error"
)

// Error carries a kind, a human readable message and an optional cause.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches sentinels by kind and message so wrapped copies still compare equal.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Message == t.Message
}

func NewError(kind ErrorKind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func Validation(message string) *Error {
	return NewError(KindValidation, message, nil)
}

func Transient(err error) *Error {
	return NewError(KindTransient, "store unavailable", err)
}

// KindOf reports the kind of the first domain error in err's chain.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// MessageOf returns the domain message for err, or a generic one for internal failures.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return "internal error"
}

var (
	ErrUserNotFound        = NewError(KindNotFound, "user not found", nil)
	ErrTweetNotFound       = NewError(KindNotFound, "tweet not found", nil)
	ErrNotTweetOwner       = NewError(KindForbidden, "not allowed to delete this tweet", nil)
	ErrUsernameTaken       = NewError(KindConflict, "username already taken", nil)
	ErrEmailTaken          = NewError(KindConflict, "email already taken", nil)
	ErrAlreadyFollowing    = NewError(KindConflict, "already following", nil)
	ErrCannotFollowSelf    = NewError(KindInvalidOperation, "cannot follow self", nil)
	ErrNotFollowing        = NewError(KindInvalidOperation, "not following", nil)
	ErrInvalidCredentials  = NewError(KindUnauthorized, "invalid email or password", nil)
	ErrContentRequired     = Validation("content is required")
	ErrContentTooLong      = Validation(fmt.Sprintf("content exceeds %d characters", MaxTweetLength))
	ErrRetweetAlreadyTaken = NewError(KindConflict, "retweet already exists", nil)
)
