package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind classifies every rejection the message service can return.
type Kind string

const (
	KindNone            Kind = ""
	KindUnauthenticated Kind = "unauthenticated"
	KindUnauthorized    Kind = "unauthorized"
	KindNotFound        Kind = "not_found"
	KindBlocked         Kind = "blocked"
	KindRateLimited     Kind = "rate_limited"
	KindInvalidInput    Kind = "invalid_input"
	KindStorageFailure  Kind = "storage_failure"
)

var (
	ErrUnauthenticated    = fmt.Errorf("not authenticated")
	ErrUnauthorized       = fmt.Errorf("unauthorized")
	ErrNotFound           = fmt.Errorf("message not found")
	ErrBlocked            = fmt.Errorf("you have been blocked by an administrator")
	ErrRateLimited        = fmt.Errorf("slow down, you are sending messages too quickly")
	ErrInvalidInput       = fmt.Errorf("invalid input")
	ErrStorage            = fmt.Errorf("storage failure")
	ErrInvalidCredentials = fmt.Errorf("invalid username or password")
	ErrTokenGeneration    = fmt.Errorf("token generation failed")
	ErrUnknownUser        = fmt.Errorf("user not found")
	ErrUserAlreadyExists  = fmt.Errorf("user already exists")
	ErrWorkerPanic        = fmt.Errorf("worker panic")
	ErrEmptyWords         = fmt.Errorf("no words have been found")
	ErrInvalidHash        = fmt.Errorf("invalid hash format")
)

var kinds = []struct {
	err  error
	kind Kind
}{
	{ErrUnauthenticated, KindUnauthenticated},
	{ErrInvalidCredentials, KindUnauthenticated},
	{ErrUnauthorized, KindUnauthorized},
	{ErrNotFound, KindNotFound},
	{ErrUnknownUser, KindNotFound},
	{ErrBlocked, KindBlocked},
	{ErrRateLimited, KindRateLimited},
	{ErrInvalidInput, KindInvalidInput},
	{ErrStorage, KindStorageFailure},
}

// KindOf maps an error returned by a service to its Kind.
// Unknown errors are reported as storage failures: the only faults
// left once every expected rejection is classified come from the backend.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}
	for _, k := range kinds {
		if stderrors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindStorageFailure
}
