// Package services defines the business workflows: the token ledger, chat,
// survey generation, platform credentials, payments and authentication.
// This file centralizes the service-level error taxonomy so that methods can
// return predictable values and handlers can map them to HTTP results with
// errors.Is / errors.As.
//
// Translation into user-facing messages or HTTP status codes is performed at
// the handler layer.
package services

import (
	"errors"
	"fmt"
)

// Identity errors.
var (
	// ErrUnauthenticated indicates the request carries no valid session.
	ErrUnauthenticated = errors.New("not authenticated")

	// ErrUserNotFound indicates the authenticated identity has no user row.
	ErrUserNotFound = errors.New("user not found")

	// ErrUsernameTaken is returned by Register for a duplicate username.
	ErrUsernameTaken = errors.New("username already taken")

	// ErrInvalidLogin is returned by Login for unknown users or bad passwords.
	ErrInvalidLogin = errors.New("invalid username or password")
)

// ErrValidation is the parent of every input validation failure.
var ErrValidation = errors.New("invalid input")

// Validation errors. All match ErrValidation.
var (
	ErrEmptyPrompt        = fmt.Errorf("%w: prompt is empty", ErrValidation)
	ErrTooLong            = fmt.Errorf("%w: input too long", ErrValidation)
	ErrEmptyMessages      = fmt.Errorf("%w: messages must not be empty", ErrValidation)
	ErrTooManyMessages    = fmt.Errorf("%w: too many messages", ErrValidation)
	ErrInvalidRole        = fmt.Errorf("%w: message role must be user or assistant", ErrValidation)
	ErrEmptyContent       = fmt.Errorf("%w: message content must not be empty", ErrValidation)
	ErrMissingCredentials = fmt.Errorf("%w: api token, datacenter and brand id are required", ErrValidation)
	ErrInvalidDatacenter  = fmt.Errorf("%w: datacenter must be a Qualtrics datacenter id", ErrValidation)
	ErrInvalidPaymentKind = fmt.Errorf("%w: type must be subscription or tokens", ErrValidation)
	ErrInvalidAmount      = fmt.Errorf("%w: amount must be positive", ErrValidation)
	ErrInvalidUsername    = fmt.Errorf("%w: username must be 3-64 letters, digits, '.', '_' or '-'", ErrValidation)
	ErrInvalidPassword    = fmt.Errorf("%w: password must be 8-72 characters", ErrValidation)
	ErrInvalidSignature   = fmt.Errorf("%w: webhook signature verification failed", ErrValidation)
)

// Workflow errors.
var (
	// ErrCredentialsMissing is a precondition failure: generation needs
	// platform credentials before any AI call is made.
	ErrCredentialsMissing = errors.New("qualtrics credentials are not configured")
	ErrCredentialsInvalid = errors.New("qualtrics rejected the credentials")
	ErrSurveyNotFound     = errors.New("survey not found")

	// ErrAlreadyCredited marks a replayed payment notification.
	ErrAlreadyCredited = errors.New("payment already credited")

	// ErrInsufficientQuota is matched by *QuotaError.
	ErrInsufficientQuota = errors.New("insufficient tokens")

	// Collaborator failures; the wrapped provider message is passed through.
	ErrGenerationFailed   = errors.New("generation failed")
	ErrPlatformCallFailed = errors.New("survey platform call failed")
	ErrPaymentCallFailed  = errors.New("payment processor call failed")
)

// QuotaError reports that the user's balance cannot cover the operation.
// It matches ErrInsufficientQuota and carries the balance for the response.
type QuotaError struct {
	Balance int64
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("insufficient tokens (balance %d)", e.Balance)
}

// Is makes errors.Is(err, ErrInsufficientQuota) true.
func (e *QuotaError) Is(target error) bool { return target == ErrInsufficientQuota }

// FailureStage says which step after the charge failed.
type FailureStage string

const (
	StagePlatform FailureStage = "platform"
	StagePersist  FailureStage = "persist"
)

// PartialFailureError reports that the AI step succeeded and was charged but
// a later step failed, so no survey row exists. With StagePersist the survey
// exists on the platform as QualtricsID. A platform-stage error matches
// ErrPlatformCallFailed.
type PartialFailureError struct {
	Stage         FailureStage
	QualtricsID   string
	TokensCharged int64
	Balance       int64
	Err           error
}

func (e *PartialFailureError) Error() string {
	if e.Stage == StagePersist {
		return fmt.Sprintf("survey %s created on platform but not saved: %v", e.QualtricsID, e.Err)
	}
	return fmt.Sprintf("survey generated but platform creation failed: %v", e.Err)
}

func (e *PartialFailureError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrPlatformCallFailed) true for platform failures.
func (e *PartialFailureError) Is(target error) bool {
	return target == ErrPlatformCallFailed && e.Stage != StagePersist
}
