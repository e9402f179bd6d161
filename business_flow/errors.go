// Package businessflow contains the core business logic and use cases for the outreach workflow
package businessflow

import (
	"errors"
	"fmt"
)

// Business flow error constants
var (
	// Lookup errors. Out-of-scope records fail with the same NotFound as
	// missing ones so callers cannot probe for records they may not see.
	ErrPatientNotFound = errors.New("patient not found")
	ErrProjectNotFound = errors.New("project not found")
	ErrUserNotFound    = errors.New("user not found")
	ErrMessageNotFound = errors.New("message not found")

	// Account errors
	ErrAccountInactive   = errors.New("account is inactive")
	ErrIncorrectPassword = errors.New("incorrect password")

	// Input errors
	ErrInvalidDisposition  = errors.New("disposition is not a recognized call outcome")
	ErrInvalidBrokerStatus = errors.New("broker status is not recognized")
	ErrMessageTooLong      = errors.New("message body exceeds the maximum length")
	ErrReasonRequired      = errors.New("a reason is required")
	ErrProjectNameRequired = errors.New("project name is required")
	ErrEmptyImport         = errors.New("import contains no rows")

	// Transition errors
	ErrAlreadyForwarded  = errors.New("patient has already been forwarded or completed")
	ErrPatientNotSealed  = errors.New("patient is not in a terminal state")
	ErrProjectArchived   = errors.New("project is archived")
	ErrNotForwardedToYou = errors.New("patient is not forwarded to this broker")

	// Configuration errors
	ErrMissingBrokerEmail = errors.New("project has no broker email configured")

	// Dependency errors
	ErrStoreUnavailable        = errors.New("backing store unavailable")
	ErrNotificationUnavailable = errors.New("notification provider unavailable")
	ErrCacheNotAvailable       = errors.New("cache not available")

	// Filter errors
	ErrInvalidPage           = errors.New("page must be at least 1")
	ErrInvalidPageSize       = errors.New("page size must be between 1 and 100")
	ErrStartDateAfterEndDate = errors.New("start date cannot be after end date")
)

type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func NewBusinessErrorf(code, message string, err error, args ...any) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: fmt.Sprintf(message, args...),
		Err:     err,
	}
}

// IsNotFound reports whether err is any of the lookup failures
func IsNotFound(err error) bool {
	return errors.Is(err, ErrPatientNotFound) ||
		errors.Is(err, ErrProjectNotFound) ||
		errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrMessageNotFound)
}

// IsInvalidInput reports whether err is a malformed-input failure
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidDisposition) ||
		errors.Is(err, ErrInvalidBrokerStatus) ||
		errors.Is(err, ErrMessageTooLong) ||
		errors.Is(err, ErrReasonRequired) ||
		errors.Is(err, ErrProjectNameRequired) ||
		errors.Is(err, ErrEmptyImport) ||
		errors.Is(err, ErrInvalidPage) ||
		errors.Is(err, ErrInvalidPageSize) ||
		errors.Is(err, ErrStartDateAfterEndDate)
}

// IsInvalidTransition reports whether err is a state-machine violation
func IsInvalidTransition(err error) bool {
	return errors.Is(err, ErrAlreadyForwarded) ||
		errors.Is(err, ErrPatientNotSealed) ||
		errors.Is(err, ErrProjectArchived) ||
		errors.Is(err, ErrNotForwardedToYou)
}

// IsMissingConfiguration reports whether err is a missing-setup failure
func IsMissingConfiguration(err error) bool {
	return errors.Is(err, ErrMissingBrokerEmail)
}

// IsDependencyFailure reports whether err is an external-collaborator failure
func IsDependencyFailure(err error) bool {
	return errors.Is(err, ErrStoreUnavailable) ||
		errors.Is(err, ErrNotificationUnavailable) ||
		errors.Is(err, ErrCacheNotAvailable)
}

func IsPatientNotFound(err error) bool {
	return errors.Is(err, ErrPatientNotFound)
}

func IsProjectNotFound(err error) bool {
	return errors.Is(err, ErrProjectNotFound)
}

func IsUserNotFound(err error) bool {
	return errors.Is(err, ErrUserNotFound)
}

func IsMessageNotFound(err error) bool {
	return errors.Is(err, ErrMessageNotFound)
}

func IsAccountInactive(err error) bool {
	return errors.Is(err, ErrAccountInactive)
}

func IsIncorrectPassword(err error) bool {
	return errors.Is(err, ErrIncorrectPassword)
}

func IsInvalidDisposition(err error) bool {
	return errors.Is(err, ErrInvalidDisposition)
}

func IsInvalidBrokerStatus(err error) bool {
	return errors.Is(err, ErrInvalidBrokerStatus)
}

func IsMessageTooLong(err error) bool {
	return errors.Is(err, ErrMessageTooLong)
}

func IsReasonRequired(err error) bool {
	return errors.Is(err, ErrReasonRequired)
}

func IsAlreadyForwarded(err error) bool {
	return errors.Is(err, ErrAlreadyForwarded)
}

func IsPatientNotSealed(err error) bool {
	return errors.Is(err, ErrPatientNotSealed)
}

func IsProjectArchived(err error) bool {
	return errors.Is(err, ErrProjectArchived)
}

func IsNotForwardedToYou(err error) bool {
	return errors.Is(err, ErrNotForwardedToYou)
}

func IsMissingBrokerEmail(err error) bool {
	return errors.Is(err, ErrMissingBrokerEmail)
}

func IsStoreUnavailable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable)
}

func IsNotificationUnavailable(err error) bool {
	return errors.Is(err, ErrNotificationUnavailable)
}

func IsCacheNotAvailable(err error) bool {
	return errors.Is(err, ErrCacheNotAvailable)
}

func IsInvalidPage(err error) bool {
	return errors.Is(err, ErrInvalidPage)
}

func IsInvalidPageSize(err error) bool {
	return errors.Is(err, ErrInvalidPageSize)
}

func IsStartDateAfterEndDate(err error) bool {
	return errors.Is(err, ErrStartDateAfterEndDate)
}
