package core

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	InboxErrorBadInput      = "INBOX_BAD_INPUT"
	InboxErrorEntryNotFound = "INBOX_ENTRY_NOT_FOUND"
	InboxErrorEntryNotOwner = "INBOX_ENTRY_NOT_OWNER"
	InboxErrorPhotoTooLarge = "INBOX_PHOTO_TOO_LARGE"
	InboxErrorStorageFailed = "INBOX_STORAGE_FAILED"
	InboxErrorInternal      = "INBOX_INTERNAL_ERROR"
	InboxErrorNotConfigured = "INBOX_NOT_CONFIGURED"
)

var (
	ErrInboxEntryNotFound = errors.New("core: inbox entry not found")
	ErrInboxEntryNotOwner = errors.New("core: inbox entry not owned by user")
	ErrPhotoTooLarge      = errors.New("core: photo too large")
)

// PhotoTooLargeError is returned by PhotoStorage when an upload exceeds the
// configured limit.
type PhotoTooLargeError struct {
	MaxSize int64
}

func (e *PhotoTooLargeError) Error() string {
	return fmt.Sprintf("Photo too large, max %d bytes allowed", e.MaxSize)
}

func (e *PhotoTooLargeError) Is(target error) bool {
	return target == ErrPhotoTooLarge
}

// newValidationError covers every precondition rule; the message is surfaced
// verbatim to API clients.
func newValidationError(message string) *goerrors.Error {
	return goerrors.New(message, goerrors.CategoryBadInput).
		WithCode(http.StatusBadRequest).
		WithTextCode(InboxErrorBadInput)
}

// InboxEntryNotFoundError keeps ErrInboxEntryNotFound in its chain.
type InboxEntryNotFoundError struct {
	ID string
}

func (e *InboxEntryNotFoundError) Error() string {
	return fmt.Sprintf("Inbox entry %q not found", e.ID)
}

func (e *InboxEntryNotFoundError) Unwrap() error {
	return ErrInboxEntryNotFound
}

func (e *InboxEntryNotFoundError) ToServiceError() *goerrors.Error {
	return goerrors.New(e.Error(), goerrors.CategoryNotFound).
		WithCode(http.StatusNotFound).
		WithTextCode(InboxErrorEntryNotFound)
}

// InboxEntryNotOwnerError keeps ErrInboxEntryNotOwner in its chain.
type InboxEntryNotOwnerError struct {
	ID     string
	UserID string
}

func (e *InboxEntryNotOwnerError) Error() string {
	return fmt.Sprintf("Inbox entry %q does not belong to user %q", e.ID, e.UserID)
}

func (e *InboxEntryNotOwnerError) Unwrap() error {
	return ErrInboxEntryNotOwner
}

func (e *InboxEntryNotOwnerError) ToServiceError() *goerrors.Error {
	return goerrors.New(e.Error(), goerrors.CategoryAuthz).
		WithCode(http.StatusForbidden).
		WithTextCode(InboxErrorEntryNotOwner)
}

// storageError builds the envelope for a failed file move with the configured
// ErrorFactory and keeps err as its source.
func (s *Service) storageError(err error, message string) error {
	factory := ErrorFactory(goerrors.New)
	if s != nil && s.errorFactory != nil {
		factory = s.errorFactory
	}
	rich := factory(message, goerrors.CategoryInternal)
	if rich == nil {
		rich = goerrors.New(message, goerrors.CategoryInternal)
	}
	rich.Source = err
	return rich.WithCode(http.StatusInternalServerError).WithTextCode(InboxErrorStorageFailed)
}

func newNotConfiguredError(component string) *goerrors.Error {
	return goerrors.New(fmt.Sprintf("core: %s is not configured", component), goerrors.CategoryInternal).
		WithCode(http.StatusInternalServerError).
		WithTextCode(InboxErrorNotConfigured)
}

// IsValidationError reports whether err is a precondition failure.
func IsValidationError(err error) bool {
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		return false
	}
	return rich.Category == goerrors.CategoryBadInput || rich.Category == goerrors.CategoryValidation
}

// ErrorMessage returns the client-facing message carried by err.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var rich *goerrors.Error
	if goerrors.As(err, &rich) && strings.TrimSpace(rich.Message) != "" {
		return rich.Message
	}
	return err.Error()
}

func inboxErrorMapper(err error) *goerrors.Error {
	if err == nil {
		return nil
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return ensureInboxErrorEnvelope(richErr)
	}

	var (
		tooLarge *PhotoTooLargeError
		notFound *InboxEntryNotFoundError
		notOwner *InboxEntryNotOwnerError
	)
	switch {
	case errors.As(err, &tooLarge):
		return goerrors.New(tooLarge.Error(), goerrors.CategoryBadInput).
			WithCode(http.StatusRequestEntityTooLarge).
			WithTextCode(InboxErrorPhotoTooLarge)
	case errors.As(err, &notFound):
		return notFound.ToServiceError()
	case errors.As(err, &notOwner):
		return notOwner.ToServiceError()
	case errors.Is(err, ErrInboxEntryNotFound):
		return newInboxError(err.Error(), goerrors.CategoryNotFound, InboxErrorEntryNotFound)
	case errors.Is(err, ErrInboxEntryNotOwner):
		return newInboxError(err.Error(), goerrors.CategoryAuthz, InboxErrorEntryNotOwner)
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "required"), strings.Contains(msg, "invalid"), strings.Contains(msg, "out of range"):
		return newInboxError(err.Error(), goerrors.CategoryBadInput, InboxErrorBadInput)
	}

	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	return ensureInboxErrorEnvelope(mapped)
}

func newInboxError(message string, category goerrors.Category, textCode string) *goerrors.Error {
	return ensureInboxErrorEnvelope(
		goerrors.New(message, category).
			WithTextCode(textCode),
	)
}

func ensureInboxErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = inboxHTTPStatus(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultInboxTextCode(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

func defaultInboxTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return InboxErrorBadInput
	case goerrors.CategoryNotFound:
		return InboxErrorEntryNotFound
	case goerrors.CategoryAuth, goerrors.CategoryAuthz:
		return InboxErrorEntryNotOwner
	default:
		return InboxErrorInternal
	}
}

func inboxHTTPStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return http.StatusForbidden
	case goerrors.CategoryConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
