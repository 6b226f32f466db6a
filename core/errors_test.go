package core

import (
	"context"
	stderrors "errors"
	"net/http"
	"testing"

	goerrors "github.com/goliatone/go-errors"
)

func TestInboxErrorMapper_AssignsStableCodes(t *testing.T) {
	mapped := inboxErrorMapper(&PhotoTooLargeError{MaxSize: 10})
	if mapped.TextCode != InboxErrorPhotoTooLarge {
		t.Fatalf("expected photo too large text code, got %q", mapped.TextCode)
	}
	if mapped.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", mapped.Code)
	}

	mapped = inboxErrorMapper(stderrors.New("core: station key is required"))
	if mapped.TextCode != InboxErrorBadInput {
		t.Fatalf("expected bad input code, got %q", mapped.TextCode)
	}
	if mapped.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", mapped.Code)
	}

	mapped = inboxErrorMapper(stderrors.New("connection reset by peer"))
	if mapped.Code == 0 {
		t.Fatalf("expected http status code on mapped error")
	}
	if mapped.TextCode == "" {
		t.Fatalf("expected text code on mapped error")
	}
}

func TestInboxErrorMapper_TypedErrors(t *testing.T) {
	mapped := inboxErrorMapper(&InboxEntryNotFoundError{ID: "entry-9"})
	if mapped.TextCode != InboxErrorEntryNotFound || mapped.Code != http.StatusNotFound {
		t.Fatalf("expected not found envelope, got %q/%d", mapped.TextCode, mapped.Code)
	}
	mapped = inboxErrorMapper(&InboxEntryNotOwnerError{ID: "entry-9", UserID: "user-2"})
	if mapped.TextCode != InboxErrorEntryNotOwner || mapped.Code != http.StatusForbidden {
		t.Fatalf("expected not owner envelope, got %q/%d", mapped.TextCode, mapped.Code)
	}
	if mapped.Category != goerrors.CategoryAuthz {
		t.Fatalf("expected authz category, got %q", mapped.Category)
	}
}

func TestInboxErrorMapper_KeepsRichErrorAndFillsEnvelope(t *testing.T) {
	rich := goerrors.New("already shaped", goerrors.CategoryConflict)
	mapped := inboxErrorMapper(rich)
	if mapped != rich {
		t.Fatalf("expected rich error to pass through")
	}
	if mapped.Code != http.StatusConflict {
		t.Fatalf("expected conflict status to be filled, got %d", mapped.Code)
	}
	if mapped.TextCode == "" {
		t.Fatalf("expected text code to be filled")
	}
}

func TestTypedErrors_KeepSentinelChain(t *testing.T) {
	if !stderrors.Is(&InboxEntryNotFoundError{ID: "x"}, ErrInboxEntryNotFound) {
		t.Fatalf("expected not found sentinel")
	}
	if !stderrors.Is(&InboxEntryNotOwnerError{ID: "x"}, ErrInboxEntryNotOwner) {
		t.Fatalf("expected not owner sentinel")
	}
	if !stderrors.Is(&PhotoTooLargeError{MaxSize: 1}, ErrPhotoTooLarge) {
		t.Fatalf("expected photo too large sentinel")
	}
	if got := (&PhotoTooLargeError{MaxSize: 1024}).Error(); got != "Photo too large, max 1024 bytes allowed" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestValidationHelpers(t *testing.T) {
	err := newValidationError("Station not found")
	if !IsValidationError(err) {
		t.Fatalf("expected validation error")
	}
	if ErrorMessage(err) != "Station not found" {
		t.Fatalf("expected verbatim message, got %q", ErrorMessage(err))
	}
	if IsValidationError(stderrors.New("plain")) {
		t.Fatalf("expected plain error not to be a validation error")
	}
	if IsValidationError(newNotConfiguredError("inbox store")) {
		t.Fatalf("expected not configured error not to be a validation error")
	}
	if ErrorMessage(nil) != "" {
		t.Fatalf("expected empty message for nil")
	}
}

func TestServiceMethods_PreserveDomainErrors(t *testing.T) {
	world := newTestWorld(t)
	entry := world.addEntry(t, InboxEntry{CountryCode: "de", StationID: "8000", Extension: ExtensionJPG})

	err := world.service.DeleteUserInboxEntry(context.Background(), testOtherUser, entry.ID)
	if !stderrors.Is(err, ErrInboxEntryNotOwner) {
		t.Fatalf("expected not owner sentinel through service, got %v", err)
	}
	err = world.service.DeleteUserInboxEntry(context.Background(), testPhotographer, "entry-404")
	if !stderrors.Is(err, ErrInboxEntryNotFound) {
		t.Fatalf("expected not found sentinel through service, got %v", err)
	}
}

func TestMapError_FactoryWrapsErrorsTheMapperDeclines(t *testing.T) {
	calls := 0
	svc, err := NewService(Config{},
		WithErrorMapper(func(error) *goerrors.Error { return nil }),
		WithErrorFactory(func(message string, category ...goerrors.Category) *goerrors.Error {
			calls++
			return goerrors.New("station db: "+message, category...)
		}),
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	cause := stderrors.New("connection reset")
	mapped := svc.mapError(cause)

	var rich *goerrors.Error
	if !goerrors.As(mapped, &rich) || calls != 1 {
		t.Fatalf("expected factory envelope, got %v (calls=%d)", mapped, calls)
	}
	if rich.Message != "station db: connection reset" || rich.TextCode != InboxErrorInternal || !stderrors.Is(mapped, cause) {
		t.Fatalf("unexpected envelope %#v", rich)
	}
}
