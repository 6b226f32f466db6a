package sqlstore

import (
	"strings"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
)

// stringKeyHandlers builds repository handlers for records keyed by a single
// text column. Records created through the repository carry UUID keys.
func stringKeyHandlers[T any](newRecord func() T, identifier string, key func(T) *string) repository.ModelHandlers[T] {
	return repository.ModelHandlers[T]{
		NewRecord: newRecord,
		GetID: func(record T) uuid.UUID {
			value := key(record)
			if value == nil {
				return uuid.Nil
			}
			return parseUUID(*value)
		},
		SetID: func(record T, id uuid.UUID) {
			if value := key(record); value != nil {
				*value = id.String()
			}
		},
		GetIdentifier: func() string {
			return identifier
		},
		GetIdentifierValue: func(record T) string {
			value := key(record)
			if value == nil {
				return ""
			}
			return strings.TrimSpace(*value)
		},
	}
}

func inboxEntryHandlers() repository.ModelHandlers[*inboxEntryRecord] {
	return stringKeyHandlers(func() *inboxEntryRecord { return &inboxEntryRecord{} }, "id",
		func(record *inboxEntryRecord) *string {
			if record == nil {
				return nil
			}
			return &record.ID
		})
}

func photoHandlers() repository.ModelHandlers[*photoRecord] {
	return stringKeyHandlers(func() *photoRecord { return &photoRecord{} }, "id",
		func(record *photoRecord) *string {
			if record == nil {
				return nil
			}
			return &record.ID
		})
}

func userHandlers() repository.ModelHandlers[*userRecord] {
	return stringKeyHandlers(func() *userRecord { return &userRecord{} }, "id",
		func(record *userRecord) *string {
			if record == nil {
				return nil
			}
			return &record.ID
		})
}

func countryHandlers() repository.ModelHandlers[*countryRecord] {
	return stringKeyHandlers(func() *countryRecord { return &countryRecord{} }, "code",
		func(record *countryRecord) *string {
			if record == nil {
				return nil
			}
			return &record.Code
		})
}

func monitorOutboxHandlers() repository.ModelHandlers[*monitorOutboxRecord] {
	return stringKeyHandlers(func() *monitorOutboxRecord { return &monitorOutboxRecord{} }, "id",
		func(record *monitorOutboxRecord) *string {
			if record == nil {
				return nil
			}
			return &record.ID
		})
}

func parseUUID(value string) uuid.UUID {
	parsed, err := uuid.Parse(strings.TrimSpace(value))
	if err != nil {
		return uuid.Nil
	}
	return parsed
}
