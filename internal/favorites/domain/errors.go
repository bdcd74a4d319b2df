package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds exposed to clients in error payloads
const (
	KindValidation           = "validation_error"
	KindUnauthorized         = "unauthorized"
	KindStoreUnavailable     = "store_unavailable"
	KindSchemaReconciliation = "schema_reconciliation_error"
)

// Sentinel errors for classifying failures across layers
var (
	ErrValidation           = errors.New(KindValidation)
	ErrUnauthorized         = errors.New(KindUnauthorized)
	ErrStoreUnavailable     = errors.New(KindStoreUnavailable)
	ErrSchemaReconciliation = errors.New(KindSchemaReconciliation)
)

// ValidationError wraps ErrValidation with a client-facing detail message
func ValidationError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// StoreUnavailableError wraps ErrStoreUnavailable with a detail message.
// The wrapped cause stays server-side; callers only see the detail string.
func StoreUnavailableError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrStoreUnavailable, fmt.Sprintf(format, args...))
}

// SchemaReconciliationError wraps ErrSchemaReconciliation with a detail message
func SchemaReconciliationError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrSchemaReconciliation, fmt.Sprintf(format, args...))
}

// Detail returns the human-readable portion of a wrapped domain error,
// with the leading kind stripped.
func Detail(err error) string {
	msg := err.Error()
	for _, kind := range []string{KindValidation, KindUnauthorized, KindStoreUnavailable, KindSchemaReconciliation} {
		if idx := strings.Index(msg, kind+": "); idx >= 0 {
			return msg[idx+len(kind)+2:]
		}
	}
	return msg
}

// Kind returns the machine-readable kind for an error, defaulting to
// store_unavailable for unclassified failures so internals never leak.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrUnauthorized):
		return KindUnauthorized
	case errors.Is(err, ErrSchemaReconciliation):
		return KindSchemaReconciliation
	default:
		return KindStoreUnavailable
	}
}
