package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/tair/prompt-favorites/internal/favorites/domain"
	"github.com/tair/prompt-favorites/pkg/logger"
)

// reconcileAttempts bounds retries when concurrent boots race on DDL
const reconcileAttempts = 3

// SchemaReconciler converges the favorites table to its canonical shape:
// categories is a JSONB array, defaults to '[]', and is never null.
// Historical deployments left the column as nullable JSON, plain text, or
// missing entirely; every legacy shape is rewritten here, once, at the
// storage layer. Safe to run on every boot.
type SchemaReconciler struct {
	db *sql.DB
}

// NewSchemaReconciler creates a new schema reconciler
func NewSchemaReconciler(db *sql.DB) *SchemaReconciler {
	return &SchemaReconciler{db: db}
}

// Reconcile brings the favorites schema to its canonical shape. Retryable
// errors from racing DDL (duplicate object, deadlock, serialization
// failure) re-run the idempotent check; anything else is fatal for writes.
func (s *SchemaReconciler) Reconcile(ctx context.Context) error {
	var err error
	for attempt := 1; attempt <= reconcileAttempts; attempt++ {
		err = s.reconcileOnce(ctx)
		if err == nil {
			return nil
		}
		if !isRetryableSchemaErr(err) {
			break
		}
		logger.Warn(ctx).
			Err(err).
			Int("attempt", attempt).
			Msg("Schema reconciliation hit concurrent DDL, retrying")
	}

	if errors.Is(err, domain.ErrSchemaReconciliation) {
		return err
	}
	return fmt.Errorf("%w: %v", domain.ErrSchemaReconciliation, err)
}

func (s *SchemaReconciler) reconcileOnce(ctx context.Context) error {
	createTable := `
		CREATE TABLE IF NOT EXISTS favorites (
			id BIGSERIAL PRIMARY KEY,
			user_id TEXT NOT NULL,
			prompt TEXT NOT NULL,
			categories JSONB NOT NULL DEFAULT '[]'::jsonb,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`
	if _, err := s.db.ExecContext(ctx, createTable); err != nil {
		return fmt.Errorf("failed to create favorites table: %w", err)
	}

	createIndex := `CREATE INDEX IF NOT EXISTS idx_favorites_user_id ON favorites (user_id)`
	if _, err := s.db.ExecContext(ctx, createIndex); err != nil {
		return fmt.Errorf("failed to create user index: %w", err)
	}

	dataType, err := s.categoriesColumnType(ctx)
	if err != nil {
		return err
	}

	switch dataType {
	case "":
		// Column dropped by an old migration attempt.
		addColumn := `ALTER TABLE favorites ADD COLUMN categories JSONB NOT NULL DEFAULT '[]'::jsonb`
		if _, err := s.db.ExecContext(ctx, addColumn); err != nil {
			return fmt.Errorf("failed to add categories column: %w", err)
		}
		return nil
	case "text", "character varying":
		// Legacy plain-text column: each value becomes a one-element array.
		convert := `
			ALTER TABLE favorites
			ALTER COLUMN categories TYPE JSONB
			USING CASE
				WHEN categories IS NULL OR categories = '' THEN '[]'::jsonb
				ELSE jsonb_build_array(categories)
			END
		`
		if _, err := s.db.ExecContext(ctx, convert); err != nil {
			return fmt.Errorf("failed to convert text categories to jsonb: %w", err)
		}
	case "json":
		convert := `
			ALTER TABLE favorites
			ALTER COLUMN categories TYPE JSONB
			USING COALESCE(categories::jsonb, '[]'::jsonb)
		`
		if _, err := s.db.ExecContext(ctx, convert); err != nil {
			return fmt.Errorf("failed to convert json categories to jsonb: %w", err)
		}
	case "jsonb":
		// Already the canonical type; values may still need normalizing.
	default:
		return domain.SchemaReconciliationError("categories column has unreconcilable type %q", dataType)
	}

	return s.normalizeValues(ctx)
}

// normalizeValues rewrites non-canonical jsonb values in place and locks
// in the default and NOT NULL constraint. Every statement is a no-op on
// an already-reconciled table, so a second run changes nothing.
func (s *SchemaReconciler) normalizeValues(ctx context.Context) error {
	backfillNulls := `UPDATE favorites SET categories = '[]'::jsonb WHERE categories IS NULL`
	if _, err := s.db.ExecContext(ctx, backfillNulls); err != nil {
		return fmt.Errorf("failed to backfill null categories: %w", err)
	}

	wrapScalars := `
		UPDATE favorites
		SET categories = jsonb_build_array(categories)
		WHERE jsonb_typeof(categories) <> 'array'
	`
	if _, err := s.db.ExecContext(ctx, wrapScalars); err != nil {
		return fmt.Errorf("failed to wrap scalar categories: %w", err)
	}

	setDefault := `ALTER TABLE favorites ALTER COLUMN categories SET DEFAULT '[]'::jsonb`
	if _, err := s.db.ExecContext(ctx, setDefault); err != nil {
		return fmt.Errorf("failed to set categories default: %w", err)
	}

	setNotNull := `ALTER TABLE favorites ALTER COLUMN categories SET NOT NULL`
	if _, err := s.db.ExecContext(ctx, setNotNull); err != nil {
		return fmt.Errorf("failed to set categories not null: %w", err)
	}

	return nil
}

// categoriesColumnType returns the declared type of the categories
// column, or "" if the column does not exist.
func (s *SchemaReconciler) categoriesColumnType(ctx context.Context) (string, error) {
	var dataType string
	query := `
		SELECT data_type
		FROM information_schema.columns
		WHERE table_name = 'favorites' AND column_name = 'categories'
	`

	err := s.db.QueryRowContext(ctx, query).Scan(&dataType)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to inspect categories column: %w", err)
	}

	return dataType, nil
}

// isRetryableSchemaErr reports whether the error came from concurrent
// structural changes and the idempotent check should simply re-run.
func isRetryableSchemaErr(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}

	switch string(pqErr.Code) {
	case "40001", // serialization_failure
		"40P01", // deadlock_detected
		"42701", // duplicate_column
		"42P07", // duplicate_table
		"23505": // unique_violation from racing index creation
		return true
	}
	return false
}
