// pkg/audit/audit.go
package audit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/cafedata/cleanse/pkg/model"
)

// Recorder persists repair operations into a Postgres tracking table so
// cleaning decisions stay reviewable after the run. The sink is optional;
// the pipeline never depends on it.
type Recorder struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewRecorder connects to the audit database and ensures the tracking table
// exists.
func NewRecorder(ctx context.Context, dsn string, logger *zap.Logger) (*Recorder, error) {
	if dsn == "" {
		return nil, errors.New("audit database DSN cannot be empty")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to audit database: %w", err)
	}

	r := &Recorder{
		db:     db,
		logger: logger.Named("audit"),
	}
	if err := r.setupTable(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to setup audit table: %w", err)
	}
	return r, nil
}

// setupTable ensures the repaired_on_ingress tracking table exists.
func (r *Recorder) setupTable(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	createTableSQL := `
		CREATE TABLE IF NOT EXISTS public.repaired_on_ingress (
			id SERIAL PRIMARY KEY,
			run_id TEXT NOT NULL,
			column_name TEXT NOT NULL,
			row_identifier TEXT NOT NULL,
			original_value TEXT,
			new_value TEXT NOT NULL,
			operation TEXT NOT NULL,
			reason TEXT NOT NULL,
			repaired_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
		)
	`
	if _, err := r.db.ExecContext(ctx, createTableSQL); err != nil {
		return fmt.Errorf("failed to create tracking table: %w", err)
	}

	r.logger.Info("Ensured repaired_on_ingress table exists")
	return nil
}

// Record batch inserts the run's repair operations in one transaction.
func (r *Recorder) Record(ctx context.Context, ops []model.RepairOperation) error {
	if len(ops) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				r.logger.Error("Failed to rollback transaction",
					zap.Error(rbErr),
					zap.Error(err))
			}
		}
	}()

	stmt, err := tx.PreparexContext(ctx, `
		INSERT INTO public.repaired_on_ingress
		(run_id, column_name, row_identifier, original_value, new_value,
		 operation, reason, repaired_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, op := range ops {
		_, err = stmt.ExecContext(ctx,
			op.RunID,
			op.ColumnName,
			op.RowIdentifier,
			toNullableString(op.OriginalValue),
			op.NewValue,
			op.Operation,
			op.Reason,
			op.RepairedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert repair operation: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.logger.Info("Recorded repair operations", zap.Int("count", len(ops)))
	return nil
}

// Close releases the database connection.
func (r *Recorder) Close() error {
	return r.db.Close()
}

// toNullableString safely converts an original value to a nullable string.
func toNullableString(v interface{}) *string {
	if v == nil {
		return nil
	}
	s := model.AsString(v)
	return &s
}
