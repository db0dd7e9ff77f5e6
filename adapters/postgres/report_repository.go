package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"factorlab/ports"
)

// ReportRepository persists exported report records, one row per record,
// keyed by the screening run that produced them. It implements
// ports.ReportSink at the API boundary; the computational core itself
// never touches the database.
type ReportRepository struct {
	db    *sqlx.DB
	runID uuid.UUID
}

// NewReportRepository creates a repository bound to one run ID.
func NewReportRepository(db *sqlx.DB, runID uuid.UUID) *ReportRepository {
	return &ReportRepository{db: db, runID: runID}
}

// EnsureSchema creates the report table if it does not exist.
func (r *ReportRepository) EnsureSchema(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS factor_reports (
			id BIGSERIAL PRIMARY KEY,
			run_id UUID NOT NULL,
			report TEXT NOT NULL,
			record JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_factor_reports_run ON factor_reports (run_id, report)`

	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to ensure report schema: %w", err)
	}
	return nil
}

// WriteReport implements ports.ReportSink.
func (r *ReportRepository) WriteReport(ctx context.Context, name string, records []ports.Record) error {
	query := `
		INSERT INTO factor_reports (run_id, report, record, created_at)
		VALUES ($1, $2, $3, $4)`

	now := time.Now().UTC()
	for _, rec := range records {
		payload := make(map[string]interface{}, len(rec))
		for _, f := range rec {
			payload[f.Key] = f.Value
		}
		body, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal report record: %w", err)
		}
		if _, err := r.db.ExecContext(ctx, query, r.runID, name, body, now); err != nil {
			return fmt.Errorf("failed to insert report record: %w", err)
		}
	}
	return nil
}

// ReportRow is one persisted record row.
type ReportRow struct {
	ID        int64     `db:"id"`
	RunID     uuid.UUID `db:"run_id"`
	Report    string    `db:"report"`
	Record    []byte    `db:"record"`
	CreatedAt time.Time `db:"created_at"`
}

// GetReport loads every record of one named report for the bound run.
func (r *ReportRepository) GetReport(ctx context.Context, name string) ([]ReportRow, error) {
	query := `
		SELECT id, run_id, report, record, created_at
		FROM factor_reports
		WHERE run_id = $1 AND report = $2
		ORDER BY id`

	var rows []ReportRow
	if err := r.db.SelectContext(ctx, &rows, query, r.runID, name); err != nil {
		return nil, fmt.Errorf("failed to load report %s: %w", name, err)
	}
	return rows, nil
}
