package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"github.com/expedientix/edn-core/constants"
	"github.com/expedientix/edn-core/internal/common"
	"github.com/expedientix/edn-core/internal/entity"
)

const schema = `
CREATE TABLE IF NOT EXISTS case_record (
	case_id      TEXT PRIMARY KEY,
	case_type    TEXT NOT NULL,
	status       TEXT NOT NULL,
	processed_at TEXT NOT NULL,
	payload      TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS client_index (
	rut             TEXT NOT NULL DEFAULT '',
	numero_servicio TEXT NOT NULL DEFAULT '',
	case_id         TEXT NOT NULL REFERENCES case_record(case_id) ON DELETE CASCADE,
	PRIMARY KEY (rut, numero_servicio, case_id)
);
CREATE INDEX IF NOT EXISTS idx_client_rut ON client_index(rut);
CREATE INDEX IF NOT EXISTS idx_client_servicio ON client_index(numero_servicio);
`

// SQLiteStore is the file-backed CaseStore. Pass ":memory:" as path for an
// in-memory store in tests.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

func OpenSQLite(ctx context.Context, path string, logger *slog.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	logger.Info("case store opened", "path", path)
	return &SQLiteStore{db: db, logger: logger}, nil
}

func (s *SQLiteStore) Save(ctx context.Context, record *entity.CaseRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO case_record (case_id, case_type, status, processed_at, payload)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(case_id) DO UPDATE SET
			case_type = excluded.case_type,
			status = excluded.status,
			processed_at = excluded.processed_at,
			payload = excluded.payload`,
		record.CaseID, string(record.CaseType), record.Status,
		record.ProcessedAt.UTC().Format(time.RFC3339), string(payload),
	)
	if err != nil {
		return fmt.Errorf("upsert record: %w", err)
	}

	// re-sync the cross-index for this case
	if _, err := tx.ExecContext(ctx, `DELETE FROM client_index WHERE case_id = ?`, record.CaseID); err != nil {
		return fmt.Errorf("clear index: %w", err)
	}
	if record.Context.RUT != "" || record.Context.NumeroServicio != "" {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO client_index (rut, numero_servicio, case_id) VALUES (?, ?, ?)`,
			record.Context.RUT, record.Context.NumeroServicio, record.CaseID,
		)
		if err != nil {
			return fmt.Errorf("update index: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	s.logger.Debug("case saved", "case_id", record.CaseID, "status", record.Status)
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, caseID string) (*entity.CaseRecord, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM case_record WHERE case_id = ?`, caseID,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.NewAppError("CASE_NOT_FOUND", caseID, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("select record: %w", err)
	}

	var record entity.CaseRecord
	if err := json.Unmarshal([]byte(payload), &record); err != nil {
		return nil, fmt.Errorf("decode record %s: %w", caseID, err)
	}
	return &record, nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]CaseSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT case_id, case_type, status, processed_at FROM case_record ORDER BY processed_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("select summaries: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var out []CaseSummary
	for rows.Next() {
		var cs CaseSummary
		var caseType, processedAt string
		if err := rows.Scan(&cs.CaseID, &caseType, &cs.Status, &processedAt); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		cs.CaseType = constants.CaseType(caseType)
		if t, err := time.Parse(time.RFC3339, processedAt); err == nil {
			cs.ProcessedAt = t
		}
		out = append(out, cs)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) FindByClient(ctx context.Context, rut, numeroServicio string) ([]string, error) {
	if rut == "" && numeroServicio == "" {
		return nil, common.NewAppError("EMPTY_QUERY", "rut or numero_servicio required", common.ErrInvalidInput)
	}
	query := `SELECT DISTINCT case_id FROM client_index WHERE 1=1`
	var args []any
	if rut != "" {
		query += ` AND rut = ?`
		args = append(args, rut)
	}
	if numeroServicio != "" {
		query += ` AND numero_servicio = ?`
		args = append(args, numeroServicio)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query index: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan index row: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *SQLiteStore) AttachChecklist(ctx context.Context, caseID string, cl *entity.Checklist) error {
	record, err := s.Get(ctx, caseID)
	if err != nil {
		return err
	}
	record.Checklist = cl
	return s.Save(ctx, record)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
