// Package store persists compiled case records and keeps the denormalized
// client/supply cross-index in sync. The core depends only on the CaseStore
// interface; the sqlite implementation lives in sqlite.go.
package store

import (
	"context"
	"time"

	"github.com/expedientix/edn-core/constants"
	"github.com/expedientix/edn-core/internal/entity"
)

// CaseSummary is the listing row: enough to find a record without decoding
// the full payload.
type CaseSummary struct {
	CaseID      string
	CaseType    constants.CaseType
	Status      string
	ProcessedAt time.Time
}

// CaseStore is the behavior the pipeline and CLI depend on.
type CaseStore interface {
	// Save stores (or replaces) a compiled record and re-syncs the
	// client/supply cross-index for it.
	Save(ctx context.Context, record *entity.CaseRecord) error
	// Get reloads one record by case id.
	Get(ctx context.Context, caseID string) (*entity.CaseRecord, error)
	// List returns summaries of all stored cases, newest first.
	List(ctx context.Context) ([]CaseSummary, error)
	// FindByClient resolves case ids through the cross-index by RUT and/or
	// service number.
	FindByClient(ctx context.Context, rut, numeroServicio string) ([]string, error)
	// AttachChecklist writes a generated checklist into a stored record
	// without touching its compilation fields.
	AttachChecklist(ctx context.Context, caseID string, cl *entity.Checklist) error
	Close() error
}
