package entity

import (
	"time"

	"github.com/expedientix/edn-core/constants"
)

// Document is one entry of the case inventory: a single ingested file with
// its assigned type, level and per-type structured extras.
type Document struct {
	FileID       string                   `json:"file_id"`
	Type         constants.DocumentType   `json:"type"`
	Level        constants.InventoryLevel `json:"level"`
	OriginalName string                   `json:"original_name"`
	DisplayName  string                   `json:"display_name"`
	SourcePath   string                   `json:"source_path"`
	Pages        int                      `json:"pages,omitempty"`

	// Extras carries type-specific structured data: decision keyword for
	// response letters, max amount for calculation tables, filename tags for
	// photos, metadata keywords for technical reports.
	Extras map[string]any `json:"extras,omitempty"`

	// Metadata is the raw file metadata captured at ingest time.
	Metadata FileMetadata `json:"metadata"`
}

// FileMetadata is the raw-file information captured by the metadata reader.
type FileMetadata struct {
	SizeBytes int64     `json:"size_bytes"`
	ModTime   time.Time `json:"mod_time"`
	Extension string    `json:"extension"`
}

// Well-known Extras keys.
const (
	ExtraDecision    = "decision"
	ExtraMontoMaximo = "monto_maximo"
	ExtraTags        = "tags"
	ExtraKeywords    = "keywords"
)

// FirstOfType returns the first document in docs whose type is t, in slice
// order, or nil.
func FirstOfType(docs []Document, t constants.DocumentType) *Document {
	for i := range docs {
		if docs[i].Type == t {
			return &docs[i]
		}
	}
	return nil
}

// HasType reports whether any document in docs has type t.
func HasType(docs []Document, t constants.DocumentType) bool {
	return FirstOfType(docs, t) != nil
}
