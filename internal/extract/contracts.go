package extract

import (
	"context"
	"time"

	"github.com/expedientix/edn-core/constants"
	"github.com/expedientix/edn-core/internal/entity"
)

// TextExtractor is the per-format file -> text collaborator the compile
// pipeline depends on. Position capture is opt-in per call because the
// bounding-box pass is the expensive one.
type TextExtractor interface {
	Extract(ctx context.Context, path string, withPositions bool) (Result, error)
}

// MetadataReader reads raw file metadata.
type MetadataReader interface {
	Read(path string) (entity.FileMetadata, error)
}

// WordBox is one positioned word on a page.
type WordBox struct {
	Text string
	Box  entity.BoundingBox
}

// PageWords holds the positioned words of one page (1-based).
type PageWords struct {
	Page  int
	Words []WordBox
}

// Result is the outcome of one extraction.
type Result struct {
	Text      string
	Pages     int
	Format    constants.FileFormat
	Method    string // "pdf-text" | "pdf-bbox" | "docx-xml" | "none"
	Positions []PageWords
	Duration  time.Duration
	Warnings  []string
}
