package extract

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/expedientix/edn-core/constants"
	"github.com/expedientix/edn-core/internal/common"
)

// Config holds the external-binary settings for the extractor.
type Config struct {
	Pdftotext string        // binary name or absolute path; if empty -> "pdftotext"
	MaxPages  int           // 0 = no limit
	Timeout   time.Duration // per file, covering both extraction passes; 0 = no limit
}

// Extractor is the production TextExtractor: pdftotext for PDFs, zip/XML for
// word-processor files, nothing for images (image OCR is out of scope).
type Extractor struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewExtractor(cfg Config, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	return &Extractor{cfg: cfg, runner: execRunner{}, logger: logger}
}

// Extract picks a strategy based on file extension.
func (e *Extractor) Extract(ctx context.Context, path string, withPositions bool) (Result, error) {
	start := time.Now()
	if e.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.Timeout)
		defer cancel()
	}
	ext := constants.NormalizeExt(filepath.Ext(path))
	e.logger.Debug("starting extraction", "path", path, "ext", ext, "positions", withPositions)

	switch constants.MapExtToFormat(ext) {
	case constants.FormatPDF:
		res, err := e.extractPDF(ctx, path, withPositions)
		res.Duration = time.Since(start)
		return res, err
	case constants.FormatDocx:
		if ext == "doc" {
			// legacy binary .doc has no extractable XML part
			return Result{Format: constants.FormatDocx}, fmt.Errorf("%w: %q", common.ErrUnsupported, ext)
		}
		res, err := e.extractDocx(path)
		res.Duration = time.Since(start)
		return res, err
	case constants.FormatImage:
		// Images carry no text layer here; they are classified by name and
		// extension only.
		return Result{
			Format:   constants.FormatImage,
			Method:   "none",
			Pages:    1,
			Duration: time.Since(start),
		}, nil
	default:
		e.logger.Error("unsupported extension", "extension", ext)
		return Result{}, fmt.Errorf("%w: %q", common.ErrUnsupported, ext)
	}
}
