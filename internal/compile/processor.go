// Package compile drives the per-file pipeline over a case folder and builds
// the normalized case record: inventory, unified context, consolidated facts
// and the evidence map.
package compile

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/expedientix/edn-core/constants"
	"github.com/expedientix/edn-core/internal/classify"
	"github.com/expedientix/edn-core/internal/entities"
	"github.com/expedientix/edn-core/internal/entity"
	"github.com/expedientix/edn-core/internal/extract"
	"github.com/expedientix/edn-core/internal/facts"
)

// Processor orchestrates extraction, classification and fact consolidation
// for one case folder. Safe to share across goroutines: all state is per
// call.
type Processor struct {
	extractor  extract.TextExtractor
	meta       extract.MetadataReader
	classifier *classify.Classifier
	textFacts  *facts.TextExtractor
	sources    *facts.SourceSelector
	logger     *slog.Logger
}

func NewProcessor(tx extract.TextExtractor, meta extract.MetadataReader, cl *classify.Classifier, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if meta == nil {
		meta = extract.FSMetadataReader{}
	}
	if cl == nil {
		cl = classify.New(nil, logger)
	}
	return &Processor{
		extractor:  tx,
		meta:       meta,
		classifier: cl,
		textFacts:  facts.NewTextExtractor(logger),
		sources:    facts.NewSourceSelector(logger),
		logger:     logger,
	}
}

// processedFile pairs an inventory entry with its extraction output.
type processedFile struct {
	doc  entity.Document
	text string
	ents entities.Entities
}

// ProcessCase compiles the case record for every non-hidden file in folder.
// Per-file failures are recorded as diagnostics and never abort the case.
func (p *Processor) ProcessCase(ctx context.Context, caseID, folder string) (*entity.CaseRecord, error) {
	names, err := listFiles(folder)
	if err != nil {
		return nil, fmt.Errorf("list case folder: %w", err)
	}

	record := &entity.CaseRecord{
		CaseID:      caseID,
		ProcessedAt: time.Now().UTC(),
		Facts:       entity.Facts{},
		Evidence:    entity.EvidenceMap{},
	}

	var processed []processedFile
	typeSeq := map[constants.DocumentType]int{}
	for _, name := range names {
		path := filepath.Join(folder, name)
		pf, err := p.processFile(ctx, path, typeSeq)
		if err != nil {
			p.logger.Warn("file skipped", "case_id", caseID, "file", name, "error", err)
			record.Diagnostics = append(record.Diagnostics, entity.Diagnostic{
				Stage:   "extract",
				Subject: name,
				Detail:  err.Error(),
			})
			continue
		}
		processed = append(processed, pf)
		record.Documents = append(record.Documents, pf.doc)
	}

	record.Context = unifyContext(processed)
	record.Alerts = missingDocumentAlerts(record.Documents)
	record.CaseType = p.classifier.ClassifyCaseType(record.Documents, record.Context)
	record.Categories = deriveCategories(record.Documents)

	blob := consolidatedText(processed)
	textEx := p.textFacts.FromText(blob, record.Documents)
	sourceEx := p.sources.FromSources(record.Documents)
	merged := facts.BuildFeatures(textEx, sourceEx, record.Documents)
	record.Facts = merged.Facts
	record.Evidence = merged.Evidence

	if hasMissingCritical(record.Alerts) {
		record.Status = "incompleto"
	} else {
		record.Status = "compilado"
	}

	p.logger.Info("case compiled",
		"case_id", caseID,
		"documents", len(record.Documents),
		"skipped", len(record.Diagnostics),
		"case_type", record.CaseType,
		"facts", len(record.Facts),
	)
	return record, nil
}

// processFile runs extract -> classify -> entities for one file and builds
// its inventory entry. Word positions are captured only when the filename
// pre-classifies the file as one of the critical types; the bounding-box pass
// costs a second run of the extractor binary.
func (p *Processor) processFile(ctx context.Context, path string, typeSeq map[constants.DocumentType]int) (processedFile, error) {
	name := filepath.Base(path)

	preType := p.classifier.ClassifyDocument(name, "")
	withPositions := constants.IsCritical(preType)

	res, err := p.extractor.Extract(ctx, path, withPositions)
	if err != nil {
		return processedFile{}, fmt.Errorf("extract %s: %w", name, err)
	}

	docType := p.classifier.ClassifyDocument(name, res.Text)
	ents := entities.ExtractAll(res.Text, res.Positions)

	meta, err := p.meta.Read(path)
	if err != nil {
		return processedFile{}, fmt.Errorf("read metadata %s: %w", name, err)
	}

	typeSeq[docType]++
	doc := entity.Document{
		FileID:       uuid.NewString(),
		Type:         docType,
		Level:        constants.LevelFor(docType),
		OriginalName: name,
		DisplayName:  displayName(docType, typeSeq[docType], meta.Extension),
		SourcePath:   path,
		Pages:        res.Pages,
		Extras:       typeExtras(docType, name, res.Text),
		Metadata:     meta,
	}

	return processedFile{doc: doc, text: res.Text, ents: ents}, nil
}

// listFiles returns the non-hidden regular files of folder, sorted by name.
// Sorting keeps the first-found-wins tie-breaks deterministic across runs.
func listFiles(folder string) ([]string, error) {
	dirents, err := os.ReadDir(folder)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, d := range dirents {
		if d.IsDir() || strings.HasPrefix(d.Name(), ".") {
			continue
		}
		names = append(names, d.Name())
	}
	sort.Strings(names)
	return names, nil
}

func displayName(t constants.DocumentType, seq int, ext string) string {
	if ext != "" {
		return fmt.Sprintf("%s_%02d.%s", t, seq, ext)
	}
	return fmt.Sprintf("%s_%02d", t, seq)
}

// unifyContext fills the identity fields from the first non-empty entity of
// each kind across all files, in processing order.
func unifyContext(processed []processedFile) entity.UnifiedContext {
	var ctx entity.UnifiedContext
	setIfEmpty := func(dst *string, m entities.Match) {
		if *dst == "" && m.Found() {
			*dst = m.Value
		}
	}
	for _, pf := range processed {
		setIfEmpty(&ctx.RUT, pf.ents.RUT)
		setIfEmpty(&ctx.ClientName, pf.ents.ClientName)
		setIfEmpty(&ctx.NumeroServicio, pf.ents.ServiceID)
		setIfEmpty(&ctx.Address, pf.ents.Address)
		setIfEmpty(&ctx.Comuna, pf.ents.Comuna)
		setIfEmpty(&ctx.Email, pf.ents.Email)
		setIfEmpty(&ctx.Phone, pf.ents.Phone)
	}
	return ctx
}

// alertSeverity per missing critical type.
var alertSeverity = map[constants.DocumentType]string{
	constants.DocCartaRespuesta: "alta",
	constants.DocOrdenTrabajo:   "alta",
	constants.DocTablaCalculo:   "media",
}

// missingDocumentAlerts raises one level_0_missing alert per absent critical
// type, in the canonical critical-type order.
func missingDocumentAlerts(docs []entity.Document) []entity.Alert {
	var alerts []entity.Alert
	for _, t := range constants.CriticalTypes {
		if entity.HasType(docs, t) {
			continue
		}
		alerts = append(alerts, entity.Alert{
			Code:     entity.AlertMissingCritical,
			Severity: alertSeverity[t],
			Message:  fmt.Sprintf("documento crítico ausente: %s", t),
		})
	}
	return alerts
}

// categoryFor groups document types into the functional categories the
// downstream layers key on.
func categoryFor(t constants.DocumentType) string {
	switch t {
	case constants.DocCartaRespuesta:
		return "respuesta"
	case constants.DocOrdenTrabajo, constants.DocInformeTecnico, constants.DocEvidenciaFoto:
		return "terreno"
	case constants.DocTablaCalculo, constants.DocGraficoConsumo:
		return "calculo"
	default:
		return "otros"
	}
}

func deriveCategories(docs []entity.Document) map[string][]string {
	out := map[string][]string{}
	for _, d := range docs {
		cat := categoryFor(d.Type)
		out[cat] = append(out[cat], d.FileID)
	}
	return out
}

// consolidatedText concatenates the text of every critical document plus the
// supporting types that carry narrative (technical reports and consumption
// graphs), in processing order.
func consolidatedText(processed []processedFile) string {
	var parts []string
	for _, pf := range processed {
		if pf.text == "" {
			continue
		}
		switch {
		case constants.IsCritical(pf.doc.Type),
			pf.doc.Type == constants.DocInformeTecnico,
			pf.doc.Type == constants.DocGraficoConsumo:
			parts = append(parts, pf.text)
		}
	}
	return extract.Normalize(strings.Join(parts, "\n\n"))
}

func hasMissingCritical(alerts []entity.Alert) bool {
	for _, a := range alerts {
		if a.Code == entity.AlertMissingCritical {
			return true
		}
	}
	return false
}
