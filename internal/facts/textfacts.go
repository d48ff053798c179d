// Package facts derives higher-level domain facts from consolidated case
// text and from document-source strategies, each fact paired with evidence.
package facts

import (
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/expedientix/edn-core/constants"
	"github.com/expedientix/edn-core/internal/entities"
	"github.com/expedientix/edn-core/internal/entity"
)

// Extraction is one source's contribution: facts plus their evidence.
type Extraction struct {
	Facts    entity.Facts
	Evidence entity.EvidenceMap
}

func newExtraction() Extraction {
	return Extraction{Facts: entity.Facts{}, Evidence: entity.EvidenceMap{}}
}

// TextExtractor derives facts from the consolidated text blob of a case.
type TextExtractor struct {
	logger *slog.Logger
}

func NewTextExtractor(logger *slog.Logger) *TextExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &TextExtractor{logger: logger}
}

var (
	reMeses      = regexp.MustCompile(`(?i)(?:per[ií]odo\s+de\s+|[uú]ltimos\s+|durante\s+)?(\d{1,2})\s+meses`)
	reDateRange  = regexp.MustCompile(`(?i)(?:desde|entre)\s+(?:el\s+)?(\d{1,2}[/-]\d{1,2}[/-]\d{2,4})\s+(?:hasta|y|al?)\s+(?:el\s+)?(\d{1,2}[/-]\d{1,2}[/-]\d{2,4})`)
	reHistorico  = regexp.MustCompile(`(?i)(?:hist[oó]rico\s+de\s+consumos?|12\s+meses\s+de\s+consumo|consumos?\s+de\s+los\s+[uú]ltimos\s+(?:12|doce)\s+meses)`)
	reGrafico    = regexp.MustCompile(`(?i)gr[aá]fico\s+de\s+consumos?`)
	reMonto      = regexp.MustCompile(`(?i)(?:monto(?:\s+a)?\s+(?:recuperar|cobrar|pagar)|total\s+a\s+pagar|cobro\s+por\s+consumo)\D{0,40}?\$?\s?(\d{1,3}(?:\.\d{3})+)`)
	reAviso      = regexp.MustCompile(`(?i)(?:aviso\s+(?:previo\s+)?en\s+(?:la\s+)?boleta|se\s+inform[oó]\s+en\s+(?:la\s+)?boleta|notificaci[oó]n\s+previa)`)
	reActa       = regexp.MustCompile(`(?i)(?:acta\s+notarial|ante\s+notario|notario\s+p[uú]blico)`)
	reLab        = regexp.MustCompile(`(?i)(?:certificado\s+de\s+laboratorio|laboratorio\s+de\s+medidores|verificaci[oó]n\s+(?:del\s+medidor\s+)?en\s+laboratorio)`)
	reFotoMed    = regexp.MustCompile(`(?i)fotograf[ií]as?\s+(?:del\s+)?medidor`)
	reFotoSello  = regexp.MustCompile(`(?i)(?:fotograf[ií]as?\s+(?:del\s+)?sello|sellos?\s+(?:roto|adulterado|intervenido)s?)`)
	reFotoGen    = regexp.MustCompile(`(?i)(?:registro\s+fotogr[aá]fico|fotograf[ií]as?\s+adjuntas?|evidencia\s+fotogr[aá]fica)`)
)

// origenLexicon maps irregularity keywords to their category. Ordered:
// earlier entries win when the text mentions more than one.
var origenLexicon = []struct {
	keywords []string
	category string
}{
	{[]string{"bypass", "by-pass", "puente directo", "conexion directa", "conexión directa"}, "bypass"},
	{[]string{"medidor intervenido", "manipulacion", "manipulación", "intervencion del medidor", "intervención del medidor"}, "intervencion_medidor"},
	{[]string{"medidor defectuoso", "medidor en mal estado", "medidor detenido", "falla del medidor"}, "medidor_defectuoso"},
	{[]string{"sin sello", "sello roto", "sello adulterado", "sellos adulterados"}, "sello_adulterado"},
}

// FromText runs the ten text heuristics against the consolidated text. Each
// heuristic is a chain of ordered pattern attempts stopping at the first
// match; on success it emits the fact value plus one evidence entry.
//
// The evidence source is the first critical document in docs, not the
// document the pattern actually matched against. That approximation is
// inherited behavior: the consolidated blob no longer knows which file a
// span came from.
func (e *TextExtractor) FromText(text string, docs []entity.Document) Extraction {
	out := newExtraction()
	src := evidenceSource(docs)

	e.extractPeriodo(text, src, &out)
	e.extractOrigen(text, src, &out)
	e.extractFlag(text, reHistorico, entity.FactHistorico12M, src, &out)
	e.extractFlag(text, reGrafico, entity.FactGraficoConsumo, src, &out)
	e.extractFotos(text, docs, src, &out)
	e.extractMonto(text, src, &out)
	e.extractFlag(text, reAviso, entity.FactAvisoPrevio, src, &out)
	e.extractFlag(text, reActa, entity.FactActaNotarial, src, &out)
	e.extractFlag(text, reLab, entity.FactCertificadoLab, src, &out)

	return out
}

func (e *TextExtractor) extractPeriodo(text, src string, out *Extraction) {
	if m := reMeses.FindStringSubmatch(text); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			out.Facts[entity.FactPeriodoMeses] = n
			out.Evidence.Add(entity.FactPeriodoMeses, textEvidence(src, snippetAround(text, m[0])))
		}
	}
	if m := reDateRange.FindStringSubmatch(text); m != nil {
		start, okStart := parseDate(m[1])
		end, okEnd := parseDate(m[2])
		if okStart && okEnd && !end.Before(start) {
			out.Facts[entity.FactPeriodoInicio] = start.Format("2006-01-02")
			out.Facts[entity.FactPeriodoFin] = end.Format("2006-01-02")
			ev := textEvidence(src, snippetAround(text, m[0]))
			out.Evidence.Add(entity.FactPeriodoInicio, ev)
			out.Evidence.Add(entity.FactPeriodoFin, ev)

			if _, has := out.Facts[entity.FactPeriodoMeses]; !has {
				out.Facts[entity.FactPeriodoMeses] = monthsBetween(start, end)
				out.Evidence.Add(entity.FactPeriodoMeses, ev)
			}
		}
	}
}

func (e *TextExtractor) extractOrigen(text, src string, out *Extraction) {
	lower := strings.ToLower(text)
	for _, entry := range origenLexicon {
		for _, kw := range entry.keywords {
			if idx := strings.Index(lower, kw); idx >= 0 {
				out.Facts[entity.FactOrigenIrregularidad] = entry.category
				out.Evidence.Add(entity.FactOrigenIrregularidad, textEvidence(src, snippetAround(text, text[idx:idx+len(kw)])))
				return
			}
		}
	}
}

func (e *TextExtractor) extractFlag(text string, re *regexp.Regexp, fact, src string, out *Extraction) {
	if loc := re.FindStringIndex(text); loc != nil {
		out.Facts[fact] = true
		out.Evidence.Add(fact, textEvidence(src, snippetAround(text, text[loc[0]:loc[1]])))
	}
}

func (e *TextExtractor) extractFotos(text string, docs []entity.Document, src string, out *Extraction) {
	// the general flag also fires when the inventory itself holds photos
	if loc := reFotoGen.FindStringIndex(text); loc != nil {
		out.Facts[entity.FactFotos] = true
		out.Evidence.Add(entity.FactFotos, textEvidence(src, snippetAround(text, text[loc[0]:loc[1]])))
	} else if photo := entity.FirstOfType(docs, constants.DocEvidenciaFoto); photo != nil {
		out.Facts[entity.FactFotos] = true
		out.Evidence.Add(entity.FactFotos, entity.Evidence{
			Kind:        constants.EvidencePhoto,
			FileID:      photo.FileID,
			Description: photo.OriginalName,
		})
	}

	e.extractFlag(text, reFotoMed, entity.FactFotoMedidor, src, out)
	e.extractFlag(text, reFotoSello, entity.FactFotoSello, src, out)
}

func (e *TextExtractor) extractMonto(text, src string, out *Extraction) {
	if m := reMonto.FindStringSubmatch(text); m != nil {
		if n, ok := entities.AmountValue(m[1]); ok && n > entities.MinAmount {
			out.Facts[entity.FactMontoReclamado] = n
			out.Evidence.Add(entity.FactMontoReclamado, textEvidence(src, snippetAround(text, m[0])))
			return
		}
	}
	// fallback: the largest free-standing amount in the blob
	var best int
	var bestStr string
	for _, amt := range entities.ExtractAmounts(text) {
		if n, ok := entities.AmountValue(amt); ok && n > best {
			best = n
			bestStr = amt
		}
	}
	if best > 0 {
		out.Facts[entity.FactMontoReclamado] = best
		out.Evidence.Add(entity.FactMontoReclamado, textEvidence(src, snippetAround(text, bestStr)))
	}
}

// evidenceSource picks the source document id for text-derived facts: the
// first document whose type is critical, in inventory order. Approximate on
// purpose; see the package comment on FromText.
func evidenceSource(docs []entity.Document) string {
	for _, d := range docs {
		if constants.IsCritical(d.Type) {
			return d.FileID
		}
	}
	if len(docs) > 0 {
		return docs[0].FileID
	}
	return ""
}

func textEvidence(fileID, snippet string) entity.Evidence {
	return entity.Evidence{
		Kind:    constants.EvidenceText,
		FileID:  fileID,
		Page:    1,
		Snippet: snippet,
	}
}

// snippetAround returns the matched span with a little surrounding context.
// The window is widened to rune boundaries so the snippet stays valid UTF-8.
func snippetAround(text, match string) string {
	idx := strings.Index(text, match)
	if idx < 0 {
		return match
	}
	start := idx - 40
	if start < 0 {
		start = 0
	}
	for start > 0 && !utf8.RuneStart(text[start]) {
		start--
	}
	end := idx + len(match) + 40
	if end > len(text) {
		end = len(text)
	}
	for end < len(text) && !utf8.RuneStart(text[end]) {
		end++
	}
	return strings.TrimSpace(strings.Join(strings.Fields(text[start:end]), " "))
}

func parseDate(s string) (time.Time, bool) {
	s = strings.ReplaceAll(s, "-", "/")
	for _, layout := range []string{"02/01/2006", "2/1/2006", "02/01/06"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func monthsBetween(start, end time.Time) int {
	months := int(end.Month()) - int(start.Month()) + 12*(end.Year()-start.Year())
	if end.Day() > start.Day() {
		months++
	}
	if months < 1 {
		months = 1
	}
	return months
}

// String renders the extraction sizes, handy in debug logs.
func (x Extraction) String() string {
	return fmt.Sprintf("facts=%d evidence=%d", len(x.Facts), len(x.Evidence))
}
