// Package classify maps files to document types and assembled inventories to
// case types. All chains are ordered first-match-wins; the order is data, not
// code structure, so the tie-break policy stays visible.
package classify

import (
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/expedientix/edn-core/constants"
	"github.com/expedientix/edn-core/internal/entity"
)

// TypeRule is one step in the document-type chain: a target type and the
// keywords that select it, by filename first, by content second.
type TypeRule struct {
	Type         constants.DocumentType
	NameKeywords []string
	TextKeywords []string
}

// DefaultTypeRules is the canonical classification order. A name matching two
// categories resolves to the earlier entry; keep this order stable.
var DefaultTypeRules = []TypeRule{
	{
		Type:         constants.DocEvidenciaFoto,
		NameKeywords: []string{"foto", "fotografia", "evidencia", "img_"},
		TextKeywords: []string{"registro fotografico"},
	},
	{
		Type:         constants.DocCartaRespuesta,
		NameKeywords: []string{"carta", "respuesta", "resp_"},
		TextKeywords: []string{"en respuesta a su reclamo", "carta respuesta", "estimado cliente"},
	},
	{
		Type:         constants.DocOrdenTrabajo,
		NameKeywords: []string{"orden", "trabajo", "ot_", "ot-"},
		TextKeywords: []string{"orden de trabajo", "orden de servicio"},
	},
	{
		Type:         constants.DocTablaCalculo,
		NameKeywords: []string{"tabla", "calculo", "cálculo", "liquidacion", "liquidación", "cnr"},
		TextKeywords: []string{"tabla de calculo", "tabla de cálculo", "detalle de liquidacion", "consumo no registrado"},
	},
	{
		Type:         constants.DocGraficoConsumo,
		NameKeywords: []string{"grafico", "gráfico", "consumo_graf"},
		TextKeywords: []string{"grafico de consumo", "gráfico de consumo", "historico de consumo", "histórico de consumo"},
	},
	{
		Type:         constants.DocInformeTecnico,
		NameKeywords: []string{"informe", "tecnico", "técnico", "revision", "revisión", "inspeccion", "inspección"},
		TextKeywords: []string{"informe tecnico", "informe técnico", "inspeccion en terreno", "inspección en terreno"},
	},
}

// Keywords used by the case-type decision tree.
var (
	interruptionKeywords = []string{"corte", "suspension", "suspensión", "reposicion", "reposición", "interrupcion", "interrupción"}
	damageKeywords       = []string{"dano", "daño", "danio", "quemado", "artefacto"}
)

// Classifier runs the ordered chains. Rules are injected so tests (and, if it
// ever comes to it, per-tenant policy) can swap the table.
type Classifier struct {
	rules  []TypeRule
	logger *slog.Logger
}

func New(rules []TypeRule, logger *slog.Logger) *Classifier {
	if rules == nil {
		rules = DefaultTypeRules
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{rules: rules, logger: logger}
}

// ClassifyDocument assigns a document type for a file given its name and
// extracted text. Image extensions short-circuit to photographic evidence;
// otherwise one filename pass over the ordered rules, then one content pass,
// then "otro".
func (c *Classifier) ClassifyDocument(filename, text string) constants.DocumentType {
	ext := constants.NormalizeExt(filepath.Ext(filename))
	if constants.IsImageExt(ext) {
		return constants.DocEvidenciaFoto
	}

	name := strings.ToLower(filename)
	for _, r := range c.rules {
		if containsAny(name, r.NameKeywords) {
			return r.Type
		}
	}

	lower := strings.ToLower(text)
	if lower != "" {
		for _, r := range c.rules {
			if containsAny(lower, r.TextKeywords) {
				return r.Type
			}
		}
	}

	return constants.DocOtro
}

// ClassifyCaseType is the three-rule heuristic decision tree, evaluated in
// order; unmatched cases fall to the CNR default, never to "unknown".
func (c *Classifier) ClassifyCaseType(docs []entity.Document, _ entity.UnifiedContext) constants.CaseType {
	// 1) work order + calculation table present => consumption recovery
	if entity.HasType(docs, constants.DocOrdenTrabajo) && entity.HasType(docs, constants.DocTablaCalculo) {
		return constants.CaseCNR
	}

	// 2) any filename mentioning a supply interruption => supply cut
	for _, d := range docs {
		if containsAny(strings.ToLower(d.OriginalName), interruptionKeywords) {
			return constants.CaseCorteSuministro
		}
	}

	// 3) photographic evidence tagged with a damage keyword => equipment damage
	for _, d := range docs {
		if d.Type != constants.DocEvidenciaFoto {
			continue
		}
		tags, _ := d.Extras[entity.ExtraTags].([]string)
		for _, tag := range tags {
			if containsAny(strings.ToLower(tag), damageKeywords) {
				return constants.CaseDanoEquipos
			}
		}
	}

	return constants.DefaultCaseType
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if kw != "" && strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
