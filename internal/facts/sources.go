package facts

import (
	"log/slog"
	"strings"

	"github.com/expedientix/edn-core/constants"
	"github.com/expedientix/edn-core/internal/entity"
)

// Graph-source labels recorded in grafico_fuente.
const (
	GraficoFromInforme = "grafico_informe"
	GraficoFromFoto    = "grafico_foto"
	GraficoFromBoleta  = "grafico_boleta"
)

var graphKeywords = []string{"grafico", "gráfico", "consumo", "historico", "histórico"}

// sourceStrategy is one attempt at resolving the consumption-graph fact.
// Returns false when the strategy has nothing to contribute.
type sourceStrategy struct {
	name string
	run  func(docs []entity.Document, out *Extraction) bool
}

// SourceSelector resolves facts that can come from multiple document sources,
// principally "is there a consumption graph", via an ordered fallback chain.
// The first successful strategy short-circuits the rest.
type SourceSelector struct {
	strategies []sourceStrategy
	logger     *slog.Logger
}

func NewSourceSelector(logger *slog.Logger) *SourceSelector {
	if logger == nil {
		logger = slog.Default()
	}
	s := &SourceSelector{logger: logger}
	s.strategies = []sourceStrategy{
		{name: "informe_tecnico", run: s.fromTechnicalReport},
		{name: "evidencia_foto", run: s.fromPhotoFilenames},
		{name: "boleta", run: s.fromBill},
	}
	return s
}

// FromSources runs the strategy chain. If every strategy fails, the graph
// fact is explicitly set to false with no source, a terminal default distinct
// from the text extractor's leave-unset policy.
func (s *SourceSelector) FromSources(docs []entity.Document) Extraction {
	out := newExtraction()
	for _, st := range s.strategies {
		if st.run(docs, &out) {
			s.logger.Debug("graph source resolved", "strategy", st.name)
			return out
		}
	}
	out.Facts[entity.FactGraficoConsumo] = false
	return out
}

// fromTechnicalReport scans technical-report documents' structured extras and
// metadata keywords for graph-related terms.
func (s *SourceSelector) fromTechnicalReport(docs []entity.Document, out *Extraction) bool {
	for _, d := range docs {
		if d.Type != constants.DocInformeTecnico {
			continue
		}
		keywords, _ := d.Extras[entity.ExtraKeywords].([]string)
		for _, kw := range keywords {
			if containsGraphTerm(kw) {
				out.Facts[entity.FactGraficoConsumo] = true
				out.Facts[entity.FactGraficoFuente] = GraficoFromInforme
				out.Facts[entity.FactHistorico12M] = true
				out.Evidence.Add(entity.FactGraficoConsumo, entity.Evidence{
					Kind:        constants.EvidenceText,
					FileID:      d.FileID,
					Page:        1,
					Description: "gráfico de consumo referido en informe técnico",
					Snippet:     kw,
				})
				return true
			}
		}
	}
	return false
}

// fromPhotoFilenames scans photographic-evidence filenames for graph terms.
func (s *SourceSelector) fromPhotoFilenames(docs []entity.Document, out *Extraction) bool {
	for _, d := range docs {
		if d.Type != constants.DocEvidenciaFoto && d.Type != constants.DocGraficoConsumo {
			continue
		}
		if containsGraphTerm(d.OriginalName) {
			out.Facts[entity.FactGraficoConsumo] = true
			out.Facts[entity.FactGraficoFuente] = GraficoFromFoto
			out.Evidence.Add(entity.FactGraficoConsumo, entity.Evidence{
				Kind:        constants.EvidencePhoto,
				FileID:      d.FileID,
				Description: d.OriginalName,
			})
			return true
		}
	}
	return false
}

// fromBill is the bill-extraction strategy. Bill parsing is not wired up
// yet, so it never succeeds.
func (s *SourceSelector) fromBill([]entity.Document, *Extraction) bool {
	return false
}

func containsGraphTerm(s string) bool {
	lower := strings.ToLower(s)
	for _, kw := range graphKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
