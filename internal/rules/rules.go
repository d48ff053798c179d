package rules

import (
	"fmt"

	"github.com/expedientix/edn-core/constants"
	"github.com/expedientix/edn-core/internal/entity"
)

// MaxRetroactiveMonths is the legal cap on retroactive billing periods.
const MaxRetroactiveMonths = 12

func ruleClientIdentified(r *entity.CaseRecord) Outcome {
	switch {
	case r.Context.RUT != "" && r.Context.ClientName != "":
		return Outcome{
			Status:   constants.StatusCumple,
			Evidence: fmt.Sprintf("cliente identificado: %s, RUT %s", r.Context.ClientName, r.Context.RUT),
		}
	case r.Context.RUT != "" || r.Context.ClientName != "":
		return Outcome{
			Status:   constants.StatusRevisionManual,
			Evidence: "identificación parcial del cliente; verificar RUT y nombre",
		}
	default:
		return Outcome{
			Status:   constants.StatusNoCumple,
			Evidence: "no se encontró identificación del cliente en los documentos",
		}
	}
}

func ruleServiceIdentified(r *entity.CaseRecord) Outcome {
	if r.Context.NumeroServicio != "" {
		return Outcome{
			Status:   constants.StatusCumple,
			Evidence: fmt.Sprintf("número de servicio %s", r.Context.NumeroServicio),
		}
	}
	return Outcome{
		Status:   constants.StatusNoCumple,
		Evidence: "número de servicio no identificado",
	}
}

// rulePresence builds a document-presence rule for a given type. The deep
// link points at the first document of that type.
func rulePresence(t constants.DocumentType, label string) RuleFunc {
	return func(r *entity.CaseRecord) Outcome {
		if doc := entity.FirstOfType(r.Documents, t); doc != nil {
			return Outcome{
				Status:   constants.StatusCumple,
				Evidence: fmt.Sprintf("%s presente: %s", label, doc.OriginalName),
				Ref: &entity.Evidence{
					Kind:        constants.EvidenceText,
					FileID:      doc.FileID,
					Page:        1,
					Description: doc.DisplayName,
				},
			}
		}
		return Outcome{
			Status:   constants.StatusNoCumple,
			Evidence: fmt.Sprintf("%s ausente del expediente", label),
		}
	}
}

func ruleRetroactivePeriod(r *entity.CaseRecord) Outcome {
	meses, ok := r.Facts.Float(entity.FactPeriodoMeses)
	if !ok {
		return Outcome{
			Status:   constants.StatusRevisionManual,
			Evidence: "período retroactivo no determinado a partir de los documentos",
		}
	}
	if meses > MaxRetroactiveMonths {
		return Outcome{
			Status: constants.StatusNoCumple,
			Evidence: fmt.Sprintf("período retroactivo de %d meses excede el máximo de %d meses",
				int(meses), MaxRetroactiveMonths),
		}
	}
	return Outcome{
		Status: constants.StatusCumple,
		Evidence: fmt.Sprintf("período retroactivo de %d meses dentro del máximo de %d meses",
			int(meses), MaxRetroactiveMonths),
	}
}

func ruleConsumptionGraph(r *entity.CaseRecord) Outcome {
	has, ok := r.Facts.Bool(entity.FactGraficoConsumo)
	if !ok {
		return Outcome{
			Status:   constants.StatusRevisionManual,
			Evidence: "presencia de gráfico de consumo no determinada",
		}
	}
	if !has {
		return Outcome{
			Status:   constants.StatusNoCumple,
			Evidence: "no se encontró gráfico de consumo en ninguna fuente",
		}
	}
	evidence := "gráfico de consumo disponible"
	if fuente, ok := r.Facts.String(entity.FactGraficoFuente); ok {
		evidence = fmt.Sprintf("gráfico de consumo disponible (fuente: %s)", fuente)
	}
	return Outcome{Status: constants.StatusCumple, Evidence: evidence}
}

func rule12MHistory(r *entity.CaseRecord) Outcome {
	has, ok := r.Facts.Bool(entity.FactHistorico12M)
	switch {
	case ok && has:
		return Outcome{
			Status:   constants.StatusCumple,
			Evidence: "histórico de consumo de 12 meses disponible",
		}
	case ok && !has:
		return Outcome{
			Status:   constants.StatusNoCumple,
			Evidence: "histórico de 12 meses no disponible",
		}
	default:
		return Outcome{
			Status:   constants.StatusRevisionManual,
			Evidence: "disponibilidad del histórico de 12 meses no determinada",
		}
	}
}

func ruleDisputedAmount(r *entity.CaseRecord) Outcome {
	monto, ok := r.Facts.Float(entity.FactMontoReclamado)
	if !ok || monto <= 0 {
		return Outcome{
			Status:   constants.StatusRevisionManual,
			Evidence: "monto reclamado no identificado en los documentos",
		}
	}
	return Outcome{
		Status:   constants.StatusCumple,
		Evidence: fmt.Sprintf("monto reclamado identificado: $%d", int(monto)),
	}
}

func rulePriorNotice(r *entity.CaseRecord) Outcome {
	if has, ok := r.Facts.Bool(entity.FactAvisoPrevio); ok && has {
		return Outcome{
			Status:   constants.StatusCumple,
			Evidence: "aviso previo en boleta acreditado",
		}
	}
	// absence of the pattern is not proof of absence of the notice
	return Outcome{
		Status:   constants.StatusRevisionManual,
		Evidence: "aviso previo en boleta no acreditado en el texto; revisar boletas",
	}
}

func rulePhotoEvidence(r *entity.CaseRecord) Outcome {
	if has, ok := r.Facts.Bool(entity.FactFotos); ok && has {
		return Outcome{
			Status:   constants.StatusCumple,
			Evidence: "evidencia fotográfica presente",
		}
	}
	if doc := entity.FirstOfType(r.Documents, constants.DocEvidenciaFoto); doc != nil {
		return Outcome{
			Status:   constants.StatusCumple,
			Evidence: fmt.Sprintf("evidencia fotográfica presente: %s", doc.OriginalName),
			Ref: &entity.Evidence{
				Kind:        constants.EvidencePhoto,
				FileID:      doc.FileID,
				Description: doc.OriginalName,
			},
		}
	}
	return Outcome{
		Status:   constants.StatusNoCumple,
		Evidence: "sin evidencia fotográfica en el expediente",
	}
}

func ruleIrregularityOrigin(r *entity.CaseRecord) Outcome {
	if origen, ok := r.Facts.String(entity.FactOrigenIrregularidad); ok {
		return Outcome{
			Status:   constants.StatusCumple,
			Evidence: fmt.Sprintf("origen de la irregularidad identificado: %s", origen),
		}
	}
	return Outcome{
		Status:   constants.StatusRevisionManual,
		Evidence: "origen de la irregularidad no identificado",
	}
}

// ruleFactFlag builds a rule over a boolean fact where only a positive match
// is conclusive; everything else goes to manual review.
func ruleFactFlag(fact, label string) RuleFunc {
	return func(r *entity.CaseRecord) Outcome {
		if has, ok := r.Facts.Bool(fact); ok && has {
			return Outcome{
				Status:   constants.StatusCumple,
				Evidence: fmt.Sprintf("%s acreditado en los documentos", label),
			}
		}
		return Outcome{
			Status:   constants.StatusRevisionManual,
			Evidence: fmt.Sprintf("%s no acreditado; requiere verificación", label),
		}
	}
}
