package rules

import (
	"strings"

	"github.com/expedientix/edn-core/internal/entity"
)

// ruleFactKeys is the hand-maintained mapping from rule reference to the
// consolidated-fact keys the rule conceptually depends on. It drives the
// secondary evidence join; keep it in sync when adding rules.
var ruleFactKeys = map[string][]string{
	"RULE_CHECK_RETROACTIVE_PERIOD":  {entity.FactPeriodoMeses, entity.FactPeriodoInicio, entity.FactPeriodoFin},
	"RULE_CHECK_CONSUMPTION_GRAPH":   {entity.FactGraficoConsumo},
	"RULE_CHECK_12M_HISTORY":         {entity.FactHistorico12M, entity.FactGraficoConsumo},
	"RULE_CHECK_DISPUTED_AMOUNT":     {entity.FactMontoReclamado},
	"RULE_CHECK_PRIOR_NOTICE":        {entity.FactAvisoPrevio},
	"RULE_CHECK_PHOTO_EVIDENCE":      {entity.FactFotos, entity.FactFotoMedidor, entity.FactFotoSello},
	"RULE_CHECK_IRREGULARITY_ORIGIN": {entity.FactOrigenIrregularidad},
	"RULE_CHECK_NOTARIAL_ACT":        {entity.FactActaNotarial},
	"RULE_CHECK_LAB_CERTIFICATE":     {entity.FactCertificadoLab},
}

// sniffTerms backs the fallback join for rules without a mapping: keywords in
// the rule's own evidence string hint at the relevant fact keys.
var sniffTerms = []struct {
	term string
	fact string
}{
	{"meses", entity.FactPeriodoMeses},
	{"período", entity.FactPeriodoMeses},
	{"periodo", entity.FactPeriodoMeses},
	{"gráfico", entity.FactGraficoConsumo},
	{"grafico", entity.FactGraficoConsumo},
	{"histórico", entity.FactHistorico12M},
	{"historico", entity.FactHistorico12M},
	{"monto", entity.FactMontoReclamado},
	{"foto", entity.FactFotos},
	{"sello", entity.FactFotoSello},
	{"medidor", entity.FactFotoMedidor},
	{"boleta", entity.FactAvisoPrevio},
	{"notarial", entity.FactActaNotarial},
	{"laboratorio", entity.FactCertificadoLab},
	{"irregularidad", entity.FactOrigenIrregularidad},
}

// joinEvidence enriches a rule outcome with an entry from the record's
// evidence map. The rule's own reference, when present, always wins; the
// join only fills the gap.
func joinEvidence(ref string, out Outcome, evidence entity.EvidenceMap) Outcome {
	if out.Ref != nil || len(evidence) == 0 {
		return out
	}

	keys, ok := ruleFactKeys[ref]
	if !ok {
		keys = sniffFactKeys(out.Evidence)
	}
	for _, key := range keys {
		if entries := evidence[key]; len(entries) > 0 {
			ev := entries[0]
			out.Ref = &ev
			return out
		}
	}
	return out
}

// sniffFactKeys guesses relevant fact keys from the evidence string.
func sniffFactKeys(evidence string) []string {
	lower := strings.ToLower(evidence)
	var keys []string
	seen := map[string]struct{}{}
	for _, s := range sniffTerms {
		if strings.Contains(lower, s.term) {
			if _, dup := seen[s.fact]; !dup {
				keys = append(keys, s.fact)
				seen[s.fact] = struct{}{}
			}
		}
	}
	return keys
}
