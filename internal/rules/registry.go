package rules

import (
	"github.com/expedientix/edn-core/constants"
	"github.com/expedientix/edn-core/internal/entity"
)

// Outcome is a rule's verdict: a three-valued status, a human-readable
// evidence string, and an optional deep-link reference.
type Outcome struct {
	Status   constants.ItemStatus
	Evidence string
	Ref      *entity.Evidence
}

// RuleFunc evaluates one rule against a record. Rules are pure with respect
// to the record and only communicate through shared facts.
type RuleFunc func(r *entity.CaseRecord) Outcome

// RuleBinding pairs a stable string reference with its rule function.
type RuleBinding struct {
	Ref string
	Fn  RuleFunc
}

// Registry is the rule table an engine runs against. It is built once,
// injected into engines and treated as read-only thereafter, so the same
// registry can serve concurrently processed cases.
type Registry struct {
	order []RuleBinding
	byRef map[string]RuleFunc
}

func NewRegistry(bindings ...RuleBinding) *Registry {
	r := &Registry{byRef: make(map[string]RuleFunc, len(bindings))}
	for _, b := range bindings {
		if _, dup := r.byRef[b.Ref]; dup {
			continue
		}
		r.order = append(r.order, b)
		r.byRef[b.Ref] = b.Fn
	}
	return r
}

// Lookup resolves a rule reference.
func (r *Registry) Lookup(ref string) (RuleFunc, bool) {
	fn, ok := r.byRef[ref]
	return fn, ok
}

// Refs returns the registered references in registration order.
func (r *Registry) Refs() []string {
	out := make([]string, len(r.order))
	for i, b := range r.order {
		out[i] = b.Ref
	}
	return out
}

// DefaultRegistry builds the standard rule table.
func DefaultRegistry() *Registry {
	return NewRegistry(
		RuleBinding{"RULE_CHECK_CLIENT_IDENTIFIED", ruleClientIdentified},
		RuleBinding{"RULE_CHECK_SERVICE_IDENTIFIED", ruleServiceIdentified},
		RuleBinding{"RULE_CHECK_RESPONSE_LETTER", rulePresence(constants.DocCartaRespuesta, "carta de respuesta")},
		RuleBinding{"RULE_CHECK_WORK_ORDER", rulePresence(constants.DocOrdenTrabajo, "orden de trabajo")},
		RuleBinding{"RULE_CHECK_CALC_TABLE", rulePresence(constants.DocTablaCalculo, "tabla de cálculo")},
		RuleBinding{"RULE_CHECK_RETROACTIVE_PERIOD", ruleRetroactivePeriod},
		RuleBinding{"RULE_CHECK_CONSUMPTION_GRAPH", ruleConsumptionGraph},
		RuleBinding{"RULE_CHECK_12M_HISTORY", rule12MHistory},
		RuleBinding{"RULE_CHECK_DISPUTED_AMOUNT", ruleDisputedAmount},
		RuleBinding{"RULE_CHECK_PRIOR_NOTICE", rulePriorNotice},
		RuleBinding{"RULE_CHECK_PHOTO_EVIDENCE", rulePhotoEvidence},
		RuleBinding{"RULE_CHECK_IRREGULARITY_ORIGIN", ruleIrregularityOrigin},
		RuleBinding{"RULE_CHECK_NOTARIAL_ACT", ruleFactFlag(entity.FactActaNotarial, "acta notarial")},
		RuleBinding{"RULE_CHECK_LAB_CERTIFICATE", ruleFactFlag(entity.FactCertificadoLab, "certificado de laboratorio")},
	)
}
