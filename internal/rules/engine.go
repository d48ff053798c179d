package rules

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/expedientix/edn-core/constants"
	"github.com/expedientix/edn-core/internal/classify"
	"github.com/expedientix/edn-core/internal/entity"
)

// Engine evaluates the configured checklist against a compiled record. The
// registry and loader are injected and read-only, so one engine can serve
// concurrently processed cases. Evaluate always returns a well-formed
// checklist: missing configuration, missing rules and rule panics all
// degrade to revision_manual items, never to an error.
type Engine struct {
	registry   *Registry
	loader     *ConfigLoader
	classifier *classify.Classifier
	logger     *slog.Logger
	now        func() time.Time
}

func NewEngine(registry *Registry, loader *ConfigLoader, logger *slog.Logger) *Engine {
	if registry == nil {
		registry = DefaultRegistry()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		registry:   registry,
		loader:     loader,
		classifier: classify.New(nil, logger),
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Evaluate runs the checklist for record. A record without a case type gets
// one inferred and cached back onto it before configuration is resolved.
func (e *Engine) Evaluate(record *entity.CaseRecord) *entity.Checklist {
	if record.CaseType == "" {
		record.CaseType = e.classifier.ClassifyCaseType(record.Documents, record.Context)
		e.logger.Info("case type inferred", "case_id", record.CaseID, "case_type", record.CaseType)
	}

	cfg, source := e.loader.Load(record.CaseType)
	e.logger.Debug("checklist config resolved", "case_id", record.CaseID, "source", source)

	checklist := &entity.Checklist{
		CaseID:      record.CaseID,
		CaseType:    record.CaseType,
		GeneratedAt: e.now(),
	}
	for _, key := range constants.GroupOrder {
		group := entity.ChecklistGroup{Key: key}
		for _, item := range cfg.Groups[string(key)].Items {
			group.Items = append(group.Items, e.evaluateItem(record, item))
		}
		checklist.Groups = append(checklist.Groups, group)
	}
	return checklist
}

// evaluateItem resolves and executes one configured item. Rule execution
// never raises to the caller.
func (e *Engine) evaluateItem(record *entity.CaseRecord, item ItemConfig) entity.ChecklistItem {
	out := entity.ChecklistItem{
		ID:      item.ID,
		Title:   item.Title,
		RuleRef: item.RuleRef,
	}

	if item.RuleRef == "" {
		out.Status = constants.StatusRevisionManual
		out.EvidenceText = "ítem sin regla asociada; requiere revisión manual"
		return out
	}

	fn, ok := e.registry.Lookup(item.RuleRef)
	if !ok {
		e.logger.Warn("rule reference not in registry", "case_id", record.CaseID, "rule_ref", item.RuleRef)
		out.Status = constants.StatusRevisionManual
		out.EvidenceText = fmt.Sprintf("regla %q no registrada; requiere revisión manual", item.RuleRef)
		return out
	}

	result := e.executeRule(record, item.RuleRef, fn)
	out.Status = result.Status
	out.EvidenceText = result.Evidence
	out.EvidenceRef = result.Ref
	return out
}

// executeRule wraps the rule call so a panicking rule degrades to a
// revision_manual outcome carrying the failure text.
func (e *Engine) executeRule(record *entity.CaseRecord, ref string, fn RuleFunc) (out Outcome) {
	defer func() {
		if rec := recover(); rec != nil {
			e.logger.Error("rule execution failed",
				"case_id", record.CaseID,
				"rule_ref", ref,
				"panic", rec,
			)
			out = Outcome{
				Status:   constants.StatusRevisionManual,
				Evidence: fmt.Sprintf("error al ejecutar la regla %s: %v", ref, rec),
			}
		}
	}()
	out = joinEvidence(ref, fn(record), record.Evidence)
	return out
}
