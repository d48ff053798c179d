package entity

import (
	"time"

	"github.com/expedientix/edn-core/constants"
)

// Checklist is the evaluated result for one case: three ordered groups of
// items. It is rebuilt from scratch on every generation run.
type Checklist struct {
	CaseID      string             `json:"case_id"`
	CaseType    constants.CaseType `json:"case_type"`
	GeneratedAt time.Time          `json:"generated_at"`
	Groups      []ChecklistGroup   `json:"groups"`
}

// ChecklistGroup is one of the three ordered groups.
type ChecklistGroup struct {
	Key   constants.GroupKey `json:"key"`
	Items []ChecklistItem    `json:"items"`
}

// ChecklistItem is one evaluated checklist entry.
type ChecklistItem struct {
	ID            string               `json:"id"`
	Title         string               `json:"title"`
	Status        constants.ItemStatus `json:"status"`
	EvidenceText  string               `json:"evidence_text"`
	EvidenceRef   *Evidence            `json:"evidence_ref,omitempty"`
	HumanReviewed bool                 `json:"human_reviewed"`
	RuleRef       string               `json:"rule_ref,omitempty"`
}
