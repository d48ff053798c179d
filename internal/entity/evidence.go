package entity

import "github.com/expedientix/edn-core/constants"

// Evidence is one provenance entry: where a fact value came from.
type Evidence struct {
	Kind        constants.EvidenceKind `json:"kind"`
	FileID      string                 `json:"file_id"`
	Page        int                    `json:"page,omitempty"`
	Snippet     string                 `json:"snippet,omitempty"`
	Description string                 `json:"description,omitempty"`
	Coordinates *BoundingBox           `json:"coordinates,omitempty"`
}

// BoundingBox is a word box in PDF points, origin top-left of the page.
type BoundingBox struct {
	XMin float64 `json:"x_min"`
	YMin float64 `json:"y_min"`
	XMax float64 `json:"x_max"`
	YMax float64 `json:"y_max"`
}

// EvidenceMap indexes evidence entries by fact name. Entry order within a
// key is append order and is preserved through serialization.
type EvidenceMap map[string][]Evidence

// Add appends an evidence entry for a fact key.
func (m EvidenceMap) Add(fact string, ev Evidence) {
	m[fact] = append(m[fact], ev)
}

// Merge copies entries from other for keys not already present. Matching the
// fact-merge policy, existing keys are never overwritten.
func (m EvidenceMap) Merge(other EvidenceMap) {
	for k, entries := range other {
		if _, ok := m[k]; !ok {
			m[k] = entries
		}
	}
}
