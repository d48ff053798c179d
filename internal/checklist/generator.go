// Package checklist is the boundary adapter between the rule engine and the
// layers that consume checklists (persistence, API, document generation).
package checklist

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/expedientix/edn-core/internal/entity"
	"github.com/expedientix/edn-core/internal/rules"
)

// Generator runs the rule engine and shapes its output for external
// consumers.
type Generator struct {
	engine *rules.Engine
	logger *slog.Logger
}

func NewGenerator(engine *rules.Engine, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{engine: engine, logger: logger}
}

// Generate evaluates the checklist for record and attaches it to the record.
// The checklist is rebuilt from scratch on every call; re-running on an
// unmodified record yields an identical result apart from the timestamp.
func (g *Generator) Generate(record *entity.CaseRecord) *entity.Checklist {
	cl := g.engine.Evaluate(record)
	record.Checklist = cl

	var pass, fail, review int
	for _, grp := range cl.Groups {
		for _, item := range grp.Items {
			switch item.Status {
			case "cumple":
				pass++
			case "no_cumple":
				fail++
			default:
				review++
			}
		}
	}
	g.logger.Info("checklist generated",
		"case_id", record.CaseID,
		"pass", pass,
		"fail", fail,
		"review", review,
	)
	return cl
}

// MarshalJSON renders a checklist in the externally consumed JSON shape.
func MarshalJSON(cl *entity.Checklist) ([]byte, error) {
	b, err := json.MarshalIndent(cl, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal checklist: %w", err)
	}
	return b, nil
}
