package rules

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/expedientix/edn-core/constants"
)

// ItemConfig is one checklist-item entry of a configuration file.
type ItemConfig struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	RuleRef      string `json:"rule_ref,omitempty"`
	EvidenceType string `json:"evidence_type,omitempty"`
	Description  string `json:"description,omitempty"`
}

// GroupConfig holds the ordered items of one group.
type GroupConfig struct {
	Items []ItemConfig `json:"items"`
}

// ChecklistConfig is the per-case-type checklist schema consumed by the
// engine.
type ChecklistConfig struct {
	Groups map[string]GroupConfig `json:"groups"`
}

// configSchema validates checklist configuration files before use. A file
// that fails validation is treated exactly like a missing file.
const configSchema = `{
  "type": "object",
  "required": ["groups"],
  "properties": {
    "groups": {
      "type": "object",
      "additionalProperties": {
        "type": "object",
        "required": ["items"],
        "properties": {
          "items": {
            "type": "array",
            "items": {
              "type": "object",
              "required": ["id", "title"],
              "properties": {
                "id": {"type": "string", "minLength": 1},
                "title": {"type": "string", "minLength": 1},
                "rule_ref": {"type": "string"},
                "evidence_type": {"type": "string"},
                "description": {"type": "string"}
              }
            }
          }
        }
      }
    }
  }
}`

// ConfigLoader resolves the checklist configuration for a case type through
// the fallback chain: case-type file -> generic template file -> built-in CNR
// fallback -> empty. Loading never fails outward.
type ConfigLoader struct {
	dir    string
	schema *jsonschema.Schema
	logger *slog.Logger
}

func NewConfigLoader(dir string, logger *slog.Logger) *ConfigLoader {
	if logger == nil {
		logger = slog.Default()
	}
	sch := jsonschema.MustCompileString("checklist-config.schema.json", configSchema)
	return &ConfigLoader{dir: dir, schema: sch, logger: logger}
}

// Load returns the effective configuration for caseType and the name of the
// source that supplied it ("<file>", "template", "builtin_cnr" or "none").
func (l *ConfigLoader) Load(caseType constants.CaseType) (ChecklistConfig, string) {
	candidates := []string{
		string(caseType) + ".json",
		string(caseType) + ".yaml",
		string(caseType) + ".yml",
		"template.json",
		"template.yaml",
		"template.yml",
	}
	for _, name := range candidates {
		cfg, err := l.loadFile(filepath.Join(l.dir, name))
		if err != nil {
			if !os.IsNotExist(err) {
				l.logger.Warn("checklist config unusable", "file", name, "error", err)
			}
			continue
		}
		return cfg, name
	}

	l.logger.Warn("no checklist config found, using built-in CNR fallback", "case_type", caseType)
	if cfg, ok := builtinCNRConfig(); ok {
		return cfg, "builtin_cnr"
	}
	return ChecklistConfig{Groups: map[string]GroupConfig{}}, "none"
}

func (l *ConfigLoader) loadFile(path string) (ChecklistConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return ChecklistConfig{}, err
	}

	// YAML configs are converted to JSON so the one schema validates both.
	if ext := filepath.Ext(path); ext == ".yaml" || ext == ".yml" {
		raw, err = yaml.YAMLToJSON(raw)
		if err != nil {
			return ChecklistConfig{}, fmt.Errorf("yaml to json: %w", err)
		}
	}

	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return ChecklistConfig{}, fmt.Errorf("decode: %w", err)
	}
	if err := l.schema.Validate(generic); err != nil {
		return ChecklistConfig{}, fmt.Errorf("schema validation: %w", err)
	}

	var cfg ChecklistConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return ChecklistConfig{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// builtinCNRConfig is the last-resort hardcoded CNR checklist, kept minimal:
// the three critical documents plus the retroactivity cap.
func builtinCNRConfig() (ChecklistConfig, bool) {
	return ChecklistConfig{
		Groups: map[string]GroupConfig{
			string(constants.GroupAdmisibilidad): {Items: []ItemConfig{
				{ID: "adm-01", Title: "Cliente identificado", RuleRef: "RULE_CHECK_CLIENT_IDENTIFIED"},
				{ID: "adm-02", Title: "Carta de respuesta presente", RuleRef: "RULE_CHECK_RESPONSE_LETTER"},
			}},
			string(constants.GroupInstruccion): {Items: []ItemConfig{
				{ID: "ins-01", Title: "Orden de trabajo presente", RuleRef: "RULE_CHECK_WORK_ORDER"},
				{ID: "ins-02", Title: "Tabla de cálculo presente", RuleRef: "RULE_CHECK_CALC_TABLE"},
			}},
			string(constants.GroupAnalisis): {Items: []ItemConfig{
				{ID: "ana-01", Title: "Período retroactivo dentro del máximo legal", RuleRef: "RULE_CHECK_RETROACTIVE_PERIOD"},
			}},
		},
	}, true
}
