package entity

import (
	"time"

	"github.com/expedientix/edn-core/constants"
)

// CaseRecord is the normalized, evidence-linked representation of one case
// (EDN). It is built once by the compile pipeline and afterwards mutated only
// through explicit store operations.
type CaseRecord struct {
	CaseID      string             `json:"case_id"`
	CaseType    constants.CaseType `json:"case_type"`
	ProcessedAt time.Time          `json:"processed_at"`
	Status      string             `json:"status"`

	Context     UnifiedContext        `json:"context"`
	Documents   []Document            `json:"documents"`
	Categories  map[string][]string   `json:"categories"`
	Facts       Facts                 `json:"facts"`
	Evidence    EvidenceMap           `json:"evidence"`
	Alerts      []Alert               `json:"alerts"`
	Diagnostics []Diagnostic          `json:"diagnostics,omitempty"`
	Checklist   *Checklist            `json:"checklist,omitempty"`
}

// UnifiedContext holds the one set of identity fields per case, populated
// first-found-wins across all processed files.
type UnifiedContext struct {
	RUT            string `json:"rut,omitempty"`
	ClientName     string `json:"client_name,omitempty"`
	NumeroServicio string `json:"numero_servicio,omitempty"`
	Address        string `json:"address,omitempty"`
	Comuna         string `json:"comuna,omitempty"`
	Email          string `json:"email,omitempty"`
	Phone          string `json:"phone,omitempty"`
}

// Alert is a first-class signal about the case, not an error. Severity is
// "alta" or "media".
type Alert struct {
	Code     string `json:"code"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

// Alert codes.
const (
	AlertMissingCritical = "level_0_missing"
)

// Diagnostic records a recovered failure (skipped file, downgraded rule) so
// operators can see what the pipeline could not do.
type Diagnostic struct {
	Stage   string `json:"stage"`
	Subject string `json:"subject"`
	Detail  string `json:"detail"`
}

// Facts is the flat mapping of domain-derived values used by rules. Values
// are numbers, strings, booleans or ISO dates (as strings).
type Facts map[string]any

// Bool reads a boolean fact; absent or non-bool keys return (false, false).
func (f Facts) Bool(key string) (bool, bool) {
	v, ok := f[key]
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

// Float reads a numeric fact, accepting int and float64 (JSON round-trips
// numbers as float64).
func (f Facts) Float(key string) (float64, bool) {
	switch v := f[key].(type) {
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case float64:
		return v, true
	default:
		return 0, false
	}
}

// String reads a string fact.
func (f Facts) String(key string) (string, bool) {
	v, ok := f[key].(string)
	return v, ok && v != ""
}

// Well-known fact keys.
const (
	FactPeriodoMeses        = "periodo_meses"
	FactPeriodoInicio       = "periodo_inicio"
	FactPeriodoFin          = "periodo_fin"
	FactOrigenIrregularidad = "origen_irregularidad"
	FactHistorico12M        = "tiene_historico_12m"
	FactGraficoConsumo      = "tiene_grafico_consumo"
	FactGraficoFuente       = "grafico_fuente"
	FactFotos               = "tiene_fotos"
	FactFotoMedidor         = "tiene_foto_medidor"
	FactFotoSello           = "tiene_foto_sello"
	FactMontoReclamado      = "monto_reclamado"
	FactAvisoPrevio         = "aviso_previo_boleta"
	FactActaNotarial        = "tiene_acta_notarial"
	FactCertificadoLab      = "tiene_certificado_laboratorio"
)
