package constants

import "strings"

// CaseType is the coarse classification that selects which checklist
// configuration applies.
type CaseType string

const (
	CaseCNR               CaseType = "cnr"
	CaseCorteSuministro   CaseType = "corte_suministro"
	CaseDanoEquipos       CaseType = "dano_equipos"
	CaseServicioComercial CaseType = "servicio_comercial"
)

// DefaultCaseType is the fallback when no classification rule fires.
const DefaultCaseType = CaseCNR

var allCaseTypes = []CaseType{
	CaseCNR,
	CaseCorteSuministro,
	CaseDanoEquipos,
	CaseServicioComercial,
}

// ParseCaseType canonicalizes a stored/user-provided case type string.
// Unknown input returns ("", false).
func ParseCaseType(s string) (CaseType, bool) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	for _, ct := range allCaseTypes {
		if normalized == string(ct) {
			return ct, true
		}
	}
	return "", false
}
