package constants

// DocumentType is the canonical classification for a file in a case folder.
type DocumentType string

// Stable values (store these exact strings).
const (
	DocCartaRespuesta DocumentType = "carta_respuesta"
	DocOrdenTrabajo   DocumentType = "orden_trabajo"
	DocTablaCalculo   DocumentType = "tabla_calculo"
	DocEvidenciaFoto  DocumentType = "evidencia_fotografica"
	DocGraficoConsumo DocumentType = "grafico_consumo"
	DocInformeTecnico DocumentType = "informe_tecnico"
	DocOtro           DocumentType = "otro"
)

// InventoryLevel marks how much a document matters for evaluating the case.
type InventoryLevel string

const (
	LevelCritical   InventoryLevel = "critico"
	LevelSupporting InventoryLevel = "apoyo"
	LevelMissing    InventoryLevel = "faltante"
)

// CriticalTypes are the three document types a case cannot be evaluated
// confidently without. Order matters: it is the evidence-source tie-break
// and the alert ordering downstream.
var CriticalTypes = []DocumentType{
	DocCartaRespuesta,
	DocOrdenTrabajo,
	DocTablaCalculo,
}

// LevelFor is the pure type->level lookup. The three critical types map to
// LevelCritical, everything else is supporting.
func LevelFor(t DocumentType) InventoryLevel {
	for _, c := range CriticalTypes {
		if t == c {
			return LevelCritical
		}
	}
	return LevelSupporting
}

// IsCritical reports whether t is one of the three critical types.
func IsCritical(t DocumentType) bool {
	return LevelFor(t) == LevelCritical
}
