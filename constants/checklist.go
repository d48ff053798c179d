package constants

// ItemStatus is the three-valued outcome of a checklist rule.
type ItemStatus string

const (
	StatusCumple         ItemStatus = "cumple"
	StatusNoCumple       ItemStatus = "no_cumple"
	StatusRevisionManual ItemStatus = "revision_manual"
)

// GroupKey identifies one of the three ordered checklist groups.
type GroupKey string

const (
	GroupAdmisibilidad GroupKey = "admisibilidad"
	GroupInstruccion   GroupKey = "instruccion"
	GroupAnalisis      GroupKey = "analisis"
)

// GroupOrder is the fixed rendering/evaluation order of checklist groups.
var GroupOrder = []GroupKey{
	GroupAdmisibilidad,
	GroupInstruccion,
	GroupAnalisis,
}

// EvidenceKind tags an evidence entry with the medium it points at.
type EvidenceKind string

const (
	EvidenceText  EvidenceKind = "text"
	EvidencePhoto EvidenceKind = "photo"
	EvidenceImage EvidenceKind = "image"
)
