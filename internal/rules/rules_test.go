package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/expedientix/edn-core/constants"
	"github.com/expedientix/edn-core/internal/entity"
)

func recordWithFacts(facts entity.Facts) *entity.CaseRecord {
	return &entity.CaseRecord{
		CaseID:   "caso-001",
		CaseType: constants.CaseCNR,
		Facts:    facts,
		Evidence: entity.EvidenceMap{},
	}
}

func TestRetroactivePeriodOverLimit(t *testing.T) {
	out := ruleRetroactivePeriod(recordWithFacts(entity.Facts{entity.FactPeriodoMeses: 13}))

	assert.Equal(t, constants.StatusNoCumple, out.Status)
	assert.Contains(t, out.Evidence, "13")
	assert.Contains(t, out.Evidence, "12")
}

func TestRetroactivePeriodWithinLimit(t *testing.T) {
	out := ruleRetroactivePeriod(recordWithFacts(entity.Facts{entity.FactPeriodoMeses: 6}))
	assert.Equal(t, constants.StatusCumple, out.Status)

	out = ruleRetroactivePeriod(recordWithFacts(entity.Facts{entity.FactPeriodoMeses: 12}))
	assert.Equal(t, constants.StatusCumple, out.Status)
}

func TestRetroactivePeriodUnknown(t *testing.T) {
	out := ruleRetroactivePeriod(recordWithFacts(entity.Facts{}))
	assert.Equal(t, constants.StatusRevisionManual, out.Status)
}

func TestRetroactivePeriodAcceptsFloat(t *testing.T) {
	// facts decoded from stored JSON carry numbers as float64
	out := ruleRetroactivePeriod(recordWithFacts(entity.Facts{entity.FactPeriodoMeses: 13.0}))
	assert.Equal(t, constants.StatusNoCumple, out.Status)
}

func TestClientIdentified(t *testing.T) {
	r := recordWithFacts(entity.Facts{})
	r.Context.RUT = "12345678-5"
	r.Context.ClientName = "Juan Soto"
	assert.Equal(t, constants.StatusCumple, ruleClientIdentified(r).Status)

	r.Context.ClientName = ""
	assert.Equal(t, constants.StatusRevisionManual, ruleClientIdentified(r).Status)

	r.Context.RUT = ""
	assert.Equal(t, constants.StatusNoCumple, ruleClientIdentified(r).Status)
}

func TestPresenceRuleDeepLinks(t *testing.T) {
	fn := rulePresence(constants.DocCartaRespuesta, "carta de respuesta")

	r := recordWithFacts(entity.Facts{})
	r.Documents = []entity.Document{
		{FileID: "file-orden", Type: constants.DocOrdenTrabajo, OriginalName: "orden.pdf"},
		{FileID: "file-carta", Type: constants.DocCartaRespuesta, OriginalName: "carta.pdf"},
	}

	out := fn(r)
	assert.Equal(t, constants.StatusCumple, out.Status)
	require.NotNil(t, out.Ref)
	assert.Equal(t, "file-carta", out.Ref.FileID)

	out = fn(recordWithFacts(entity.Facts{}))
	assert.Equal(t, constants.StatusNoCumple, out.Status)
	assert.Nil(t, out.Ref)
}

func TestConsumptionGraphReportsSource(t *testing.T) {
	out := ruleConsumptionGraph(recordWithFacts(entity.Facts{
		entity.FactGraficoConsumo: true,
		entity.FactGraficoFuente:  "grafico_informe",
	}))
	assert.Equal(t, constants.StatusCumple, out.Status)
	assert.Contains(t, out.Evidence, "grafico_informe")

	out = ruleConsumptionGraph(recordWithFacts(entity.Facts{entity.FactGraficoConsumo: false}))
	assert.Equal(t, constants.StatusNoCumple, out.Status)

	out = ruleConsumptionGraph(recordWithFacts(entity.Facts{}))
	assert.Equal(t, constants.StatusRevisionManual, out.Status)
}

func TestPriorNoticeNeverFailsOutright(t *testing.T) {
	out := rulePriorNotice(recordWithFacts(entity.Facts{entity.FactAvisoPrevio: true}))
	assert.Equal(t, constants.StatusCumple, out.Status)

	out = rulePriorNotice(recordWithFacts(entity.Facts{}))
	assert.Equal(t, constants.StatusRevisionManual, out.Status)
}

func TestPhotoEvidenceFallsBackToInventory(t *testing.T) {
	r := recordWithFacts(entity.Facts{})
	r.Documents = []entity.Document{
		{FileID: "file-foto", Type: constants.DocEvidenciaFoto, OriginalName: "foto_sello.jpg"},
	}

	out := rulePhotoEvidence(r)
	assert.Equal(t, constants.StatusCumple, out.Status)
	require.NotNil(t, out.Ref)
	assert.Equal(t, constants.EvidencePhoto, out.Ref.Kind)

	out = rulePhotoEvidence(recordWithFacts(entity.Facts{}))
	assert.Equal(t, constants.StatusNoCumple, out.Status)
}

func TestDefaultRegistryCoversAllRefs(t *testing.T) {
	reg := DefaultRegistry()
	for _, ref := range []string{
		"RULE_CHECK_CLIENT_IDENTIFIED",
		"RULE_CHECK_SERVICE_IDENTIFIED",
		"RULE_CHECK_RESPONSE_LETTER",
		"RULE_CHECK_WORK_ORDER",
		"RULE_CHECK_CALC_TABLE",
		"RULE_CHECK_RETROACTIVE_PERIOD",
		"RULE_CHECK_CONSUMPTION_GRAPH",
		"RULE_CHECK_12M_HISTORY",
		"RULE_CHECK_DISPUTED_AMOUNT",
		"RULE_CHECK_PRIOR_NOTICE",
		"RULE_CHECK_PHOTO_EVIDENCE",
		"RULE_CHECK_IRREGULARITY_ORIGIN",
		"RULE_CHECK_NOTARIAL_ACT",
		"RULE_CHECK_LAB_CERTIFICATE",
	} {
		_, ok := reg.Lookup(ref)
		assert.True(t, ok, ref)
	}
	assert.Len(t, reg.Refs(), 14)
}

func TestRegistryDropsDuplicateRefs(t *testing.T) {
	first := func(*entity.CaseRecord) Outcome { return Outcome{Status: constants.StatusCumple} }
	second := func(*entity.CaseRecord) Outcome { return Outcome{Status: constants.StatusNoCumple} }

	reg := NewRegistry(
		RuleBinding{"RULE_A", first},
		RuleBinding{"RULE_A", second},
	)

	require.Len(t, reg.Refs(), 1)
	fn, ok := reg.Lookup("RULE_A")
	require.True(t, ok)
	assert.Equal(t, constants.StatusCumple, fn(nil).Status)
}

func TestJoinEvidenceFillsGapFromRecord(t *testing.T) {
	evidence := entity.EvidenceMap{}
	evidence.Add(entity.FactPeriodoMeses, entity.Evidence{
		Kind:    constants.EvidenceText,
		FileID:  "file-carta",
		Snippet: "últimos 13 meses",
	})

	out := joinEvidence("RULE_CHECK_RETROACTIVE_PERIOD",
		Outcome{Status: constants.StatusNoCumple, Evidence: "excede el máximo"}, evidence)

	require.NotNil(t, out.Ref)
	assert.Equal(t, "file-carta", out.Ref.FileID)
}

func TestJoinEvidenceKeepsRuleOwnRef(t *testing.T) {
	evidence := entity.EvidenceMap{}
	evidence.Add(entity.FactFotos, entity.Evidence{FileID: "file-otro"})

	own := &entity.Evidence{FileID: "file-propio"}
	out := joinEvidence("RULE_CHECK_PHOTO_EVIDENCE",
		Outcome{Status: constants.StatusCumple, Ref: own}, evidence)

	assert.Equal(t, "file-propio", out.Ref.FileID)
}

func TestJoinEvidenceSniffsUnmappedRules(t *testing.T) {
	evidence := entity.EvidenceMap{}
	evidence.Add(entity.FactMontoReclamado, entity.Evidence{FileID: "file-tabla"})

	out := joinEvidence("RULE_CUSTOM",
		Outcome{Status: constants.StatusCumple, Evidence: "monto verificado"}, evidence)

	require.NotNil(t, out.Ref)
	assert.Equal(t, "file-tabla", out.Ref.FileID)
}
