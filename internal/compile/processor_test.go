package compile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/expedientix/edn-core/constants"
	"github.com/expedientix/edn-core/internal/entity"
	"github.com/expedientix/edn-core/internal/extract"
	"github.com/expedientix/edn-core/internal/facts"
)

// stubExtractor serves canned text per file base name, standing in for the
// pdftotext-backed extractor.
type stubExtractor struct {
	texts  map[string]string
	failOn string
}

func (s stubExtractor) Extract(_ context.Context, path string, _ bool) (extract.Result, error) {
	name := filepath.Base(path)
	if s.failOn != "" && name == s.failOn {
		return extract.Result{}, fmt.Errorf("binary exited with status 1")
	}
	text := s.texts[name]
	return extract.Result{Text: text, Pages: 1, Method: "pdf-text"}, nil
}

func writeCaseFolder(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("stub"), 0o644))
	}
	return dir
}

const cartaText = "Estimados señores:\nSeñor Juan Soto\n" +
	"RUT 12.345.678-5, N° de Servicio: 7781234\n" +
	"Calle Las Rosas 45, comuna de Providencia\n" +
	"En respuesta a su reclamo, la empresa acoge parcialmente.\n" +
	"El recálculo considera los últimos 13 meses.\n" +
	"Monto a recuperar: $845.120. Se detectó un bypass en el empalme."

func fullCaseFolder(t *testing.T) (string, stubExtractor) {
	dir := writeCaseFolder(t,
		"carta_respuesta.pdf",
		"orden_trabajo.pdf",
		"tabla_calculo_cnr.pdf",
		"foto_medidor_sello.jpg",
	)
	ex := stubExtractor{texts: map[string]string{
		"carta_respuesta.pdf":   cartaText,
		"orden_trabajo.pdf":     "Orden de trabajo N° 5521. Inspección en terreno.",
		"tabla_calculo_cnr.pdf": "Detalle de liquidacion. Consumo no registrado. Total $845.120",
	}}
	return dir, ex
}

func TestProcessCaseFullInventory(t *testing.T) {
	dir, ex := fullCaseFolder(t)
	p := NewProcessor(ex, nil, nil, nil)

	record, err := p.ProcessCase(context.Background(), "caso-001", dir)
	require.NoError(t, err)

	require.Len(t, record.Documents, 4)
	assert.Empty(t, record.Alerts)
	assert.Empty(t, record.Diagnostics)
	assert.Equal(t, "compilado", record.Status)
	assert.Equal(t, constants.CaseCNR, record.CaseType)

	types := map[constants.DocumentType]bool{}
	for _, d := range record.Documents {
		types[d.Type] = true
		assert.NotEmpty(t, d.FileID)
		assert.NotEmpty(t, d.DisplayName)
	}
	assert.True(t, types[constants.DocCartaRespuesta])
	assert.True(t, types[constants.DocOrdenTrabajo])
	assert.True(t, types[constants.DocTablaCalculo])
	assert.True(t, types[constants.DocEvidenciaFoto])
}

func TestProcessCaseUnifiesContext(t *testing.T) {
	dir, ex := fullCaseFolder(t)
	p := NewProcessor(ex, nil, nil, nil)

	record, err := p.ProcessCase(context.Background(), "caso-001", dir)
	require.NoError(t, err)

	assert.Equal(t, "12345678-5", record.Context.RUT)
	assert.Equal(t, "Juan Soto", record.Context.ClientName)
	assert.Equal(t, "7781234", record.Context.NumeroServicio)
	assert.Equal(t, "Providencia", record.Context.Comuna)
	assert.Contains(t, record.Context.Address, "Calle Las Rosas 45")
}

func TestProcessCaseConsolidatesFacts(t *testing.T) {
	dir, ex := fullCaseFolder(t)
	p := NewProcessor(ex, nil, nil, nil)

	record, err := p.ProcessCase(context.Background(), "caso-001", dir)
	require.NoError(t, err)

	meses, ok := record.Facts.Float(entity.FactPeriodoMeses)
	require.True(t, ok)
	assert.Equal(t, 13.0, meses)

	monto, ok := record.Facts.Float(entity.FactMontoReclamado)
	require.True(t, ok)
	assert.Equal(t, 845120.0, monto)

	origen, ok := record.Facts.String(entity.FactOrigenIrregularidad)
	require.True(t, ok)
	assert.Equal(t, "bypass", origen)

	// the photo in the inventory backs the fotos fact
	fotos, ok := record.Facts.Bool(entity.FactFotos)
	require.True(t, ok)
	assert.True(t, fotos)

	assert.NotEmpty(t, record.Evidence[entity.FactPeriodoMeses])
}

func TestProcessCasePhotoOnlyRaisesAlerts(t *testing.T) {
	dir := writeCaseFolder(t, "foto_medidor.jpg")
	p := NewProcessor(stubExtractor{}, nil, nil, nil)

	record, err := p.ProcessCase(context.Background(), "caso-002", dir)
	require.NoError(t, err)

	assert.Equal(t, "incompleto", record.Status)
	assert.Equal(t, constants.DefaultCaseType, record.CaseType)

	require.Len(t, record.Alerts, 3)
	severities := map[string]string{}
	for _, a := range record.Alerts {
		assert.Equal(t, entity.AlertMissingCritical, a.Code)
		severities[a.Message] = a.Severity
	}
	assert.Equal(t, "alta", severities["documento crítico ausente: carta_respuesta"])
	assert.Equal(t, "alta", severities["documento crítico ausente: orden_trabajo"])
	assert.Equal(t, "media", severities["documento crítico ausente: tabla_calculo"])
}

func TestProcessCaseRecordsPerFileFailures(t *testing.T) {
	dir, ex := fullCaseFolder(t)
	ex.failOn = "orden_trabajo.pdf"
	p := NewProcessor(ex, nil, nil, nil)

	record, err := p.ProcessCase(context.Background(), "caso-003", dir)
	require.NoError(t, err)

	assert.Len(t, record.Documents, 3)
	require.Len(t, record.Diagnostics, 1)
	assert.Equal(t, "extract", record.Diagnostics[0].Stage)
	assert.Equal(t, "orden_trabajo.pdf", record.Diagnostics[0].Subject)

	// the missing work order now surfaces as an alert too
	assert.Equal(t, "incompleto", record.Status)
	require.Len(t, record.Alerts, 1)
}

func TestProcessCaseGraphFromTechnicalReport(t *testing.T) {
	dir := writeCaseFolder(t,
		"carta_respuesta.pdf",
		"informe_tecnico.pdf",
		"orden_trabajo.pdf",
		"tabla_calculo.pdf",
	)
	ex := stubExtractor{texts: map[string]string{
		"carta_respuesta.pdf": cartaText,
		"informe_tecnico.pdf": "Informe técnico de inspección. Se adjunta gráfico de consumo del medidor.",
		"orden_trabajo.pdf":   "Orden de trabajo",
		"tabla_calculo.pdf":   "Tabla de cálculo",
	}}
	p := NewProcessor(ex, nil, nil, nil)

	record, err := p.ProcessCase(context.Background(), "caso-004", dir)
	require.NoError(t, err)

	grafico, ok := record.Facts.Bool(entity.FactGraficoConsumo)
	require.True(t, ok)
	assert.True(t, grafico)

	fuente, ok := record.Facts.String(entity.FactGraficoFuente)
	require.True(t, ok)
	assert.Equal(t, facts.GraficoFromInforme, fuente)

	informe := entity.FirstOfType(record.Documents, constants.DocInformeTecnico)
	require.NotNil(t, informe)
	assert.NotEmpty(t, informe.Extras[entity.ExtraKeywords])
}

func TestProcessCaseDerivesCategories(t *testing.T) {
	dir, ex := fullCaseFolder(t)
	p := NewProcessor(ex, nil, nil, nil)

	record, err := p.ProcessCase(context.Background(), "caso-005", dir)
	require.NoError(t, err)

	assert.Len(t, record.Categories["respuesta"], 1)
	assert.Len(t, record.Categories["terreno"], 2) // orden + foto
	assert.Len(t, record.Categories["calculo"], 1)
}

func TestProcessCaseMissingFolder(t *testing.T) {
	p := NewProcessor(stubExtractor{}, nil, nil, nil)
	_, err := p.ProcessCase(context.Background(), "caso-006", filepath.Join(t.TempDir(), "no-such"))
	assert.Error(t, err)
}
