package facts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/expedientix/edn-core/constants"
	"github.com/expedientix/edn-core/internal/entity"
)

func TestFromSourcesTechnicalReportWins(t *testing.T) {
	sel := NewSourceSelector(nil)
	docs := []entity.Document{
		{
			FileID:       "file-informe",
			Type:         constants.DocInformeTecnico,
			OriginalName: "informe_tecnico.pdf",
			Extras:       map[string]any{entity.ExtraKeywords: []string{"inspeccion", "grafico de consumo"}},
		},
		{FileID: "file-foto", Type: constants.DocEvidenciaFoto, OriginalName: "grafico_consumo.jpg"},
	}

	out := sel.FromSources(docs)

	v, ok := out.Facts.Bool(entity.FactGraficoConsumo)
	require.True(t, ok)
	assert.True(t, v)
	fuente, _ := out.Facts.String(entity.FactGraficoFuente)
	assert.Equal(t, GraficoFromInforme, fuente)

	// report-derived graph implies the 12-month history was reviewed
	hist, ok := out.Facts.Bool(entity.FactHistorico12M)
	require.True(t, ok)
	assert.True(t, hist)

	entries := out.Evidence[entity.FactGraficoConsumo]
	require.Len(t, entries, 1)
	assert.Equal(t, constants.EvidenceText, entries[0].Kind)
	assert.Equal(t, "file-informe", entries[0].FileID)
}

func TestFromSourcesFallsBackToPhotoFilenames(t *testing.T) {
	sel := NewSourceSelector(nil)
	docs := []entity.Document{
		{FileID: "file-informe", Type: constants.DocInformeTecnico, Extras: map[string]any{entity.ExtraKeywords: []string{"medidor"}}},
		{FileID: "file-foto", Type: constants.DocEvidenciaFoto, OriginalName: "historico_consumo.jpg"},
	}

	out := sel.FromSources(docs)

	fuente, _ := out.Facts.String(entity.FactGraficoFuente)
	assert.Equal(t, GraficoFromFoto, fuente)
	entries := out.Evidence[entity.FactGraficoConsumo]
	require.Len(t, entries, 1)
	assert.Equal(t, constants.EvidencePhoto, entries[0].Kind)
}

func TestFromSourcesTerminalDefault(t *testing.T) {
	sel := NewSourceSelector(nil)
	docs := []entity.Document{
		{FileID: "file-carta", Type: constants.DocCartaRespuesta, OriginalName: "carta.pdf"},
	}

	out := sel.FromSources(docs)

	v, ok := out.Facts.Bool(entity.FactGraficoConsumo)
	require.True(t, ok)
	assert.False(t, v)
	_, ok = out.Facts[entity.FactGraficoFuente]
	assert.False(t, ok)
	assert.Empty(t, out.Evidence)
}

func TestBuildFeaturesTextWinsOverSources(t *testing.T) {
	text := newExtraction()
	text.Facts[entity.FactGraficoConsumo] = true
	text.Evidence.Add(entity.FactGraficoConsumo, entity.Evidence{Kind: constants.EvidenceText, FileID: "file-carta"})

	sources := newExtraction()
	sources.Facts[entity.FactGraficoConsumo] = false
	sources.Facts[entity.FactGraficoFuente] = GraficoFromFoto
	sources.Evidence.Add(entity.FactGraficoConsumo, entity.Evidence{Kind: constants.EvidencePhoto, FileID: "file-foto"})

	out := BuildFeatures(text, sources, nil)

	v, _ := out.Facts.Bool(entity.FactGraficoConsumo)
	assert.True(t, v)
	fuente, _ := out.Facts.String(entity.FactGraficoFuente)
	assert.Equal(t, GraficoFromFoto, fuente)

	entries := out.Evidence[entity.FactGraficoConsumo]
	require.Len(t, entries, 1)
	assert.Equal(t, "file-carta", entries[0].FileID)
}

func TestBuildFeaturesEmptySources(t *testing.T) {
	out := BuildFeatures(newExtraction(), newExtraction(), nil)
	assert.Empty(t, out.Facts)
	assert.Empty(t, out.Evidence)
}
