package facts

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/expedientix/edn-core/constants"
	"github.com/expedientix/edn-core/internal/entity"
)

func cartaDoc() entity.Document {
	return entity.Document{
		FileID:       "file-carta",
		Type:         constants.DocCartaRespuesta,
		Level:        constants.LevelCritical,
		OriginalName: "carta_respuesta.pdf",
	}
}

func TestFromTextPeriodoMeses(t *testing.T) {
	ex := NewTextExtractor(nil)
	docs := []entity.Document{cartaDoc()}

	out := ex.FromText("Se recalculó el consumo de los últimos 13 meses.", docs)

	assert.Equal(t, 13, out.Facts[entity.FactPeriodoMeses])
	entries := out.Evidence[entity.FactPeriodoMeses]
	require.Len(t, entries, 1)
	assert.Equal(t, "file-carta", entries[0].FileID)
	assert.Equal(t, constants.EvidenceText, entries[0].Kind)
	assert.Contains(t, entries[0].Snippet, "13 meses")
}

func TestFromTextPeriodoFromDateRange(t *testing.T) {
	ex := NewTextExtractor(nil)
	docs := []entity.Document{cartaDoc()}

	out := ex.FromText("Cobro desde el 01/03/2024 hasta el 01/09/2024 por consumo no registrado.", docs)

	assert.Equal(t, "2024-03-01", out.Facts[entity.FactPeriodoInicio])
	assert.Equal(t, "2024-09-01", out.Facts[entity.FactPeriodoFin])
	assert.Equal(t, 6, out.Facts[entity.FactPeriodoMeses])
}

func TestFromTextExplicitMesesBeatsDateRange(t *testing.T) {
	ex := NewTextExtractor(nil)
	out := ex.FromText("período de 12 meses, desde el 01/01/2024 hasta el 01/03/2024", []entity.Document{cartaDoc()})
	assert.Equal(t, 12, out.Facts[entity.FactPeriodoMeses])
}

func TestFromTextOrigenOrderedLexicon(t *testing.T) {
	ex := NewTextExtractor(nil)
	docs := []entity.Document{cartaDoc()}

	out := ex.FromText("se constató un bypass y además un sello roto", docs)
	assert.Equal(t, "bypass", out.Facts[entity.FactOrigenIrregularidad])

	out = ex.FromText("inspección detectó sello adulterado en el empalme", docs)
	assert.Equal(t, "sello_adulterado", out.Facts[entity.FactOrigenIrregularidad])
}

func TestFromTextFlags(t *testing.T) {
	ex := NewTextExtractor(nil)
	docs := []entity.Document{cartaDoc()}

	text := "Se adjunta histórico de consumo y gráfico de consumo. " +
		"El cobro fue informado mediante aviso previo en boleta. " +
		"Se levantó acta notarial y certificado de laboratorio. " +
		"Fotografías del medidor y fotografía del sello roto."

	out := ex.FromText(text, docs)

	for _, key := range []string{
		entity.FactHistorico12M,
		entity.FactGraficoConsumo,
		entity.FactAvisoPrevio,
		entity.FactActaNotarial,
		entity.FactCertificadoLab,
		entity.FactFotoMedidor,
		entity.FactFotoSello,
	} {
		v, ok := out.Facts.Bool(key)
		assert.True(t, ok, key)
		assert.True(t, v, key)
	}
}

func TestFromTextFlagsAbsentStayUnset(t *testing.T) {
	ex := NewTextExtractor(nil)
	out := ex.FromText("texto sin señales relevantes", []entity.Document{cartaDoc()})
	_, ok := out.Facts[entity.FactGraficoConsumo]
	assert.False(t, ok)
	_, ok = out.Facts[entity.FactAvisoPrevio]
	assert.False(t, ok)
}

func TestFromTextFotosFromInventory(t *testing.T) {
	ex := NewTextExtractor(nil)
	docs := []entity.Document{
		cartaDoc(),
		{FileID: "file-foto", Type: constants.DocEvidenciaFoto, OriginalName: "foto_medidor.jpg"},
	}

	out := ex.FromText("texto sin mención de registro fotográfico", docs)

	v, ok := out.Facts.Bool(entity.FactFotos)
	require.True(t, ok)
	assert.True(t, v)
	entries := out.Evidence[entity.FactFotos]
	require.Len(t, entries, 1)
	assert.Equal(t, constants.EvidencePhoto, entries[0].Kind)
	assert.Equal(t, "file-foto", entries[0].FileID)
}

func TestFromTextMontoAnchoredBeatsLargest(t *testing.T) {
	ex := NewTextExtractor(nil)
	docs := []entity.Document{cartaDoc()}

	out := ex.FromText("boleta anterior por $900.000. Monto a recuperar: $845.120", docs)
	assert.Equal(t, 845120, out.Facts[entity.FactMontoReclamado])

	out = ex.FromText("valores de $120.500 y $845.120 sin anclas", docs)
	assert.Equal(t, 845120, out.Facts[entity.FactMontoReclamado])
}

func TestSnippetAroundStaysValidUTF8(t *testing.T) {
	// three-byte runes on both sides put the raw 40-byte window edges in the
	// middle of a rune
	text := strings.Repeat("€", 20) + "13 meses" + strings.Repeat("€", 20)

	snip := snippetAround(text, "13 meses")

	assert.True(t, utf8.ValidString(snip))
	assert.Contains(t, snip, "13 meses")
}

func TestSnippetAroundUnmatchedSpan(t *testing.T) {
	assert.Equal(t, "13 meses", snippetAround("otro texto", "13 meses"))
}

func TestEvidenceSourcePrefersCritical(t *testing.T) {
	docs := []entity.Document{
		{FileID: "file-foto", Type: constants.DocEvidenciaFoto},
		{FileID: "file-carta", Type: constants.DocCartaRespuesta},
	}
	assert.Equal(t, "file-carta", evidenceSource(docs))
	assert.Equal(t, "file-foto", evidenceSource(docs[:1]))
	assert.Equal(t, "", evidenceSource(nil))
}
