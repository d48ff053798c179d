package compile

import (
	"regexp"
	"strings"

	"github.com/expedientix/edn-core/constants"
	"github.com/expedientix/edn-core/internal/entities"
	"github.com/expedientix/edn-core/internal/entity"
)

var (
	reAcogeParcial = regexp.MustCompile(`(?i)acoge\s+parcial`)
	reAcoge        = regexp.MustCompile(`(?i)\bacoge\b|ha\s+resuelto\s+acoger`)
	reRechaza      = regexp.MustCompile(`(?i)\brechaza\b|no\s+ha\s+lugar|ha\s+resuelto\s+rechazar`)
)

// photoTagWords are the filename tokens kept as photo tags.
var photoTagWords = map[string]struct{}{
	"medidor":   {},
	"sello":     {},
	"sellos":    {},
	"empalme":   {},
	"fachada":   {},
	"terreno":   {},
	"dano":      {},
	"daño":      {},
	"quemado":   {},
	"artefacto": {},
	"grafico":   {},
	"gráfico":   {},
}

// informeKeywordTerms are the metadata terms captured from technical reports;
// the source selector later scans them for graph references.
var informeKeywordTerms = []string{
	"grafico de consumo", "gráfico de consumo",
	"historico de consumo", "histórico de consumo",
	"medidor", "sello", "empalme", "bypass",
}

// typeExtras attaches the type-specific structured data each document type
// contributes to the inventory.
func typeExtras(t constants.DocumentType, filename, text string) map[string]any {
	switch t {
	case constants.DocCartaRespuesta:
		if d := letterDecision(text); d != "" {
			return map[string]any{entity.ExtraDecision: d}
		}
	case constants.DocTablaCalculo:
		if m := maxAmount(text); m > 0 {
			return map[string]any{entity.ExtraMontoMaximo: m}
		}
	case constants.DocEvidenciaFoto:
		if tags := photoTags(filename); len(tags) > 0 {
			return map[string]any{entity.ExtraTags: tags}
		}
	case constants.DocInformeTecnico:
		if kws := informeKeywords(text); len(kws) > 0 {
			return map[string]any{entity.ExtraKeywords: kws}
		}
	}
	return nil
}

// letterDecision pulls the decision keyword out of a response letter.
// Partial acceptance is checked before plain acceptance.
func letterDecision(text string) string {
	switch {
	case reAcogeParcial.MatchString(text):
		return "acoge_parcial"
	case reAcoge.MatchString(text):
		return "acoge"
	case reRechaza.MatchString(text):
		return "rechaza"
	default:
		return ""
	}
}

func maxAmount(text string) int {
	var best int
	for _, amt := range entities.ExtractAmounts(text) {
		if n, ok := entities.AmountValue(amt); ok && n > best {
			best = n
		}
	}
	return best
}

// photoTags splits the filename on separators and keeps the known tag words.
func photoTags(filename string) []string {
	base := strings.ToLower(strings.TrimSuffix(filename, filepathExt(filename)))
	tokens := strings.FieldsFunc(base, func(r rune) bool {
		return r == '_' || r == '-' || r == ' ' || r == '.'
	})
	var tags []string
	for _, tok := range tokens {
		if _, ok := photoTagWords[tok]; ok {
			tags = append(tags, tok)
		}
	}
	return tags
}

func filepathExt(name string) string {
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[i:]
	}
	return ""
}

func informeKeywords(text string) []string {
	lower := strings.ToLower(text)
	var out []string
	seen := map[string]struct{}{}
	for _, term := range informeKeywordTerms {
		if strings.Contains(lower, term) {
			if _, dup := seen[term]; !dup {
				out = append(out, term)
				seen[term] = struct{}{}
			}
		}
	}
	return out
}
