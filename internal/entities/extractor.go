// Package entities holds the stateless pattern matchers that pull identity,
// amount and location entities out of raw document text.
package entities

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/expedientix/edn-core/internal/entity"
	"github.com/expedientix/edn-core/internal/extract"
)

// Match is one extracted value, optionally located on a page via the word
// boxes supplied by the extractor.
type Match struct {
	Value string
	Page  int
	Box   *entity.BoundingBox
}

// Found reports whether the match holds a value.
func (m Match) Found() bool { return m.Value != "" }

// Entities is the per-document extraction result: one match per category,
// except amounts which keeps every match.
type Entities struct {
	RUT        Match
	ClientName Match
	ServiceID  Match
	Address    Match
	Comuna     Match
	Email      Match
	Phone      Match
	Amounts    []Match
}

// MinAmount filters out small numbers that are almost never claim amounts
// (folio numbers, day counts, tariff codes).
const MinAmount = 1000

var (
	// dotted (12.345.678-5) and plain (12345678-5) RUT forms, K check digit allowed
	reRUTDotted = regexp.MustCompile(`\b(\d{1,2}\.\d{3}\.\d{3})-([\dkK])\b`)
	reRUTPlain  = regexp.MustCompile(`\b(\d{7,8})-([\dkK])\b`)

	// Chilean thousands separator is '.'
	reAmount = regexp.MustCompile(`\$?\s?\d{1,3}(?:\.\d{3})+\b`)

	reServiceAnchored = regexp.MustCompile(`(?i)(?:n[°º]?\s*(?:de\s+)?(?:servicio|cliente)|n(?:ro|um(?:ero)?)?\.?\s*(?:de\s+)?(?:servicio|cliente))\s*:?\s*(\d{5,12})`)
	reLongDigitRun    = regexp.MustCompile(`\b\d{8,12}\b`)

	reNameAnchored = regexp.MustCompile(`(?i)(?:se(?:ñ|n)or(?:a)?|sr(?:a)?\.|cliente|titular)\s*:?\s+([A-ZÁÉÍÓÚÑ][a-záéíóúñ]+(?:\s+[A-ZÁÉÍÓÚÑ][a-záéíóúñ]+){1,3})`)

	reEmail = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	rePhone = regexp.MustCompile(`(?:\+?56\s?)?(?:9\s?)?\d{4}\s?\d{4}\b`)

	streetKeywords = []string{"calle ", "avenida ", "av. ", "avda. ", "pasaje ", "psje. ", "camino "}
)

// comunas is the closed lexicon of known commune names, with a couple of
// spelling normalizations folded in. Ordered so repeated runs pick the same
// winner when a text mentions more than one.
var comunas = []struct{ needle, canonical string }{
	{"providencia", "Providencia"},
	{"nunoa", "Ñuñoa"},
	{"ñuñoa", "Ñuñoa"},
	{"maipu", "Maipú"},
	{"maipú", "Maipú"},
	{"las condes", "Las Condes"},
	{"la florida", "La Florida"},
	{"puente alto", "Puente Alto"},
	{"san bernardo", "San Bernardo"},
	{"estacion central", "Estación Central"},
	{"estación central", "Estación Central"},
	{"vina del mar", "Viña del Mar"},
	{"viña del mar", "Viña del Mar"},
	{"valparaiso", "Valparaíso"},
	{"valparaíso", "Valparaíso"},
	{"concepcion", "Concepción"},
	{"concepción", "Concepción"},
	{"talcahuano", "Talcahuano"},
	{"rancagua", "Rancagua"},
	{"temuco", "Temuco"},
	{"antofagasta", "Antofagasta"},
	{"la serena", "La Serena"},
	{"puerto montt", "Puerto Montt"},
	{"quilpue", "Quilpué"},
	{"quilpué", "Quilpué"},
	// "santiago" last: it appears inside letterheads for most utilities
	{"santiago", "Santiago"},
}

// ExtractAll runs every matcher over text. When positions are supplied, each
// value is located against the page word lists to produce provenance.
func ExtractAll(text string, positions []extract.PageWords) Entities {
	out := Entities{
		RUT:        locate(extractRUT(text), positions),
		ClientName: locate(extractClientName(text), positions),
		ServiceID:  locate(extractServiceID(text), positions),
		Address:    locate(extractAddress(text), positions),
		Comuna:     locate(extractComuna(text), positions),
		Email:      locate(firstMatch(reEmail, text), positions),
		Phone:      locate(firstMatch(rePhone, text), positions),
	}
	for _, amt := range ExtractAmounts(text) {
		out.Amounts = append(out.Amounts, locate(Match{Value: amt}, positions))
	}
	return out
}

// extractRUT tries the dotted form first, then the plain form, and only
// accepts values whose mod-11 check digit verifies.
func extractRUT(text string) Match {
	for _, re := range []*regexp.Regexp{reRUTDotted, reRUTPlain} {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			body := strings.ReplaceAll(m[1], ".", "")
			dv := strings.ToUpper(m[2])
			if rutCheckDigit(body) == dv {
				return Match{Value: body + "-" + dv}
			}
		}
	}
	return Match{}
}

// rutCheckDigit computes the Chilean mod-11 verification digit for a numeric
// RUT body.
func rutCheckDigit(body string) string {
	factors := []int{2, 3, 4, 5, 6, 7}
	sum := 0
	for i := 0; i < len(body); i++ {
		d := int(body[len(body)-1-i] - '0')
		sum += d * factors[i%len(factors)]
	}
	switch r := 11 - sum%11; r {
	case 11:
		return "0"
	case 10:
		return "K"
	default:
		return strconv.Itoa(r)
	}
}

// ExtractAmounts returns every thousands-separated amount greater than
// MinAmount, in text order, formatted without the currency sign.
func ExtractAmounts(text string) []string {
	var out []string
	for _, raw := range reAmount.FindAllString(text, -1) {
		cleaned := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(raw), "$"))
		n, err := strconv.Atoi(strings.ReplaceAll(cleaned, ".", ""))
		if err != nil || n <= MinAmount {
			continue
		}
		out = append(out, cleaned)
	}
	return out
}

// AmountValue parses a formatted amount back into an integer.
func AmountValue(formatted string) (int, bool) {
	n, err := strconv.Atoi(strings.ReplaceAll(formatted, ".", ""))
	return n, err == nil
}

func extractServiceID(text string) Match {
	if m := reServiceAnchored.FindStringSubmatch(text); m != nil {
		return Match{Value: m[1]}
	}
	// fallback: any long numeric run
	if v := reLongDigitRun.FindString(text); v != "" {
		return Match{Value: v}
	}
	return Match{}
}

func extractClientName(text string) Match {
	if m := reNameAnchored.FindStringSubmatch(text); m != nil {
		return Match{Value: strings.TrimSpace(m[1])}
	}
	return Match{}
}

// extractAddress returns the first line anchored by a street keyword.
func extractAddress(text string) Match {
	for _, line := range strings.Split(text, "\n") {
		lower := strings.ToLower(line)
		for _, kw := range streetKeywords {
			if idx := strings.Index(lower, kw); idx >= 0 {
				return Match{Value: strings.TrimSpace(line[idx:])}
			}
		}
	}
	return Match{}
}

func extractComuna(text string) Match {
	lower := strings.ToLower(text)
	for _, c := range comunas {
		if strings.Contains(lower, c.needle) {
			return Match{Value: c.canonical}
		}
	}
	return Match{}
}

func firstMatch(re *regexp.Regexp, text string) Match {
	if v := re.FindString(text); v != "" {
		return Match{Value: strings.TrimSpace(v)}
	}
	return Match{}
}

// minLocateLen guards the containment match: tokens shorter than this are too
// likely to collide (repeated digits, short words).
const minLocateLen = 4

// locate attaches page/box provenance to a match by substring containment
// against the word boxes: the first word containing the value, or contained
// in it, wins. Containment is approximate; two different words can falsely
// satisfy it, which is why short tokens are rejected outright.
func locate(m Match, positions []extract.PageWords) Match {
	if !m.Found() || len(positions) == 0 {
		return m
	}
	needle := strings.ToLower(m.Value)
	if len(needle) < minLocateLen {
		return m
	}
	for _, page := range positions {
		for _, w := range page.Words {
			word := strings.ToLower(w.Text)
			if len(word) < minLocateLen {
				continue
			}
			if strings.Contains(word, needle) || strings.Contains(needle, word) {
				box := w.Box
				m.Page = page.Page
				m.Box = &box
				return m
			}
		}
	}
	return m
}
