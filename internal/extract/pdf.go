package extract

import (
	"context"
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"github.com/expedientix/edn-core/constants"
	"github.com/expedientix/edn-core/internal/entity"
)

func (e *Extractor) extractPDF(ctx context.Context, path string, withPositions bool) (Result, error) {
	text, pages, warns, err := e.pdfToText(ctx, path)
	if err != nil {
		return Result{Format: constants.FormatPDF, Warnings: warns}, err
	}

	res := Result{
		Text:     Normalize(text),
		Pages:    pages,
		Format:   constants.FormatPDF,
		Method:   "pdf-text",
		Warnings: warns,
	}

	if withPositions {
		pos, w, err := e.pdfWordBoxes(ctx, path)
		res.Warnings = append(res.Warnings, w...)
		if err != nil {
			// text still usable; positions are best-effort
			res.Warnings = append(res.Warnings, fmt.Sprintf("bbox extraction failed: %v", err))
		} else {
			res.Positions = pos
			res.Method = "pdf-bbox"
		}
	}
	return res, nil
}

func (e *Extractor) pdfToText(ctx context.Context, path string) (text string, pages int, warnings []string, err error) {
	// pdftotext -layout -enc UTF-8 -eol unix <path> -
	args := []string{"-layout", "-enc", "UTF-8", "-eol", "unix"}
	if e.cfg.MaxPages > 0 {
		args = append(args, "-l", strconv.Itoa(e.cfg.MaxPages))
	}
	args = append(args, path, "-")
	out, errb, err := e.runner.Run(ctx, e.cfg.Pdftotext, args...)
	if err != nil {
		return "", 0, []string{string(errb)}, err
	}
	text = string(out)
	// A form-feed \f is used as page separator by default
	pages = 1 + strings.Count(text, "\f")
	return text, pages, nil, nil
}

// pdfWordBoxes runs pdftotext -bbox-layout and parses the XHTML word list
// into per-page word boxes.
func (e *Extractor) pdfWordBoxes(ctx context.Context, path string) ([]PageWords, []string, error) {
	args := []string{"-bbox-layout", "-enc", "UTF-8"}
	if e.cfg.MaxPages > 0 {
		args = append(args, "-l", strconv.Itoa(e.cfg.MaxPages))
	}
	args = append(args, path, "-")
	out, errb, err := e.runner.Run(ctx, e.cfg.Pdftotext, args...)
	if err != nil {
		return nil, []string{string(errb)}, err
	}
	pages, err := parseBBoxXML(out)
	if err != nil {
		return nil, nil, fmt.Errorf("parse bbox output: %w", err)
	}
	return pages, nil, nil
}

// parseBBoxXML walks the pdftotext -bbox-layout XHTML token stream. We only
// care about <page> boundaries and <word> elements with their min/max attrs.
func parseBBoxXML(data []byte) ([]PageWords, error) {
	dec := xml.NewDecoder(strings.NewReader(string(data)))
	dec.Strict = false

	var (
		pages   []PageWords
		current *PageWords
	)
	for {
		tok, err := dec.Token()
		if err != nil {
			break // io.EOF or tolerable malformation at stream end
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch start.Name.Local {
		case "page":
			pages = append(pages, PageWords{Page: len(pages) + 1})
			current = &pages[len(pages)-1]
		case "word":
			if current == nil {
				continue
			}
			box := entity.BoundingBox{}
			for _, a := range start.Attr {
				v, err := strconv.ParseFloat(a.Value, 64)
				if err != nil {
					continue
				}
				switch a.Name.Local {
				case "xMin":
					box.XMin = v
				case "yMin":
					box.YMin = v
				case "xMax":
					box.XMax = v
				case "yMax":
					box.YMax = v
				}
			}
			var sb strings.Builder
			if err := collectText(dec, &start, &sb); err != nil {
				return nil, err
			}
			word := strings.TrimSpace(sb.String())
			if word != "" {
				current.Words = append(current.Words, WordBox{Text: word, Box: box})
			}
		}
	}
	return pages, nil
}

// collectText consumes tokens until the matching end element, accumulating
// character data.
func collectText(dec *xml.Decoder, start *xml.StartElement, sb *strings.Builder) error {
	for {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.CharData:
			sb.Write(t)
		case xml.EndElement:
			if t.Name.Local == start.Name.Local {
				return nil
			}
		}
	}
}
