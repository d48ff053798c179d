package extract

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/expedientix/edn-core/constants"
)

// extractDocx pulls the text runs out of word/document.xml. DOCX is a zip
// archive; the text lives in <w:t> elements, paragraphs in <w:p>.
func (e *Extractor) extractDocx(path string) (Result, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return Result{Format: constants.FormatDocx}, fmt.Errorf("open docx: %w", err)
	}
	defer func() {
		if cerr := r.Close(); cerr != nil {
			e.logger.Warn("close docx archive", "path", path, "error", cerr)
		}
	}()

	var doc *zip.File
	for _, f := range r.File {
		if f.Name == "word/document.xml" {
			doc = f
			break
		}
	}
	if doc == nil {
		return Result{Format: constants.FormatDocx}, fmt.Errorf("docx missing word/document.xml")
	}

	rc, err := doc.Open()
	if err != nil {
		return Result{Format: constants.FormatDocx}, fmt.Errorf("open document.xml: %w", err)
	}
	defer func() {
		_ = rc.Close()
	}()

	text, err := docxText(rc)
	if err != nil {
		return Result{Format: constants.FormatDocx}, fmt.Errorf("decode document.xml: %w", err)
	}

	return Result{
		Text:   Normalize(text),
		Pages:  1,
		Format: constants.FormatDocx,
		Method: "docx-xml",
	}, nil
}

func docxText(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	var sb strings.Builder
	var inText bool
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				sb.WriteString(" ")
			case "br":
				sb.WriteString("\n")
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				sb.WriteString("\n")
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
			}
		}
	}
	return sb.String(), nil
}
