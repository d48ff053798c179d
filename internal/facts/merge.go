package facts

import "github.com/expedientix/edn-core/internal/entity"

// extractFromBill is the bill-derived fact source. Reserved: bill parsing is
// not implemented, the extraction is always empty.
func extractFromBill([]entity.Document) Extraction {
	return newExtraction()
}

// extractFromPhotos is the photo-derived fact source. Reserved, always empty.
func extractFromPhotos([]entity.Document) Extraction {
	return newExtraction()
}

// BuildFeatures merges the per-source extractions into the consolidated fact
// set with strict priority: text-derived first, then source-strategy, then
// the bill and photo stubs. A key already present is never overwritten by a
// lower-priority source.
func BuildFeatures(text Extraction, sources Extraction, docs []entity.Document) Extraction {
	out := newExtraction()
	for _, ex := range []Extraction{text, sources, extractFromBill(docs), extractFromPhotos(docs)} {
		for k, v := range ex.Facts {
			if _, ok := out.Facts[k]; !ok {
				out.Facts[k] = v
			}
		}
		out.Evidence.Merge(ex.Evidence)
	}
	return out
}
