package constants

import "strings"

// FileFormat buckets extensions into extraction strategies.
type FileFormat string

const (
	FormatPDF   FileFormat = "PDF"
	FormatDocx  FileFormat = "DOCX"
	FormatImage FileFormat = "IMAGE"
)

// AllowedExtensions holds the file extensions the compiler will ingest.
var AllowedExtensions = map[string]struct{}{
	"pdf":  {},
	"doc":  {},
	"docx": {},
	"jpg":  {},
	"jpeg": {},
	"png":  {},
}

// ImageExtensions are classified as photographic evidence by extension alone.
var ImageExtensions = map[string]struct{}{
	"jpg":  {},
	"jpeg": {},
	"png":  {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MapExtToFormat maps a normalized extension to its extraction format.
// Unknown extensions return "".
func MapExtToFormat(ext string) FileFormat {
	switch NormalizeExt(ext) {
	case "pdf":
		return FormatPDF
	case "doc", "docx":
		return FormatDocx
	case "jpg", "jpeg", "png":
		return FormatImage
	default:
		return ""
	}
}

// IsImageExt reports whether the normalized extension is an image format.
func IsImageExt(ext string) bool {
	_, ok := ImageExtensions[NormalizeExt(ext)]
	return ok
}
