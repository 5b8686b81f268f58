package constants

import "strings"

// DocumentKind is the declared (or sniffed) kind of a source document.
type DocumentKind string

const (
	PDF  DocumentKind = "PDF"
	DOCX DocumentKind = "DOCX"
)

// DocumentKinds holds the kinds accepted by text acquisition.
var DocumentKinds = []DocumentKind{PDF, DOCX}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MapExtToKind maps a normalized file extension to a document kind.
// Returns "" for unsupported extensions.
func MapExtToKind(ext string) DocumentKind {
	switch NormalizeExt(ext) {
	case "pdf":
		return PDF
	case "docx", "odt":
		return DOCX
	default:
		return ""
	}
}
