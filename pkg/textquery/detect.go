package textquery

import (
	"github.com/usestring/nfextract-mcp/pkg/contenttype"
)

// Mode constants for probe languages.
const (
	ModeCSS   = "css"
	ModeXPath = "xpath"
	ModeRegex = "regex"
	ModeJQ    = "jq"
)

// Modes lists every supported mode.
var Modes = []string{ModeRegex, ModeXPath, ModeCSS, ModeJQ}

// DetectMode returns the natural probe language for a document category.
// Text has no structure, so it and anything unrecognised get regex.
func DetectMode(c contenttype.Category) string {
	switch c {
	case contenttype.XML:
		return ModeXPath
	case contenttype.HTML:
		return ModeCSS
	case contenttype.PageJSON:
		return ModeJQ
	default:
		return ModeRegex
	}
}

// accepts reports whether mode can run against a document of category c.
// Regex runs over the extracted text of every readable category.
func accepts(mode string, c contenttype.Category) bool {
	switch mode {
	case ModeRegex:
		return true
	case ModeXPath:
		return c == contenttype.XML || c == contenttype.HTML
	case ModeCSS:
		return c == contenttype.HTML
	case ModeJQ:
		return c == contenttype.PageJSON
	default:
		return false
	}
}
