package fiscal

import (
	"net/url"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Page is one page of a PDF text layer in the pdf2json layout: a list of
// positioned text items, each holding one or more runs whose T value is
// percent-encoded.
type Page struct {
	Texts []TextItem `json:"Texts"`
}

// TextItem is a positioned piece of text on a page.
type TextItem struct {
	X float64   `json:"x,omitempty"`
	Y float64   `json:"y,omitempty"`
	R []TextRun `json:"R"`
}

// TextRun is a styled run of a text item.
type TextRun struct {
	T string `json:"T"`
}

// JoinPages flattens a page-structured text layer into one string. Tokens
// keep their order and are separated by single spaces across item and page
// boundaries. Only the first run of each item carries text.
func JoinPages(pages []Page) string {
	parts := make([]string, 0, len(pages))
	for _, page := range pages {
		tokens := make([]string, 0, len(page.Texts))
		for _, item := range page.Texts {
			if len(item.R) == 0 {
				continue
			}
			tokens = append(tokens, DecodeToken(item.R[0].T))
		}
		parts = append(parts, strings.Join(tokens, " "))
	}
	return Normalize(strings.Join(parts, " "))
}

// DecodeToken resolves percent escapes in a text-layer token. A token with a
// malformed escape is returned verbatim.
func DecodeToken(tok string) string {
	if !strings.Contains(tok, "%") {
		return tok
	}
	decoded, err := url.PathUnescape(tok)
	if err != nil {
		return tok
	}
	return decoded
}

// Normalize canonicalizes raw decoded text for pattern matching: NFC
// composition, every whitespace run (including NBSP and line breaks)
// collapsed to one space, and surrounding space trimmed.
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	s = norm.NFC.String(s)

	var sb strings.Builder
	sb.Grow(len(s))
	space := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			space = true
			continue
		}
		if space && sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		space = false
		sb.WriteRune(r)
	}
	return sb.String()
}
