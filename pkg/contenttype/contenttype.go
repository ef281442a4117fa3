package contenttype

import (
	"bytes"
	"mime"
	"strings"
	"unicode/utf8"
)

// Category represents a broad classification of an uploaded document.
type Category string

const (
	XML      Category = "xml"
	HTML     Category = "html"
	PageJSON Category = "pages"
	Text     Category = "text"
	Binary   Category = "binary"
)

// Source is the extraction pipeline a category feeds.
type Source string

const (
	SourceText Source = "text"
	SourceXML  Source = "xml"
	SourceNone Source = ""
)

// Classify returns the category for a content-type header value.
// Uses mime.ParseMediaType to strip parameters (charset, boundary, etc.)
// before matching. Falls back to strings.ToLower for malformed values.
// Returns Binary for empty content-type strings.
func Classify(contentType string) Category {
	if contentType == "" {
		return Binary
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(contentType))
	}

	// pdf2json output: application/json, application/vnd.*+json
	if strings.Contains(mediaType, "json") {
		return PageJSON
	}

	// HTML: text/html, application/xhtml+xml
	if mediaType == "text/html" || mediaType == "application/xhtml+xml" {
		return HTML
	}

	// XML: application/xml, text/xml, application/vnd.*+xml
	if strings.Contains(mediaType, "xml") {
		return XML
	}

	if strings.HasPrefix(mediaType, "text/") {
		return Text
	}

	// image/*, octet-stream, pdf, zip and anything unknown
	return Binary
}

// Detect classifies a document from its declared content type, sniffing the
// body when the type is missing or generic (application/octet-stream).
func Detect(contentType string, body []byte) Category {
	if c := Classify(contentType); c != Binary || !isGeneric(contentType) {
		return c
	}
	return Sniff(body)
}

// Sniff guesses the category from the leading bytes of body.
func Sniff(body []byte) Category {
	head := bytes.TrimLeft(body, " \t\r\n\ufeff")
	if len(head) > 512 {
		head = head[:512]
	}
	lower := bytes.ToLower(head)

	switch {
	case len(head) == 0:
		return Text
	case bytes.HasPrefix(head, []byte("%PDF")):
		return Binary
	case bytes.HasPrefix(lower, []byte("<!doctype html")) || bytes.Contains(lower, []byte("<html")):
		return HTML
	case head[0] == '<':
		return XML
	case head[0] == '[' || head[0] == '{':
		return PageJSON
	case validPrefix(head) && bytes.IndexByte(head, 0) < 0:
		return Text
	default:
		return Binary
	}
}

// validPrefix reports whether b is valid UTF-8, tolerating a rune cut off at
// the end.
func validPrefix(b []byte) bool {
	for i := 0; i < utf8.UTFMax-1 && len(b) > 0 && !utf8.Valid(b); i++ {
		b = b[:len(b)-1]
	}
	return utf8.Valid(b)
}

func isGeneric(contentType string) bool {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	return ct == "" || strings.Contains(ct, "octet-stream")
}

// SourceOf maps a category to the extraction pipeline that handles it.
// Binary documents have no pipeline.
func SourceOf(c Category) Source {
	switch c {
	case XML:
		return SourceXML
	case HTML, PageJSON, Text:
		return SourceText
	default:
		return SourceNone
	}
}
