// Package decode turns uploaded document bodies into the representations the
// fiscal extractors consume.
package decode

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding/charmap"

	"github.com/usestring/nfextract-mcp/pkg/contenttype"
	"github.com/usestring/nfextract-mcp/pkg/fiscal"
)

var (
	// ErrUnsupported is returned for documents no pipeline can read, such as
	// PDF binaries and images.
	ErrUnsupported = errors.New("unsupported document type")
	// ErrTooLarge is returned when a body exceeds the configured limit.
	ErrTooLarge = errors.New("document exceeds size limit")
	// ErrMalformed wraps parse failures of a recognized document type.
	ErrMalformed = errors.New("malformed document")
)

// Document is a decoded upload. Exactly one of Text and Tree is populated,
// as indicated by Source.
type Document struct {
	Category contenttype.Category
	Source   contenttype.Source
	Text     fiscal.TextDocument
	Tree     fiscal.StructuredDocument
}

// Decoder decodes bodies up to a size limit.
type Decoder struct {
	maxBytes int
}

// New creates a decoder. A non-positive maxBytes disables the limit.
func New(maxBytes int) *Decoder {
	return &Decoder{maxBytes: maxBytes}
}

// Decode classifies body (sniffing when contentType is empty or generic) and
// decodes it for the matching pipeline.
func (d *Decoder) Decode(body []byte, contentType string) (*Document, error) {
	return d.DecodeAs(body, contentType, contenttype.Detect(contentType, body))
}

// DecodeAs decodes body as the given category, skipping detection.
func (d *Decoder) DecodeAs(body []byte, contentType string, category contenttype.Category) (*Document, error) {
	if err := d.Check(body, contentType, category); err != nil {
		return nil, err
	}

	doc := &Document{Category: category, Source: contenttype.SourceOf(category)}
	var err error
	switch category {
	case contenttype.XML:
		doc.Tree, err = fiscal.ParseTree(bytes.NewReader(body))
	case contenttype.HTML:
		doc.Text, err = HTMLText(body, contentType)
	case contenttype.PageJSON:
		doc.Text, err = PageText(body)
	case contenttype.Text:
		doc.Text, err = PlainText(body, contentType)
	}
	if err != nil {
		if errors.Is(err, ErrUnsupported) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return doc, nil
}

// Check reports whether a body of the given category can be decoded without
// decoding it: it must fit the size limit and feed an extraction pipeline.
func (d *Decoder) Check(body []byte, contentType string, category contenttype.Category) error {
	if d.maxBytes > 0 && len(body) > d.maxBytes {
		return fmt.Errorf("%w: %d bytes, limit is %d", ErrTooLarge, len(body), d.maxBytes)
	}
	if contenttype.SourceOf(category) == contenttype.SourceNone {
		return fmt.Errorf("%w: %s", ErrUnsupported, describe(contentType, category))
	}
	return nil
}

// PlainText decodes a text body. A charset parameter on contentType is
// honoured; otherwise invalid UTF-8 is read as Windows-1252, the usual
// encoding of text exported by Brazilian ERP systems.
func PlainText(body []byte, contentType string) (fiscal.TextDocument, error) {
	if label := charsetParam(contentType); label != "" {
		enc, name := charset.Lookup(label)
		if enc == nil {
			return fiscal.TextDocument{}, fmt.Errorf("%w: unknown charset %q", ErrUnsupported, label)
		}
		if name != "utf-8" {
			out, err := enc.NewDecoder().Bytes(body)
			if err != nil {
				return fiscal.TextDocument{}, fmt.Errorf("failed to decode %s text: %w", name, err)
			}
			body = out
		}
	}
	if !utf8.Valid(body) {
		out, err := charmap.Windows1252.NewDecoder().Bytes(body)
		if err != nil {
			return fiscal.TextDocument{}, fmt.Errorf("failed to decode text: %w", err)
		}
		body = out
	}
	return fiscal.TextDocument{Content: fiscal.Normalize(string(body))}, nil
}

// pdfDocument covers both layouts pdf2json has emitted over time.
type pdfDocument struct {
	Pages     []fiscal.Page `json:"Pages"`
	FormImage *struct {
		Pages []fiscal.Page `json:"Pages"`
	} `json:"formImage"`
}

// PageText decodes pdf2json output: a document object with a Pages array, the
// legacy formImage wrapper, or a bare array of pages.
func PageText(body []byte) (fiscal.TextDocument, error) {
	trimmed := bytes.TrimSpace(body)
	var pages []fiscal.Page
	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &pages); err != nil {
			return fiscal.TextDocument{}, fmt.Errorf("failed to parse page JSON: %w", err)
		}
	} else {
		var doc pdfDocument
		if err := json.Unmarshal(trimmed, &doc); err != nil {
			return fiscal.TextDocument{}, fmt.Errorf("failed to parse page JSON: %w", err)
		}
		pages = doc.Pages
		if len(pages) == 0 && doc.FormImage != nil {
			pages = doc.FormImage.Pages
		}
	}
	return fiscal.TextDocument{Content: fiscal.JoinPages(pages)}, nil
}

// HTMLText extracts the visible text of an HTML page (for example a DANFE
// rendered by a tax portal). Script and style content is dropped and text
// nodes are joined with single spaces.
func HTMLText(body []byte, contentType string) (fiscal.TextDocument, error) {
	r, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		r = bytes.NewReader(body)
	}
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return fiscal.TextDocument{}, fmt.Errorf("failed to parse HTML: %w", err)
	}
	doc.Find("script, style, noscript, template").Remove()

	var parts []string
	for _, n := range doc.Nodes {
		collectText(n, &parts)
	}
	return fiscal.TextDocument{Content: fiscal.Normalize(strings.Join(parts, " "))}, nil
}

func collectText(n *html.Node, parts *[]string) {
	if n.Type == html.TextNode {
		if s := strings.TrimSpace(n.Data); s != "" {
			*parts = append(*parts, s)
		}
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, parts)
	}
}

func charsetParam(contentType string) string {
	if contentType == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(params["charset"])
}

func describe(contentType string, category contenttype.Category) string {
	if contentType != "" {
		return contentType
	}
	return string(category)
}
