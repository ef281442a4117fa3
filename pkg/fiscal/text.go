package fiscal

import (
	"regexp"
)

// TextDocument is the decoded, page-joined text layer of one document.
type TextDocument struct {
	Content string
}

// Extractor turns one document representation into a Record. Callers pick
// the implementation matching the representation they hold.
type Extractor[D any] interface {
	Extract(doc D) *Record
}

// TextExtractor resolves fields from unstructured text.
type TextExtractor struct {
	catalog *Catalog
}

var _ Extractor[TextDocument] = (*TextExtractor)(nil)

// NewTextExtractor creates a text extractor over catalog. A nil catalog uses
// DefaultCatalog.
func NewTextExtractor(catalog *Catalog) *TextExtractor {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	return &TextExtractor{catalog: catalog}
}

// Extract normalizes the document text and evaluates the text rules field by
// field; when a field has several rules the first one that matches wins. The
// freight payer is resolved last from the two tax IDs. Every text field is
// present in the result.
func (e *TextExtractor) Extract(doc TextDocument) *Record {
	blob := Normalize(doc.Content)

	var b recordBuilder
	for _, rule := range e.catalog.Text {
		if f, ok := findField(&b, rule.Field); ok && f.Value != NotFound {
			continue
		}
		value, ok := MatchRule(blob, rule)
		if !ok {
			value = NotFound
		}
		b.set(rule.Field, value)
	}

	sender := valueOf(&b, FieldSenderTaxID)
	recipient := valueOf(&b, FieldRecipientTaxID)
	b.set(FieldFreightPayerTaxID, ResolveFreightText(blob, e.catalog.Freight, sender, recipient))

	for _, f := range TextFields {
		if _, ok := findField(&b, f); !ok {
			b.set(f, NotFound)
		}
	}
	return b.build(TextFields)
}

// ExtractFromText runs the default text rules over content.
func ExtractFromText(content string) *Record {
	return defaultTextExtractor.Extract(TextDocument{Content: content})
}

var defaultTextExtractor = NewTextExtractor(nil)

// MatchRule applies rule to blob and returns the post-processed value of the
// first matching pattern. The boolean is false when no pattern yields the
// requested occurrence or the selected group is empty.
func MatchRule(blob string, rule TextRule) (string, bool) {
	for _, re := range rule.Patterns {
		raw, ok := matchOccurrence(blob, re, rule.Occurrence, rule.Group)
		if !ok {
			continue
		}
		return Apply(raw, rule.Steps...), true
	}
	return "", false
}

// matchOccurrence returns capture group of the n-th (1-based) match of re.
func matchOccurrence(blob string, re *regexp.Regexp, n, group int) (string, bool) {
	if n <= 0 {
		n = 1
	}
	matches := re.FindAllStringSubmatchIndex(blob, n)
	if len(matches) < n {
		return "", false
	}
	m := matches[n-1]
	if 2*group+1 >= len(m) || m[2*group] < 0 {
		return "", false
	}
	value := blob[m[2*group]:m[2*group+1]]
	if value == "" {
		return "", false
	}
	return value, true
}

func findField(b *recordBuilder, name FieldName) (Field, bool) {
	for _, f := range b.fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

func valueOf(b *recordBuilder, name FieldName) string {
	if f, ok := findField(b, name); ok {
		return f.Value
	}
	return NotFound
}
