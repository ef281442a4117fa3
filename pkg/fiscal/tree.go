package fiscal

import (
	"fmt"
	"io"
	"strings"

	"github.com/antchfx/xmlquery"
)

// StructuredDocument is a parsed XML tree of one document.
type StructuredDocument struct {
	Root *xmlquery.Node
}

// ParseTree parses an XML document. Declared non-UTF-8 charsets are honoured
// by the parser.
func ParseTree(r io.Reader) (StructuredDocument, error) {
	root, err := xmlquery.Parse(r)
	if err != nil {
		return StructuredDocument{}, fmt.Errorf("failed to parse XML: %w", err)
	}
	return StructuredDocument{Root: root}, nil
}

// TreeExtractor resolves fields from an XML tree.
type TreeExtractor struct {
	catalog *Catalog
}

var _ Extractor[StructuredDocument] = (*TreeExtractor)(nil)

// NewTreeExtractor creates an XML extractor over catalog. A nil catalog uses
// DefaultCatalog.
func NewTreeExtractor(catalog *Catalog) *TreeExtractor {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	return &TreeExtractor{catalog: catalog}
}

// Extract evaluates every tree rule against the document. Required fields
// that cannot be found carry NotFound; optional terminal fields are left out
// of the record instead.
func (e *TreeExtractor) Extract(doc StructuredDocument) *Record {
	var b recordBuilder
	for _, rule := range e.catalog.Tree {
		value, ok := LookupRule(doc.Root, rule)
		switch {
		case ok:
			b.set(rule.Field, value)
		case !rule.Optional:
			b.set(rule.Field, NotFound)
		}
	}

	sender := valueOf(&b, FieldSenderTaxID)
	recipient := valueOf(&b, FieldRecipientTaxID)
	code, _ := lookupPath(doc.Root, e.catalog.FreightCodePath)
	b.set(FieldFreightPayerTaxID, ResolveFreightCode(code, e.catalog.FreightCodes, sender, recipient))

	for _, f := range TreeFields {
		if _, ok := findField(&b, f); !ok && !f.Optional() {
			b.set(f, NotFound)
		}
	}
	return b.build(TreeFields)
}

// ExtractFromStructuredTree runs the default tree rules over root.
func ExtractFromStructuredTree(root *xmlquery.Node) *Record {
	return defaultTreeExtractor.Extract(StructuredDocument{Root: root})
}

var defaultTreeExtractor = NewTreeExtractor(nil)

// LookupRule returns the post-processed value of the first path of rule that
// resolves to non-empty text.
func LookupRule(root *xmlquery.Node, rule TreeRule) (string, bool) {
	for _, p := range rule.Paths {
		raw, ok := lookupPath(root, p)
		if !ok {
			continue
		}
		value := Apply(raw, rule.Steps...)
		if value == "" {
			continue
		}
		return value, true
	}
	return "", false
}

func lookupPath(root *xmlquery.Node, path string) (string, bool) {
	if root == nil || path == "" {
		return "", false
	}
	expr, err := compilePath(path)
	if err != nil {
		return "", false
	}
	elemExpr, attr := splitAttr(expr)
	nodes, err := xmlquery.QueryAll(root, elemExpr)
	if err != nil {
		return "", false
	}
	for _, n := range nodes {
		var text string
		if attr != "" {
			text = n.SelectAttr(attr)
		} else {
			text = n.InnerText()
		}
		if text = strings.TrimSpace(text); text != "" {
			return text, true
		}
	}
	return "", false
}

// splitAttr separates a trailing /@attr step from a compiled path.
func splitAttr(expr string) (string, string) {
	i := strings.LastIndex(expr, "/@")
	if i < 0 {
		return expr, ""
	}
	return expr[:i], expr[i+2:]
}

// compilePath turns a rule path into a namespace-agnostic XPath expression.
//
// A path is a slash-separated chain of element names, each matched anywhere
// below the previous one, optionally ending in an @attribute step:
//
//	emit/CNPJ    ->  //*[local-name()='emit']//*[local-name()='CNPJ']
//	infNFe/@Id   ->  //*[local-name()='infNFe']/@Id
//
// NF-e documents declare a default namespace, so plain element names would
// not match.
func compilePath(path string) (string, error) {
	steps := strings.Split(strings.Trim(path, "/"), "/")
	var sb strings.Builder
	for i, step := range steps {
		if step == "" {
			return "", fmt.Errorf("invalid path %q: empty step", path)
		}
		if strings.HasPrefix(step, "@") {
			if i != len(steps)-1 || len(step) == 1 {
				return "", fmt.Errorf("invalid path %q: attribute step must be last", path)
			}
			sb.WriteString("/")
			sb.WriteString(step)
			continue
		}
		if strings.ContainsAny(step, "'[]()*@ ") {
			return "", fmt.Errorf("invalid path %q: bad element name %q", path, step)
		}
		sb.WriteString("//*[local-name()='")
		sb.WriteString(step)
		sb.WriteString("']")
	}
	return sb.String(), nil
}
