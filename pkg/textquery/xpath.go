package textquery

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/antchfx/htmlquery"
	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
	"golang.org/x/net/html/charset"

	"github.com/usestring/nfextract-mcp/pkg/contenttype"
	"github.com/usestring/nfextract-mcp/pkg/fiscal"
)

// QueryXPath extracts text content from XML or HTML using XPath expressions.
// Uses xmlquery for XML documents and htmlquery for HTML. An expression
// ending in /@name yields the attribute value of each matched element.
//
// local-name() steps match regardless of namespace prefix:
// //*[local-name()='emit']/*[local-name()='CNPJ'].
func QueryXPath(body []byte, category contenttype.Category, contentType, expression string, maxResults int) (*QueryResult, error) {
	if _, err := compileXPath(expression); err != nil {
		return nil, err
	}
	if category == contenttype.HTML {
		return queryXPathHTML(body, contentType, expression, maxResults)
	}
	return queryXPathXML(body, expression, maxResults)
}

func compileXPath(expression string) (*xpath.Expr, error) {
	expr, err := xpath.Compile(expression)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid XPath expression: %w", ErrInvalidQuery, err)
	}
	return expr, nil
}

func queryXPathXML(body []byte, expression string, maxResults int) (*QueryResult, error) {
	doc, err := fiscal.ParseTree(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	elemExpr, attr := splitAttr(expression)
	nodes, err := xmlquery.QueryAll(doc.Root, elemExpr)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid XPath expression: %w", ErrInvalidQuery, err)
	}

	var values []any
	for _, node := range nodes {
		if limitReached(len(values), maxResults) {
			break
		}
		var text string
		if attr != "" {
			text = node.SelectAttr(attr)
		} else {
			text = node.InnerText()
		}
		if text = strings.TrimSpace(text); text != "" {
			values = append(values, text)
		}
	}
	return newResult(ModeXPath, values), nil
}

func queryXPathHTML(body []byte, contentType, expression string, maxResults int) (*QueryResult, error) {
	r, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		r = bytes.NewReader(body)
	}
	doc, err := htmlquery.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	elemExpr, attr := splitAttr(expression)
	nodes, err := htmlquery.QueryAll(doc, elemExpr)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid XPath expression: %w", ErrInvalidQuery, err)
	}

	var values []any
	for _, node := range nodes {
		if limitReached(len(values), maxResults) {
			break
		}
		var text string
		if attr != "" {
			text = htmlquery.SelectAttr(node, attr)
		} else {
			text = htmlquery.InnerText(node)
		}
		if text = strings.TrimSpace(text); text != "" {
			values = append(values, text)
		}
	}
	return newResult(ModeXPath, values), nil
}

// splitAttr separates a trailing /@name step. Anything more elaborate after
// the @ is left to the XPath engine.
func splitAttr(expr string) (string, string) {
	i := strings.LastIndex(expr, "/@")
	if i <= 0 {
		return expr, ""
	}
	name := expr[i+2:]
	if name == "" || strings.ContainsAny(name, "/[]()*=' ") {
		return expr, ""
	}
	return expr[:i], name
}
