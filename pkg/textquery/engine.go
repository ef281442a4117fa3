// Package textquery probes uploaded documents with regex, XPath, CSS or jq
// expressions. It shows a document the way the extractors see it, which is
// what a rule override has to match.
package textquery

import (
	"errors"
	"fmt"
	"strings"

	"github.com/andybalholm/cascadia"

	"github.com/usestring/nfextract-mcp/internal/decode"
	"github.com/usestring/nfextract-mcp/internal/query"
	"github.com/usestring/nfextract-mcp/pkg/contenttype"
	"github.com/usestring/nfextract-mcp/pkg/fiscal"
)

// ErrInvalidQuery is returned for an unknown mode, a mode that cannot run on
// the document, or an expression that does not compile.
var ErrInvalidQuery = errors.New("invalid query")

// Engine dispatches probe queries to mode-specific handlers.
type Engine struct {
	jq      *query.Engine
	decoder *decode.Decoder
}

// NewEngine creates a probe engine. Bodies are size-checked and decoded by
// decoder; a nil decoder applies no size limit.
func NewEngine(jq *query.Engine, decoder *decode.Decoder) *Engine {
	if jq == nil {
		jq = query.NewEngine()
	}
	if decoder == nil {
		decoder = decode.New(0)
	}
	return &Engine{jq: jq, decoder: decoder}
}

// Query runs expression against body. The document category is detected the
// same way the extract tools detect it. If mode is empty, it is derived from
// the category.
//
// Regex runs over the text the text extractor sees: the normalized visible
// text for HTML, the joined runs for page JSON and the decoded body for plain
// text. For XML it runs over the raw markup.
func (e *Engine) Query(body []byte, contentType, expression, mode string, maxResults int) (*QueryResult, error) {
	category := contenttype.Detect(contentType, body)
	if err := e.decoder.Check(body, contentType, category); err != nil {
		return nil, err
	}

	mode = strings.ToLower(strings.TrimSpace(mode))
	if mode == "" {
		mode = DetectMode(category)
	}
	if err := e.ValidateExpression(expression, mode); err != nil {
		return nil, err
	}
	if !accepts(mode, category) {
		return nil, fmt.Errorf("%w: %s mode cannot run on a %s document", ErrInvalidQuery, mode, category)
	}

	var (
		res *QueryResult
		err error
	)
	switch mode {
	case ModeCSS:
		res, err = QueryCSS(body, contentType, expression, maxResults)
	case ModeXPath:
		res, err = QueryXPath(body, category, contentType, expression, maxResults)
	case ModeRegex:
		res, err = e.queryRegex(body, contentType, category, expression, maxResults)
	case ModeJQ:
		res, err = e.queryJQ(body, expression, maxResults)
	}
	if err != nil {
		if errors.Is(err, ErrInvalidQuery) || errors.Is(err, decode.ErrUnsupported) || errors.Is(err, decode.ErrMalformed) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", decode.ErrMalformed, err)
	}
	res.Category = string(category)
	return res, nil
}

// ValidateExpression checks if an expression is valid for the given mode.
func (e *Engine) ValidateExpression(expression, mode string) error {
	if strings.TrimSpace(expression) == "" {
		return fmt.Errorf("%w: expression is required", ErrInvalidQuery)
	}
	switch mode {
	case ModeCSS:
		if _, err := cascadia.Compile(expression); err != nil {
			return fmt.Errorf("%w: invalid CSS selector: %w", ErrInvalidQuery, err)
		}
		return nil
	case ModeXPath:
		_, err := compileXPath(expression)
		return err
	case ModeRegex:
		_, err := compileRegex(expression)
		return err
	case ModeJQ:
		if err := e.jq.ValidateExpression(expression); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidQuery, err)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown mode %q (valid: %s)", ErrInvalidQuery, mode, strings.Join(Modes, ", "))
	}
}

func (e *Engine) queryRegex(body []byte, contentType string, category contenttype.Category, expression string, maxResults int) (*QueryResult, error) {
	if category == contenttype.XML {
		return QueryRegex(string(body), expression, maxResults)
	}
	doc, err := e.decoder.DecodeAs(body, contentType, category)
	if err != nil {
		return nil, err
	}
	return QueryRegex(doc.Text.Content, expression, maxResults)
}

// queryJQ applies a jq expression to pdf2json output. $sentinel is bound to
// the not-found marker, as for batch filters.
func (e *Engine) queryJQ(body []byte, expression string, maxResults int) (*QueryResult, error) {
	jqResult, err := e.jq.Query(body, expression, fiscal.NotFound, false, maxResults)
	if err != nil {
		return nil, err
	}
	res := newResult(ModeJQ, jqResult.Values)
	res.Errors = jqResult.Errors
	return res, nil
}
