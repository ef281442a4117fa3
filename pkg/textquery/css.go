package textquery

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"
)

// QueryCSS extracts the trimmed text of every HTML element matching a CSS
// selector. Empty elements are skipped.
func QueryCSS(body []byte, contentType, expression string, maxResults int) (*QueryResult, error) {
	r, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		r = bytes.NewReader(body)
	}
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	var values []any
	doc.Find(expression).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if text := strings.TrimSpace(s.Text()); text != "" {
			values = append(values, text)
		}
		return !limitReached(len(values), maxResults)
	})
	return newResult(ModeCSS, values), nil
}
