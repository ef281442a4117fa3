package textquery

import (
	"fmt"
	"regexp"
)

// QueryRegex extracts matches from text using Go regular expressions.
// When the regex has capture groups, returns the first capture group per match.
// When it has no capture groups, returns the full match.
func QueryRegex(text, expression string, maxResults int) (*QueryResult, error) {
	re, err := compileRegex(expression)
	if err != nil {
		return nil, err
	}

	hasGroups := re.NumSubexp() > 0
	var values []any
	for _, match := range re.FindAllStringSubmatch(text, -1) {
		if limitReached(len(values), maxResults) {
			break
		}
		if hasGroups {
			values = append(values, match[1])
		} else {
			values = append(values, match[0])
		}
	}
	return newResult(ModeRegex, values), nil
}

func compileRegex(expression string) (*regexp.Regexp, error) {
	re, err := regexp.Compile(expression)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid regex: %w", ErrInvalidQuery, err)
	}
	return re, nil
}
