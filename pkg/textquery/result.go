package textquery

// QueryResult holds the values a probe expression selected from one document.
type QueryResult struct {
	Values   []any    `json:"values"`
	Count    int      `json:"count"`
	Mode     string   `json:"mode"`
	Category string   `json:"category"`
	Errors   []string `json:"errors,omitempty"`
}

func newResult(mode string, values []any) *QueryResult {
	if values == nil {
		values = []any{}
	}
	return &QueryResult{Values: values, Count: len(values), Mode: mode}
}

// limitReached reports whether n values already fill maxResults. A
// non-positive maxResults means no limit.
func limitReached(n, maxResults int) bool {
	return maxResults > 0 && n >= maxResults
}
