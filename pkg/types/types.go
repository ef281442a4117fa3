// Package types provides shared types for nfextract-mcp.
// These types are used across multiple packages and are designed for external consumption.
package types

import (
	"encoding/json"

	"github.com/usestring/nfextract-mcp/pkg/fiscal"
)

// ToAny round-trips a typed value through JSON to produce an untyped any.
// Use this when a tool output field must be any (instead of json.RawMessage)
// to satisfy the MCP SDK's schema validation.
func ToAny(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FieldResult is one record field as presented to clients, in record order.
type FieldResult struct {
	Name  string `json:"name"`
	Label string `json:"label"`
	Value string `json:"value"`
	Found bool   `json:"found"`
}

// FieldResults flattens a record into display rows.
func FieldResults(rec *fiscal.Record) []FieldResult {
	fields := rec.Fields()
	out := make([]FieldResult, 0, len(fields))
	for _, f := range fields {
		out = append(out, FieldResult{
			Name:  string(f.Name),
			Label: f.Name.Label(),
			Value: f.Value,
			Found: f.Found(),
		})
	}
	return out
}

// FieldInfo describes one extractable field.
type FieldInfo struct {
	Name     string   `json:"name"`
	Label    string   `json:"label"`
	Sources  []string `json:"sources"`
	Optional bool     `json:"optional,omitempty"`
}
