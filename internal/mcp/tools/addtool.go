package tools

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/nfextract-mcp/pkg/fiscal"
)

// schemaOptions describes types whose JSON form is not their struct shape.
// A fiscal.Record marshals as an object of string values in field order.
func schemaOptions() *jsonschema.ForOptions {
	return &jsonschema.ForOptions{
		TypeSchemas: map[reflect.Type]*jsonschema.Schema{
			reflect.TypeFor[fiscal.Record](): {
				Type:                 "object",
				AdditionalProperties: &jsonschema.Schema{Type: "string"},
			},
		},
	}
}

// OutputSchema infers the output schema of T with schemaOptions.
func OutputSchema[T any]() (*jsonschema.Schema, error) {
	rt := reflect.TypeFor[T]()
	for rt.Kind() == reflect.Pointer {
		rt = rt.Elem()
	}
	return jsonschema.ForType(rt, schemaOptions())
}

// AddTool registers a tool after checking that the zero value of its output
// type satisfies its output schema. The schema is inferred with
// schemaOptions unless t carries one.
//
// Panics if the check fails.
func AddTool[In, Out any](srv *sdkmcp.Server, t *sdkmcp.Tool, h sdkmcp.ToolHandlerFor[In, Out]) {
	CheckOutputSchema[Out](t.Name)
	if t.OutputSchema == nil && reflect.TypeFor[Out]() != reflect.TypeFor[any]() {
		if s, err := OutputSchema[Out](); err == nil {
			t.OutputSchema = s
		}
	}
	sdkmcp.AddTool(srv, t, h)
}

// CheckOutputSchema panics when the output type T of a tool cannot be
// serialized in a way its inferred schema accepts:
//
//   - a nil slice or map without omitempty/omitzero marshals as null while
//     the schema demands an array or object;
//   - a json.RawMessage field marshals as embedded JSON while the schema
//     describes it as an array of bytes.
//
// The untyped output any is accepted as is. Schema inference failures are
// left for sdkmcp.AddTool to report.
func CheckOutputSchema[T any](toolName string) {
	rt := reflect.TypeFor[T]()
	if rt == reflect.TypeFor[any]() {
		return
	}
	for rt.Kind() == reflect.Pointer {
		rt = rt.Elem()
	}

	if paths := rawMessagePaths(rt, nil, map[reflect.Type]bool{}); len(paths) > 0 {
		panic(fmt.Sprintf(
			"tool %q: output type %s has json.RawMessage at %s; use any and convert with types.ToAny",
			toolName, rt, strings.Join(paths, ", "),
		))
	}

	if err := validateZero(rt); err != nil {
		panic(fmt.Sprintf(
			"tool %q: zero value of output type %s does not match its schema: %v; add omitzero to slice and map fields or initialize them",
			toolName, rt, err,
		))
	}
}

// validateZero validates the JSON form of the zero value of t against the
// schema inferred for t.
func validateZero(t reflect.Type) error {
	schema, err := jsonschema.ForType(t, schemaOptions())
	if err != nil {
		return nil
	}
	resolved, err := schema.Resolve(&jsonschema.ResolveOptions{})
	if err != nil {
		return nil
	}

	data, err := json.Marshal(reflect.Zero(t).Interface())
	if err != nil {
		return nil
	}
	var v map[string]any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil
	}

	if err := resolved.Validate(&v); err != nil {
		return fmt.Errorf("%w (JSON: %s)", err, data)
	}
	return nil
}

var rawMessageType = reflect.TypeFor[json.RawMessage]()

// rawMessagePaths returns the dotted paths of every json.RawMessage reachable
// from t through exported fields, slice/array elements and map values.
func rawMessagePaths(t reflect.Type, path []string, visiting map[reflect.Type]bool) []string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == rawMessageType {
		return []string{strings.Join(path, ".")}
	}
	if visiting[t] {
		return nil
	}
	visiting[t] = true
	defer delete(visiting, t)

	switch t.Kind() {
	case reflect.Struct:
		var found []string
		for i := range t.NumField() {
			f := t.Field(i)
			if !f.IsExported() {
				continue
			}
			found = append(found, rawMessagePaths(f.Type, append(path[:len(path):len(path)], f.Name), visiting)...)
		}
		return found
	case reflect.Slice, reflect.Array:
		return rawMessagePaths(t.Elem(), append(path[:len(path):len(path)], "[]"), visiting)
	case reflect.Map:
		return rawMessagePaths(t.Elem(), append(path[:len(path):len(path)], "[value]"), visiting)
	}
	return nil
}
