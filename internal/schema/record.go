package schema

import (
	"regexp"

	"github.com/invopop/jsonschema"

	"github.com/usestring/nfextract-mcp/pkg/contenttype"
	"github.com/usestring/nfextract-mcp/pkg/fiscal"
)

// Value shapes a found field is expected to have after post-processing.
// Amounts are captured as [\d.,]+ and leave the steps as [\d.]+, trailing
// punctuation included ("1,5," becomes "1.5."), so they are not held to a
// strict decimal.
var valuePatterns = map[fiscal.FieldName]string{
	fiscal.FieldFreightPayerTaxID:     `\d{11}|\d{14}`,
	fiscal.FieldSenderTaxID:           `\d{11}|\d{14}`,
	fiscal.FieldRecipientTaxID:        `\d{11}|\d{14}`,
	fiscal.FieldPickupTerminalTaxID:   `\d{11}|\d{14}`,
	fiscal.FieldDeliveryTerminalTaxID: `\d{11}|\d{14}`,
	fiscal.FieldSeries:                `\d+`,
	fiscal.FieldDocumentNumber:        `\d+`,
	fiscal.FieldAccessKey:             `\d{44}`,
	fiscal.FieldQuantity:              `[\d.,]+`,
	fiscal.FieldNetWeight:             `[\d.]+`,
	fiscal.FieldTotalValue:            `[\d.]+`,
}

// FieldPattern returns the anchored pattern a value of field must match,
// sentinels included. The freight payer additionally accepts Unspecified.
func FieldPattern(field fiscal.FieldName) string {
	alts := valuePatterns[field]
	if alts == "" {
		alts = `.*`
	}
	alts += "|" + regexp.QuoteMeta(fiscal.NotFound)
	if field == fiscal.FieldFreightPayerTaxID {
		alts += "|" + regexp.QuoteMeta(fiscal.Unspecified)
	}
	return "^(?:" + alts + ")$"
}

// RecordSchema builds the JSON Schema of a record produced by source.
// Properties follow record order; optional terminal fields are declared but
// not required.
func RecordSchema(source contenttype.Source) *jsonschema.Schema {
	fields := fiscal.TextFields
	title := "Text extraction record"
	if source == contenttype.SourceXML {
		fields = fiscal.TreeFields
		title = "NF-e XML extraction record"
	}

	s := &jsonschema.Schema{
		Version:              jsonschema.Version,
		Title:                title,
		Type:                 "object",
		Properties:           jsonschema.NewProperties(),
		AdditionalProperties: jsonschema.FalseSchema,
	}
	for _, f := range fields {
		s.Properties.Set(string(f), &jsonschema.Schema{
			Type:    "string",
			Title:   f.Label(),
			Pattern: FieldPattern(f),
		})
		if !f.Optional() {
			s.Required = append(s.Required, string(f))
		}
	}
	return s
}
