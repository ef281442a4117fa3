// Package compare diffs extracted records field by field.
package compare

import "github.com/usestring/nfextract-mcp/pkg/fiscal"

// DefaultKeyFields identify a document and its parties. A disagreement on
// one of them means the two records do not describe the same NF-e, or one
// extractor picked the wrong value.
var DefaultKeyFields = []fiscal.FieldName{
	fiscal.FieldAccessKey,
	fiscal.FieldSeries,
	fiscal.FieldDocumentNumber,
	fiscal.FieldSenderTaxID,
	fiscal.FieldRecipientTaxID,
	fiscal.FieldFreightPayerTaxID,
}
