package compare

import (
	"strings"

	"github.com/usestring/nfextract-mcp/pkg/fiscal"
)

// Canonical returns the form of value used to decide whether two values of
// field differ only in formatting.
//
//	tax ids, access key   digits only
//	series, number        digits only, no zero padding
//	amounts               dot decimal, no trailing fractional zeros
func Canonical(field fiscal.FieldName, value string) string {
	value = strings.TrimSpace(value)
	switch field {
	case fiscal.FieldSenderTaxID, fiscal.FieldRecipientTaxID, fiscal.FieldFreightPayerTaxID,
		fiscal.FieldPickupTerminalTaxID, fiscal.FieldDeliveryTerminalTaxID, fiscal.FieldAccessKey:
		return fiscal.StripPunctuation(value)
	case fiscal.FieldSeries, fiscal.FieldDocumentNumber:
		return fiscal.StripLeadingZeros(fiscal.StripPunctuation(value))
	case fiscal.FieldQuantity, fiscal.FieldNetWeight, fiscal.FieldTotalValue:
		return trimFraction(fiscal.CanonicalDecimal(value))
	default:
		return value
	}
}

func trimFraction(v string) string {
	if !strings.Contains(v, ".") {
		return v
	}
	v = strings.TrimRight(v, "0")
	return strings.TrimSuffix(v, ".")
}
