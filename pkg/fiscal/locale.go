package fiscal

import (
	"strings"
)

// Step is one post-processing transform applied to a matched value.
type Step func(string) string

// Apply runs steps over v in order.
func Apply(v string, steps ...Step) string {
	for _, step := range steps {
		v = step(v)
	}
	return v
}

var punctuationReplacer = strings.NewReplacer(".", "", "-", "", "/", "", " ", "", "\t", "", "\n", "")

// StripPunctuation removes the dots, dashes, slashes and whitespace that
// format a CNPJ/CPF. It is idempotent.
func StripPunctuation(v string) string {
	return punctuationReplacer.Replace(v)
}

// StripDots removes thousands-separator dots.
func StripDots(v string) string {
	return strings.ReplaceAll(v, ".", "")
}

// StripSeparators removes all whitespace and dots, concatenating digit blocks.
func StripSeparators(v string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '.', ' ', '\t', '\n', '\r', '\u00a0':
			return -1
		}
		return r
	}, v)
}

// DecimalComma converts the Brazilian decimal comma to a dot.
func DecimalComma(v string) string {
	return strings.ReplaceAll(v, ",", ".")
}

// CanonicalDecimal converts a locale-formatted number ("1.234,56") to
// canonical form ("1234.56"). Values without a comma are already canonical
// and are returned unchanged.
func CanonicalDecimal(v string) string {
	if !strings.Contains(v, ",") {
		return v
	}
	return DecimalComma(StripDots(v))
}

// StripLeadingZeros removes zero padding from an identifier. A value made only
// of zeros (or left empty by earlier steps) collapses to "0".
func StripLeadingZeros(v string) string {
	trimmed := strings.TrimLeft(v, "0")
	if trimmed == "" {
		return "0"
	}
	return trimmed
}

// TrimSpace is strings.TrimSpace as a Step.
func TrimSpace(v string) string {
	return strings.TrimSpace(v)
}

// TrimPrefix returns a Step removing a fixed textual prefix.
func TrimPrefix(prefix string) Step {
	return func(v string) string {
		return strings.TrimPrefix(v, prefix)
	}
}
