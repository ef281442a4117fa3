package fiscal

import (
	"fmt"
	"regexp"
)

// TextRule resolves one field from normalized text.
//
// Patterns are tried in order and the first pattern that matches wins.
// Occurrence selects which match of that pattern is used (1-based, 0 means
// the first); Group selects the capture group holding the value (0 is the
// whole match). Steps post-process the captured value.
type TextRule struct {
	Field      FieldName
	Patterns   []*regexp.Regexp
	Group      int
	Occurrence int
	Steps      []Step
}

// TreeRule resolves one field from an XML tree. Paths are tried in order and
// the first present, non-empty value wins. See compilePath for the syntax.
type TreeRule struct {
	Field    FieldName
	Paths    []string
	Steps    []Step
	Optional bool
}

// FreightRules is the declarative table of the text freight-payer heuristic.
// The sender-pays group is evaluated entirely before the recipient-pays group.
type FreightRules struct {
	// Window scopes the first search pass to the text around the freight
	// section. See WindowPattern.
	Window        *regexp.Regexp
	SenderPays    []*regexp.Regexp
	RecipientPays []*regexp.Regexp
}

// Party is the side of a document responsible for a cost.
type Party int

const (
	PartyNone Party = iota
	PartySender
	PartyRecipient
)

func (p Party) String() string {
	switch p {
	case PartySender:
		return "sender"
	case PartyRecipient:
		return "recipient"
	default:
		return "none"
	}
}

// Catalog bundles every rule table the extractors evaluate. A Catalog is
// read-only once built and safe for concurrent use.
type Catalog struct {
	Text    []TextRule
	Tree    []TreeRule
	Freight FreightRules
	// FreightCodes maps the NF-e modFrete code to the paying party.
	FreightCodes map[string]Party
	// FreightCodePath locates the modality code in the tree.
	FreightCodePath string
}

// DefaultFreightWindow is the freight window length used by DefaultCatalog.
const DefaultFreightWindow = 200

// Tax IDs are read positionally: the document does not label which CNPJ
// belongs to which party, so the first occurrence is taken as the sender and
// the second as the recipient. Layouts that print another CNPJ first will be
// misclassified.
var reCNPJ = regexp.MustCompile(`\d{2}\.\d{3}\.\d{3}/\d{4}-\d{2}`)

var defaultTextRules = []TextRule{
	{
		Field:      FieldSenderTaxID,
		Patterns:   []*regexp.Regexp{reCNPJ},
		Occurrence: 1,
		Steps:      []Step{StripPunctuation},
	},
	{
		Field:      FieldRecipientTaxID,
		Patterns:   []*regexp.Regexp{reCNPJ},
		Occurrence: 2,
		Steps:      []Step{StripPunctuation},
	},
	{
		Field:    FieldSeries,
		Patterns: []*regexp.Regexp{regexp.MustCompile(`(?i)(?:Série|Serie)\s+(\d+)`)},
		Group:    1,
	},
	{
		Field:    FieldDocumentNumber,
		Patterns: []*regexp.Regexp{regexp.MustCompile(`(?i)(?:Nº\.|Nº|Numero)\s*([\d.]+)`)},
		Group:    1,
		Steps:    []Step{StripDots, StripLeadingZeros},
	},
	{
		Field: FieldAccessKey,
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`\d{4}(?:[\s.]*\d{4}){10}`),
		},
		Steps: []Step{StripSeparators},
	},
	{
		Field:    FieldQuantity,
		Patterns: []*regexp.Regexp{regexp.MustCompile(`(?i)(?:Quantidade|Qtd)\s+([\d.,]+)`)},
		Group:    1,
	},
	{
		Field:    FieldNetWeight,
		Patterns: []*regexp.Regexp{regexp.MustCompile(`(?i)(?:Peso Líquido|Peso Liquido)\s+([\d.,]+)`)},
		Group:    1,
		Steps:    []Step{StripDots, DecimalComma},
	},
	{
		Field:    FieldTotalValue,
		Patterns: []*regexp.Regexp{regexp.MustCompile(`(?i)(?:V\. TOTAL DA NOTA|V\. TOTAL|Valor Total)\s+R?\$?\s*([\d.,]+)`)},
		Group:    1,
		Steps:    []Step{StripDots, DecimalComma},
	},
}

var defaultTreeRules = []TreeRule{
	{Field: FieldSenderTaxID, Paths: []string{"emit/CPF", "emit/CNPJ"}},
	{Field: FieldRecipientTaxID, Paths: []string{"dest/CPF", "dest/CNPJ"}},
	{Field: FieldPickupTerminalTaxID, Paths: []string{"retirada/CPF", "retirada/CNPJ"}, Optional: true},
	{Field: FieldDeliveryTerminalTaxID, Paths: []string{"entrega/CPF", "entrega/CNPJ"}, Optional: true},
	{Field: FieldSeries, Paths: []string{"ide/serie"}},
	{Field: FieldDocumentNumber, Paths: []string{"ide/nNF"}},
	{Field: FieldAccessKey, Paths: []string{"infNFe/@Id"}, Steps: []Step{TrimPrefix("NFe")}},
	{Field: FieldQuantity, Paths: []string{"transp/vol/qVol"}, Steps: []Step{CanonicalDecimal}},
	{Field: FieldNetWeight, Paths: []string{"transp/vol/pesoL", "transp/vol/pesoB"}, Steps: []Step{CanonicalDecimal}},
	{Field: FieldTotalValue, Paths: []string{"ICMSTot/vNF"}, Steps: []Step{CanonicalDecimal}},
}

func defaultFreightRules(window int) FreightRules {
	return FreightRules{
		Window: WindowPattern("FRETE", window),
		SenderPays: []*regexp.Regexp{
			regexp.MustCompile(`(?i)0\s*[-,]\s*CIF`),
			regexp.MustCompile(`(?i)0\s*-\s*Por conta do Emit`),
			regexp.MustCompile(`(?i)Por conta do Remetente`),
			regexp.MustCompile(`(?i)CIF`),
			regexp.MustCompile(`0\s*[-,]`),
			regexp.MustCompile(`(?is)Modalidade do Frete.{0,50}0`),
		},
		RecipientPays: []*regexp.Regexp{
			regexp.MustCompile(`(?i)1\s*[-,]\s*FOB`),
			regexp.MustCompile(`(?i)1\s*-\s*Por conta do Dest`),
			regexp.MustCompile(`(?i)Por conta do Destinat[aá]rio`),
			regexp.MustCompile(`(?i)FOB`),
			regexp.MustCompile(`1\s*[-,]`),
			regexp.MustCompile(`(?is)Modalidade do Frete.{0,50}1`),
		},
	}
}

var defaultFreightCodes = map[string]Party{
	"0": PartySender,
	"4": PartySender,
	"1": PartyRecipient,
}

// DefaultCatalog returns the built-in rule tables.
func DefaultCatalog() *Catalog {
	return NewCatalog(DefaultFreightWindow)
}

// NewCatalog returns the built-in rule tables with a custom freight window.
// A non-positive window falls back to DefaultFreightWindow.
func NewCatalog(freightWindow int) *Catalog {
	if freightWindow <= 0 {
		freightWindow = DefaultFreightWindow
	}
	codes := make(map[string]Party, len(defaultFreightCodes))
	for k, v := range defaultFreightCodes {
		codes[k] = v
	}
	return &Catalog{
		Text:            cloneTextRules(defaultTextRules),
		Tree:            cloneTreeRules(defaultTreeRules),
		Freight:         defaultFreightRules(freightWindow),
		FreightCodes:    codes,
		FreightCodePath: "transp/modFrete",
	}
}

// TextRule returns the text rule for field.
func (c *Catalog) TextRule(field FieldName) (TextRule, bool) {
	for _, r := range c.Text {
		if r.Field == field {
			return r, true
		}
	}
	return TextRule{}, false
}

// TreeRule returns the tree rule for field.
func (c *Catalog) TreeRule(field FieldName) (TreeRule, bool) {
	for _, r := range c.Tree {
		if r.Field == field {
			return r, true
		}
	}
	return TreeRule{}, false
}

// Validate checks that the catalog can be evaluated.
func (c *Catalog) Validate() error {
	for _, r := range c.Text {
		if len(r.Patterns) == 0 {
			return fmt.Errorf("text rule %s: no patterns", r.Field)
		}
		for _, re := range r.Patterns {
			if r.Group > re.NumSubexp() {
				return fmt.Errorf("text rule %s: pattern %q has no group %d", r.Field, re, r.Group)
			}
		}
	}
	for _, r := range c.Tree {
		if len(r.Paths) == 0 {
			return fmt.Errorf("tree rule %s: no paths", r.Field)
		}
		for _, p := range r.Paths {
			if _, err := compilePath(p); err != nil {
				return fmt.Errorf("tree rule %s: %w", r.Field, err)
			}
		}
	}
	if c.Freight.Window == nil {
		return fmt.Errorf("freight rules: no window pattern")
	}
	if len(c.Freight.SenderPays) == 0 && len(c.Freight.RecipientPays) == 0 {
		return fmt.Errorf("freight rules: no patterns")
	}
	return nil
}

func cloneTextRules(in []TextRule) []TextRule {
	out := make([]TextRule, len(in))
	for i, r := range in {
		r.Patterns = append([]*regexp.Regexp(nil), r.Patterns...)
		r.Steps = append([]Step(nil), r.Steps...)
		out[i] = r
	}
	return out
}

func cloneTreeRules(in []TreeRule) []TreeRule {
	out := make([]TreeRule, len(in))
	for i, r := range in {
		r.Paths = append([]string(nil), r.Paths...)
		r.Steps = append([]Step(nil), r.Steps...)
		out[i] = r
	}
	return out
}
