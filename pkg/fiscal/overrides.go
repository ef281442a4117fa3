package fiscal

import (
	"fmt"
	"io"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Overrides adds site-specific patterns to a catalog without code changes.
//
//	fields:
//	  serie:
//	    patterns: ['(?i)S[ée]r\.?\s*(\d+)']
//	    group: 1
//	  cnpj_destinatario:
//	    paths: ['toma/CNPJ']
//	freight:
//	  sender: ['(?i)emitente paga']
//	  recipient: ['(?i)destinat.rio paga']
//
// Text patterns form a rule evaluated before the built-in rule of the field
// (using their first match, not a positional occurrence) and tree paths are
// prepended to the built-in paths, so the defaults remain as fallbacks.
type Overrides struct {
	Fields  map[string]FieldOverride `yaml:"fields"`
	Freight FreightOverride          `yaml:"freight"`
}

// FieldOverride holds extra candidates for one field.
type FieldOverride struct {
	Patterns []string `yaml:"patterns"`
	// Group is the capture group of the extra patterns. When unset, group 1
	// is used if every pattern has one, otherwise the whole match.
	Group *int     `yaml:"group"`
	Paths []string `yaml:"paths"`
}

// FreightOverride holds extra freight patterns per group.
type FreightOverride struct {
	Sender    []string `yaml:"sender"`
	Recipient []string `yaml:"recipient"`
}

// LoadOverrides decodes a YAML override document.
func LoadOverrides(r io.Reader) (*Overrides, error) {
	var o Overrides
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&o); err != nil {
		if err == io.EOF {
			return &Overrides{}, nil
		}
		return nil, fmt.Errorf("decoding rule overrides: %w", err)
	}
	return &o, nil
}

// Apply returns a copy of c with the overrides merged in. c is not modified.
func (c *Catalog) Apply(o *Overrides) (*Catalog, error) {
	out := &Catalog{
		Text:            cloneTextRules(c.Text),
		Tree:            cloneTreeRules(c.Tree),
		Freight:         c.Freight,
		FreightCodes:    c.FreightCodes,
		FreightCodePath: c.FreightCodePath,
	}
	if o == nil {
		return out, nil
	}

	for name, fo := range o.Fields {
		if !IsField(name) {
			return nil, fmt.Errorf("override for unknown field %q", name)
		}
		field := FieldName(name)

		if len(fo.Patterns) > 0 {
			idx := indexTextRule(out.Text, field)
			if idx < 0 {
				return nil, fmt.Errorf("field %q has no text rule", name)
			}
			extra, err := compilePatterns(name, fo.Patterns)
			if err != nil {
				return nil, err
			}
			lead := TextRule{
				Field:    field,
				Patterns: extra,
				Group:    groupFor(extra, fo.Group),
				Steps:    out.Text[idx].Steps,
			}
			out.Text = insertTextRule(out.Text, idx, lead)
		}

		if len(fo.Paths) > 0 {
			idx := indexTreeRule(out.Tree, field)
			if idx < 0 {
				return nil, fmt.Errorf("field %q has no tree rule", name)
			}
			for _, p := range fo.Paths {
				if _, err := compilePath(p); err != nil {
					return nil, fmt.Errorf("field %q: %w", name, err)
				}
			}
			out.Tree[idx].Paths = append(append([]string(nil), fo.Paths...), out.Tree[idx].Paths...)
		}
	}

	sender, err := compilePatterns("freight.sender", o.Freight.Sender)
	if err != nil {
		return nil, err
	}
	recipient, err := compilePatterns("freight.recipient", o.Freight.Recipient)
	if err != nil {
		return nil, err
	}
	out.Freight.SenderPays = append(sender, c.Freight.SenderPays...)
	out.Freight.RecipientPays = append(recipient, c.Freight.RecipientPays...)

	if err := out.Validate(); err != nil {
		return nil, err
	}
	return out, nil
}

func compilePatterns(name string, patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("%s: invalid pattern %q: %w", name, p, err)
		}
		out = append(out, re)
	}
	return out, nil
}

// groupFor picks the capture group of override patterns: the explicit group
// when set, else 1 when every pattern captures, else the whole match.
func groupFor(patterns []*regexp.Regexp, explicit *int) int {
	if explicit != nil {
		return *explicit
	}
	for _, re := range patterns {
		if re.NumSubexp() == 0 {
			return 0
		}
	}
	return 1
}

func indexTextRule(rules []TextRule, field FieldName) int {
	for i, r := range rules {
		if r.Field == field {
			return i
		}
	}
	return -1
}

func indexTreeRule(rules []TreeRule, field FieldName) int {
	for i, r := range rules {
		if r.Field == field {
			return i
		}
	}
	return -1
}

func insertTextRule(rules []TextRule, at int, r TextRule) []TextRule {
	rules = append(rules, TextRule{})
	copy(rules[at+1:], rules[at:])
	rules[at] = r
	return rules
}
