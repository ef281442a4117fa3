package fiscal

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func applyYAML(t *testing.T, doc string) (*Catalog, error) {
	t.Helper()
	o, err := LoadOverrides(strings.NewReader(doc))
	require.NoError(t, err)
	return DefaultCatalog().Apply(o)
}

func TestLoadOverrides(t *testing.T) {
	t.Run("empty document", func(t *testing.T) {
		o, err := LoadOverrides(strings.NewReader(""))
		require.NoError(t, err)
		assert.Empty(t, o.Fields)
	})

	t.Run("unknown key", func(t *testing.T) {
		_, err := LoadOverrides(strings.NewReader("fieldz:\n  serie: {}\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "decoding rule overrides")
	})

	t.Run("full document", func(t *testing.T) {
		o, err := LoadOverrides(strings.NewReader(`
fields:
  serie:
    patterns: ['(?i)Ser\.\s*(\d+)']
  cnpj_destinatario:
    paths: ['toma/CNPJ']
freight:
  recipient: ['(?i)a pagar']
`))
		require.NoError(t, err)
		assert.Equal(t, []string{`(?i)Ser\.\s*(\d+)`}, o.Fields["serie"].Patterns)
		assert.Equal(t, []string{"toma/CNPJ"}, o.Fields["cnpj_destinatario"].Paths)
		assert.Equal(t, []string{"(?i)a pagar"}, o.Freight.Recipient)
	})
}

func TestCatalogApply_TextPattern(t *testing.T) {
	cat, err := applyYAML(t, "fields:\n  serie:\n    patterns: ['(?i)Ser\\.\\s*(\\d+)']\n")
	require.NoError(t, err)

	rec := NewTextExtractor(cat).Extract(TextDocument{Content: "DANFE Ser. 3"})
	assert.Equal(t, "3", rec.Value(FieldSeries))

	rec = NewTextExtractor(cat).Extract(TextDocument{Content: "Série 2"})
	assert.Equal(t, "2", rec.Value(FieldSeries), "the built-in rule still applies")

	rec = NewTextExtractor(cat).Extract(TextDocument{Content: "Ser. 3 Série 2"})
	assert.Equal(t, "3", rec.Value(FieldSeries), "override rules are evaluated first")

	assert.Equal(t, len(DefaultCatalog().Text)+1, len(cat.Text))
}

func TestCatalogApply_KeepsSteps(t *testing.T) {
	cat, err := applyYAML(t, "fields:\n  numero_nota:\n    patterns: ['NF (\\d+)']\n")
	require.NoError(t, err)

	rec := NewTextExtractor(cat).Extract(TextDocument{Content: "NF 000077"})
	assert.Equal(t, "77", rec.Value(FieldDocumentNumber))
}

func TestCatalogApply_Group(t *testing.T) {
	t.Run("explicit", func(t *testing.T) {
		cat, err := applyYAML(t, "fields:\n  serie:\n    patterns: ['(S)-(\\d+)']\n    group: 2\n")
		require.NoError(t, err)
		rec := NewTextExtractor(cat).Extract(TextDocument{Content: "S-9"})
		assert.Equal(t, "9", rec.Value(FieldSeries))
	})

	t.Run("whole match without groups", func(t *testing.T) {
		cat, err := applyYAML(t, "fields:\n  serie:\n    patterns: ['\\bS\\d+\\b']\n")
		require.NoError(t, err)
		rec := NewTextExtractor(cat).Extract(TextDocument{Content: "lote S12"})
		assert.Equal(t, "S12", rec.Value(FieldSeries))
	})

	t.Run("group out of range", func(t *testing.T) {
		_, err := applyYAML(t, "fields:\n  serie:\n    patterns: ['S(\\d+)']\n    group: 4\n")
		assert.Error(t, err)
	})
}

func TestCatalogApply_TreePath(t *testing.T) {
	cat, err := applyYAML(t, "fields:\n  cnpj_destinatario:\n    paths: ['toma/CNPJ']\n")
	require.NoError(t, err)

	rule, ok := cat.TreeRule(FieldRecipientTaxID)
	require.True(t, ok)
	assert.Equal(t, []string{"toma/CNPJ", "dest/CPF", "dest/CNPJ"}, rule.Paths)

	doc := parseTree(t, `<NFe><dest><CNPJ>98765432000110</CNPJ></dest><toma><CNPJ>11222333000181</CNPJ></toma></NFe>`)
	assert.Equal(t, "11222333000181", NewTreeExtractor(cat).Extract(doc).Value(FieldRecipientTaxID))

	base, _ := DefaultCatalog().TreeRule(FieldRecipientTaxID)
	assert.Equal(t, []string{"dest/CPF", "dest/CNPJ"}, base.Paths, "the source catalog is not modified")
}

func TestCatalogApply_Freight(t *testing.T) {
	cat, err := applyYAML(t, "freight:\n  recipient: ['(?i)a pagar']\n")
	require.NoError(t, err)

	assert.Equal(t, PartyNone, InferFreightParty("FRETE A PAGAR", DefaultCatalog().Freight))
	assert.Equal(t, PartyRecipient, InferFreightParty("FRETE A PAGAR", cat.Freight))
	assert.Equal(t, len(DefaultCatalog().Freight.RecipientPays)+1, len(cat.Freight.RecipientPays))
}

func TestCatalogApply_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"unknown field", "fields:\n  cor:\n    patterns: ['x']\n", "unknown field"},
		{"bad regex", "fields:\n  serie:\n    patterns: ['(']\n", "invalid pattern"},
		{"bad path", "fields:\n  serie:\n    paths: ['a//b']\n", "invalid path"},
		{"bad freight regex", "freight:\n  sender: ['[']\n", "freight.sender"},
		{"terminal has no text rule", "fields:\n  cnpj_terminal_coleta:\n    patterns: ['x']\n", "no text rule"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := applyYAML(t, tt.doc)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestCatalogApply_Nil(t *testing.T) {
	cat, err := DefaultCatalog().Apply(nil)
	require.NoError(t, err)
	assert.Len(t, cat.Text, len(DefaultCatalog().Text))
	assert.NoError(t, cat.Validate())
}
