package fiscal

import (
	"encoding/json"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

const accessKeyGroups = "3519 0612 3456 7800 0195 5500 1000 0000 4510 0000 0456"

func textRule(t *testing.T, field FieldName) TextRule {
	t.Helper()
	rule, ok := DefaultCatalog().TextRule(field)
	require.True(t, ok, "no default rule for %s", field)
	return rule
}

func TestMatchRule_TaxIDOccurrence(t *testing.T) {
	blob := "EMITENTE 12.345.678/0001-95 DESTINATARIO 98.765.432/0001-10 TRANSP 11.222.333/0001-81"

	got, ok := MatchRule(blob, textRule(t, FieldSenderTaxID))
	require.True(t, ok)
	assert.Equal(t, "12345678000195", got)

	got, ok = MatchRule(blob, textRule(t, FieldRecipientTaxID))
	require.True(t, ok)
	assert.Equal(t, "98765432000110", got)

	t.Run("single occurrence leaves recipient unresolved", func(t *testing.T) {
		_, ok := MatchRule("EMITENTE 12.345.678/0001-95", textRule(t, FieldRecipientTaxID))
		assert.False(t, ok)
	})

	t.Run("unpunctuated ids are not tax-id shaped", func(t *testing.T) {
		_, ok := MatchRule("12345678000195", textRule(t, FieldSenderTaxID))
		assert.False(t, ok)
	})
}

func TestMatchRule_DocumentNumber(t *testing.T) {
	rule := textRule(t, FieldDocumentNumber)
	tests := []struct {
		blob string
		want string
	}{
		{"Nº.000045", "45"},
		{"Nº 000.123", "123"},
		{"NUMERO 000123", "123"},
		{"Nº.000", "0"},
		{"Nº ...", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.blob, func(t *testing.T) {
			got, ok := MatchRule(tt.blob, rule)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	_, ok := MatchRule("sem numero aqui", rule)
	assert.False(t, ok)
}

func TestMatchRule_AccessKey(t *testing.T) {
	rule := textRule(t, FieldAccessKey)
	want := strings.ReplaceAll(accessKeyGroups, " ", "")
	require.Len(t, want, 44)

	t.Run("space separated groups", func(t *testing.T) {
		got, ok := MatchRule("CHAVE DE ACESSO "+accessKeyGroups+" Consulta", rule)
		require.True(t, ok)
		assert.Equal(t, want, got)
	})

	t.Run("dot separated groups", func(t *testing.T) {
		got, ok := MatchRule("CHAVE "+strings.ReplaceAll(accessKeyGroups, " ", "."), rule)
		require.True(t, ok)
		assert.Equal(t, want, got)
	})

	t.Run("contiguous digits", func(t *testing.T) {
		got, ok := MatchRule("CHAVE "+want, rule)
		require.True(t, ok)
		assert.Equal(t, want, got)
	})

	t.Run("too short", func(t *testing.T) {
		_, ok := MatchRule("CHAVE 3519 0612 3456", rule)
		assert.False(t, ok)
	})
}

func TestMatchRule_Labelled(t *testing.T) {
	tests := []struct {
		name  string
		field FieldName
		blob  string
		want  string
	}{
		{"series accented", FieldSeries, "SÉRIE 001", "001"},
		{"series plain", FieldSeries, "Serie 2", "2"},
		{"quantity keeps locale", FieldQuantity, "Quantidade 1.000,5", "1.000,5"},
		{"quantity short label", FieldQuantity, "QTD 12", "12"},
		{"net weight accented", FieldNetWeight, "PESO LÍQUIDO 1.234,56", "1234.56"},
		{"net weight plain", FieldNetWeight, "Peso Liquido 980,000", "980.000"},
		{"total with currency", FieldTotalValue, "V. TOTAL DA NOTA R$ 1.500,00", "1500.00"},
		{"total short label", FieldTotalValue, "Valor Total 99,90", "99.90"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := MatchRule(tt.blob, textRule(t, tt.field))
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMatchRule_PatternOrder(t *testing.T) {
	rule := TextRule{
		Field: FieldSeries,
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`A(\d)`),
			regexp.MustCompile(`B(\d)`),
		},
		Group: 1,
	}

	got, ok := MatchRule("B2 A1", rule)
	require.True(t, ok)
	assert.Equal(t, "1", got, "the first declared pattern wins even when it matches later in the text")

	got, ok = MatchRule("B2", rule)
	require.True(t, ok)
	assert.Equal(t, "2", got)
}

func TestExtractFromText_Empty(t *testing.T) {
	rec := ExtractFromText("")
	require.Equal(t, len(TextFields), rec.Len())
	for i, f := range rec.Fields() {
		assert.Equal(t, TextFields[i], f.Name)
		assert.Equal(t, NotFound, f.Value, "field %s", f.Name)
	}
}

// TextRecordSuite runs the full text pipeline over a realistic DANFE text layer.
type TextRecordSuite struct {
	suite.Suite
	rec *Record
}

func (s *TextRecordSuite) SetupTest() {
	content := strings.Join([]string{
		"DANFE DOCUMENTO AUXILIAR DA NOTA FISCAL ELETRONICA",
		"REMETENTE 12.345.678/0001-95",
		"DESTINATARIO 98.765.432/0001-10",
		"Série 1 Nº.000045",
		"CHAVE DE ACESSO " + accessKeyGroups,
		"Quantidade 10 Peso Líquido 1.234,56",
		"Valor Total R$ 1.500,00",
		"TRANSPORTADOR MODALIDADE DO FRETE CIF",
	}, "\n")
	s.rec = ExtractFromText(content)
}

func (s *TextRecordSuite) TestFields() {
	s.Equal("1", s.rec.Value(FieldSeries))
	s.Equal("45", s.rec.Value(FieldDocumentNumber))
	s.Equal("12345678000195", s.rec.Value(FieldSenderTaxID))
	s.Equal("98765432000110", s.rec.Value(FieldRecipientTaxID))
	s.Equal("12345678000195", s.rec.Value(FieldFreightPayerTaxID))
	s.Equal(strings.ReplaceAll(accessKeyGroups, " ", ""), s.rec.Value(FieldAccessKey))
	s.Equal("10", s.rec.Value(FieldQuantity))
	s.Equal("1234.56", s.rec.Value(FieldNetWeight))
	s.Equal("1500.00", s.rec.Value(FieldTotalValue))
}

func (s *TextRecordSuite) TestOrderAndCompleteness() {
	fields := s.rec.Fields()
	s.Require().Len(fields, len(TextFields))
	for i, f := range fields {
		s.Equal(TextFields[i], f.Name)
	}
	_, ok := s.rec.Get(FieldPickupTerminalTaxID)
	s.False(ok, "terminal fields are XML-only")
}

func (s *TextRecordSuite) TestJSONKeepsOrder() {
	data, err := json.Marshal(s.rec)
	s.Require().NoError(err)
	s.True(strings.HasPrefix(string(data), `{"cnpj_pagador_frete":"12345678000195","cnpj_remetente":`), string(data))

	var m map[string]string
	s.Require().NoError(json.Unmarshal(data, &m))
	s.Equal(s.rec.Map(), m)
}

func (s *TextRecordSuite) TestFieldsReturnsCopy() {
	fields := s.rec.Fields()
	fields[0].Value = "tampered"
	s.NotEqual("tampered", s.rec.Value(fields[0].Name))
}

func TestTextRecordSuite(t *testing.T) {
	suite.Run(t, new(TextRecordSuite))
}

func TestTextExtractor_CustomCatalog(t *testing.T) {
	cat := DefaultCatalog()
	cat.Text = cat.Text[:1] // sender only

	rec := NewTextExtractor(cat).Extract(TextDocument{Content: "12.345.678/0001-95 Série 3"})

	assert.Equal(t, len(TextFields), rec.Len(), "fields without a rule are still emitted")
	assert.Equal(t, "12345678000195", rec.Value(FieldSenderTaxID))
	assert.Equal(t, NotFound, rec.Value(FieldSeries))
}
