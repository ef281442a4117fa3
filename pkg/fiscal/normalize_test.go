package fiscal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"collapses whitespace", "Série \n\t 1", "Série 1"},
		{"trims", "  FRETE  ", "FRETE"},
		{"nbsp", "Peso\u00a0Líquido", "Peso Líquido"},
		{"composes accents", "Se\u0301rie", "Série"},
		{"crlf", "a\r\nb", "a b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestDecodeToken(t *testing.T) {
	assert.Equal(t, "Série", DecodeToken("S%C3%A9rie"))
	assert.Equal(t, "12.345.678/0001-95", DecodeToken("12.345.678%2F0001-95"))
	assert.Equal(t, "100%", DecodeToken("100%"), "malformed escapes are kept")
	assert.Equal(t, "plain", DecodeToken("plain"))
}

func TestJoinPages(t *testing.T) {
	pages := []Page{
		{Texts: []TextItem{
			{R: []TextRun{{T: "S%C3%A9rie"}}},
			{R: []TextRun{{T: "1"}}},
			{R: nil},
		}},
		{Texts: []TextItem{
			{R: []TextRun{{T: "N%C2%BA.000045"}, {T: "ignored"}}},
		}},
	}

	assert.Equal(t, "Série 1 Nº.000045", JoinPages(pages))
	assert.Equal(t, "", JoinPages(nil))
	assert.Equal(t, "", JoinPages([]Page{{}}))
}
