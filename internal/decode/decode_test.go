package decode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestring/nfextract-mcp/pkg/contenttype"
	"github.com/usestring/nfextract-mcp/pkg/fiscal"
)

func TestDecode_PlainText(t *testing.T) {
	d := New(0)

	t.Run("utf-8", func(t *testing.T) {
		doc, err := d.Decode([]byte("Série  1\nNº.000045"), "text/plain")
		require.NoError(t, err)
		assert.Equal(t, contenttype.SourceText, doc.Source)
		assert.Equal(t, "Série 1 Nº.000045", doc.Text.Content)
	})

	t.Run("windows-1252 without charset", func(t *testing.T) {
		doc, err := d.Decode([]byte("S\xe9rie 1 Peso L\xedquido 10,5"), "text/plain")
		require.NoError(t, err)
		assert.Equal(t, "Série 1 Peso Líquido 10,5", doc.Text.Content)
	})

	t.Run("declared charset", func(t *testing.T) {
		doc, err := d.Decode([]byte("N\xba.000045"), "text/plain; charset=ISO-8859-1")
		require.NoError(t, err)
		assert.Equal(t, "Nº.000045", doc.Text.Content)
	})

	t.Run("unknown charset", func(t *testing.T) {
		_, err := d.Decode([]byte("x"), "text/plain; charset=klingon")
		assert.ErrorIs(t, err, ErrUnsupported)
		assert.NotErrorIs(t, err, ErrMalformed)
	})
}

func TestDecode_Pages(t *testing.T) {
	d := New(0)
	want := "Série 1 Nº.000045"

	tests := []struct {
		name string
		body string
	}{
		{"document object", `{"Pages":[{"Texts":[{"R":[{"T":"S%C3%A9rie"}]},{"R":[{"T":"1"}]}]},{"Texts":[{"R":[{"T":"N%C2%BA.000045"}]}]}]}`},
		{"legacy wrapper", `{"formImage":{"Pages":[{"Texts":[{"R":[{"T":"S%C3%A9rie"}]},{"R":[{"T":"1"}]}]},{"Texts":[{"R":[{"T":"N%C2%BA.000045"}]}]}]}}`},
		{"bare array", `[{"Texts":[{"R":[{"T":"S%C3%A9rie"}]},{"R":[{"T":"1"}]}]},{"Texts":[{"R":[{"T":"N%C2%BA.000045"}]}]}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := d.Decode([]byte(tt.body), "application/json")
			require.NoError(t, err)
			assert.Equal(t, contenttype.PageJSON, doc.Category)
			assert.Equal(t, want, doc.Text.Content)
		})
	}

	t.Run("malformed", func(t *testing.T) {
		_, err := d.Decode([]byte(`{"Pages":`), "application/json")
		require.ErrorIs(t, err, ErrMalformed)
		assert.Contains(t, err.Error(), "failed to parse page JSON")
	})
}

func TestDecode_HTML(t *testing.T) {
	body := `<!DOCTYPE html><html><head><title>DANFE</title><style>td{color:red}</style>
<script>var serie = 99;</script></head>
<body><table><tr><td>Série</td><td>1</td></tr><tr><td>Nº.</td><td>000045</td></tr></table></body></html>`

	doc, err := New(0).Decode([]byte(body), "")
	require.NoError(t, err)
	assert.Equal(t, contenttype.HTML, doc.Category)
	assert.Equal(t, "DANFE Série 1 Nº. 000045", doc.Text.Content)

	rec := fiscal.ExtractFromText(doc.Text.Content)
	assert.Equal(t, "1", rec.Value(fiscal.FieldSeries))
	assert.Equal(t, "45", rec.Value(fiscal.FieldDocumentNumber))
}

func TestDecode_XML(t *testing.T) {
	body := `<?xml version="1.0"?><nfeProc xmlns="http://www.portalfiscal.inf.br/nfe"><NFe><infNFe><ide><serie>2</serie></ide></infNFe></NFe></nfeProc>`

	doc, err := New(0).Decode([]byte(body), "application/xml")
	require.NoError(t, err)
	assert.Equal(t, contenttype.SourceXML, doc.Source)
	require.NotNil(t, doc.Tree.Root)
	assert.Equal(t, "2", fiscal.ExtractFromStructuredTree(doc.Tree.Root).Value(fiscal.FieldSeries))

	_, err = New(0).Decode([]byte("<NFe><ide>"), "application/xml")
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestDecode_Errors(t *testing.T) {
	t.Run("pdf binary", func(t *testing.T) {
		_, err := New(0).Decode([]byte("%PDF-1.7\n..."), "application/pdf")
		assert.ErrorIs(t, err, ErrUnsupported)
	})

	t.Run("sniffed pdf", func(t *testing.T) {
		_, err := New(0).Decode([]byte("%PDF-1.7\n..."), "")
		assert.ErrorIs(t, err, ErrUnsupported)
	})

	t.Run("too large", func(t *testing.T) {
		_, err := New(4).Decode([]byte("Série 1"), "text/plain")
		assert.ErrorIs(t, err, ErrTooLarge)
	})
}

func TestCheck(t *testing.T) {
	d := New(8)
	assert.NoError(t, d.Check([]byte("Série"), "", contenttype.Text))
	assert.ErrorIs(t, d.Check([]byte("Série 1 Nº.45"), "", contenttype.Text), ErrTooLarge)
	assert.ErrorIs(t, d.Check([]byte("x"), "image/png", contenttype.Binary), ErrUnsupported)
}

func TestDecodeAs(t *testing.T) {
	doc, err := New(0).DecodeAs([]byte("<b>Série 3</b>"), "", contenttype.Text)
	require.NoError(t, err)
	assert.Equal(t, "<b>Série 3</b>", doc.Text.Content, "forced text is not parsed as markup")
}
