package textquery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestring/nfextract-mcp/internal/decode"
)

const probePages = `{"Pages":[{"Texts":[{"R":[{"T":"S%C3%A9rie"}]},{"R":[{"T":"1"}]}]}]}`

func TestEngine_Query(t *testing.T) {
	e := NewEngine(nil, nil)

	t.Run("xml defaults to xpath", func(t *testing.T) {
		res, err := e.Query([]byte(probeXML), "application/xml", "//*[local-name()='emit']/*[local-name()='CNPJ']", "", 0)
		require.NoError(t, err)
		assert.Equal(t, ModeXPath, res.Mode)
		assert.Equal(t, "xml", res.Category)
		assert.Equal(t, []any{"12345678000195"}, res.Values)
	})

	t.Run("sniffed xml with regex over raw markup", func(t *testing.T) {
		res, err := e.Query([]byte(probeXML), "", `<CNPJ>(\d+)</CNPJ>`, ModeRegex, 0)
		require.NoError(t, err)
		assert.Equal(t, []any{"12345678000195", "98765432000110"}, res.Values)
	})

	t.Run("html defaults to css", func(t *testing.T) {
		html := []byte(`<html><body><h1>DANFE</h1></body></html>`)
		res, err := e.Query(html, "text/html", "h1", "", 0)
		require.NoError(t, err)
		assert.Equal(t, ModeCSS, res.Mode)
		assert.Equal(t, []any{"DANFE"}, res.Values)
	})

	t.Run("regex sees visible html text", func(t *testing.T) {
		html := []byte(`<html><body><p>Série</p><p>1</p><script>var s = "Série 9";</script></body></html>`)
		res, err := e.Query(html, "text/html", `Série (\d)`, ModeRegex, 0)
		require.NoError(t, err)
		assert.Equal(t, []any{"1"}, res.Values)
	})

	t.Run("page json defaults to jq", func(t *testing.T) {
		res, err := e.Query([]byte(probePages), "application/json", ".Pages[].Texts[].R[].T", "", 0)
		require.NoError(t, err)
		assert.Equal(t, ModeJQ, res.Mode)
		assert.Equal(t, "pages", res.Category)
		assert.Equal(t, []any{"S%C3%A9rie", "1"}, res.Values)
	})

	t.Run("regex sees joined page runs", func(t *testing.T) {
		res, err := e.Query([]byte(probePages), "application/json", `Série (\d)`, ModeRegex, 0)
		require.NoError(t, err)
		assert.Equal(t, []any{"1"}, res.Values)
	})

	t.Run("plain text defaults to regex", func(t *testing.T) {
		res, err := e.Query([]byte("Valor Total R$ 1.500,00"), "", `R\$ ([\d.,]+)`, "", 0)
		require.NoError(t, err)
		assert.Equal(t, ModeRegex, res.Mode)
		assert.Equal(t, "text", res.Category)
		assert.Equal(t, []any{"1.500,00"}, res.Values)
	})

	t.Run("mode is case insensitive", func(t *testing.T) {
		res, err := e.Query([]byte("abc"), "text/plain", "b", " REGEX ", 0)
		require.NoError(t, err)
		assert.Equal(t, ModeRegex, res.Mode)
	})
}

func TestEngine_QueryErrors(t *testing.T) {
	e := NewEngine(nil, nil)

	t.Run("pdf binary", func(t *testing.T) {
		_, err := e.Query([]byte("%PDF-1.4 binary"), "", `\d`, "", 0)
		assert.ErrorIs(t, err, decode.ErrUnsupported)
	})

	t.Run("size limit", func(t *testing.T) {
		small := NewEngine(nil, decode.New(8))
		_, err := small.Query([]byte("Valor Total R$ 1.500,00"), "text/plain", `\d`, "", 0)
		assert.ErrorIs(t, err, decode.ErrTooLarge)
	})

	t.Run("mode does not fit document", func(t *testing.T) {
		_, err := e.Query([]byte("plain"), "text/plain", "p", ModeCSS, 0)
		assert.ErrorIs(t, err, ErrInvalidQuery)
		assert.Contains(t, err.Error(), "cannot run on a text document")
	})

	t.Run("unknown mode", func(t *testing.T) {
		_, err := e.Query([]byte("plain"), "text/plain", "p", "sql", 0)
		assert.ErrorIs(t, err, ErrInvalidQuery)
		assert.Contains(t, err.Error(), "unknown mode")
	})

	t.Run("empty expression", func(t *testing.T) {
		_, err := e.Query([]byte("plain"), "text/plain", "  ", "", 0)
		assert.ErrorIs(t, err, ErrInvalidQuery)
	})

	t.Run("malformed xml", func(t *testing.T) {
		_, err := e.Query([]byte("<a><b></a>"), "application/xml", "//b", "", 0)
		assert.ErrorIs(t, err, decode.ErrMalformed)
	})

	t.Run("malformed page json", func(t *testing.T) {
		_, err := e.Query([]byte(`{"Pages":[`), "application/json", ".Pages", "", 0)
		assert.ErrorIs(t, err, decode.ErrMalformed)
	})
}

func TestEngine_ValidateExpression(t *testing.T) {
	e := NewEngine(nil, nil)

	assert.NoError(t, e.ValidateExpression("td.value, th", ModeCSS))
	assert.ErrorIs(t, e.ValidateExpression("td[", ModeCSS), ErrInvalidQuery)
	assert.NoError(t, e.ValidateExpression("//*[local-name()='CNPJ']", ModeXPath))
	assert.ErrorIs(t, e.ValidateExpression("//[", ModeXPath), ErrInvalidQuery)
	assert.NoError(t, e.ValidateExpression(`\d+`, ModeRegex))
	assert.ErrorIs(t, e.ValidateExpression(`[x`, ModeRegex), ErrInvalidQuery)
	assert.NoError(t, e.ValidateExpression(".Pages | length", ModeJQ))
	assert.ErrorIs(t, e.ValidateExpression(".[", ModeJQ), ErrInvalidQuery)
}
