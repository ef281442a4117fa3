package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestring/nfextract-mcp/pkg/fiscal"
)

func TestFieldResults(t *testing.T) {
	rec := fiscal.ExtractFromText("12.345.678/0001-95 Série 4")
	rows := FieldResults(rec)

	require.Len(t, rows, len(fiscal.TextFields))
	assert.Equal(t, FieldResult{
		Name:  "cnpj_remetente",
		Label: "CNPJ/CPF Remetente",
		Value: "12345678000195",
		Found: true,
	}, rows[1])
	assert.Equal(t, "serie", rows[3].Name)
	assert.Equal(t, "4", rows[3].Value)
	assert.False(t, rows[2].Found)
	assert.Equal(t, fiscal.NotFound, rows[2].Value)

	assert.Empty(t, FieldResults(nil))
}

func TestToAny(t *testing.T) {
	v, err := ToAny(FieldResult{Name: "serie", Value: "1"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"name": "serie", "label": "", "value": "1", "found": false}, v)
}
