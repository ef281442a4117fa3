package textquery

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/usestring/nfextract-mcp/pkg/contenttype"
)

func TestDetectMode(t *testing.T) {
	tests := []struct {
		category contenttype.Category
		want     string
	}{
		{contenttype.XML, ModeXPath},
		{contenttype.HTML, ModeCSS},
		{contenttype.PageJSON, ModeJQ},
		{contenttype.Text, ModeRegex},
		{contenttype.Binary, ModeRegex},
	}
	for _, tt := range tests {
		t.Run(string(tt.category), func(t *testing.T) {
			assert.Equal(t, tt.want, DetectMode(tt.category))
		})
	}
}

func TestAccepts(t *testing.T) {
	assert.True(t, accepts(ModeRegex, contenttype.XML))
	assert.True(t, accepts(ModeRegex, contenttype.PageJSON))
	assert.True(t, accepts(ModeXPath, contenttype.HTML))
	assert.False(t, accepts(ModeXPath, contenttype.Text))
	assert.False(t, accepts(ModeCSS, contenttype.XML))
	assert.False(t, accepts(ModeJQ, contenttype.HTML))
	assert.False(t, accepts("sql", contenttype.Text))
}
