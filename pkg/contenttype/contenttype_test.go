package contenttype

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		want        Category
	}{
		// Page JSON
		{"application/json", "application/json", PageJSON},
		{"vendor json", "application/vnd.pdf2json+json", PageJSON},
		{"json with charset", "application/json; charset=utf-8", PageJSON},

		// HTML
		{"text/html", "text/html", HTML},
		{"html with charset", "text/html; charset=iso-8859-1", HTML},
		{"xhtml", "application/xhtml+xml", HTML},

		// XML
		{"application/xml", "application/xml", XML},
		{"text/xml", "text/xml", XML},
		{"vendor xml", "application/vnd.nfe+xml", XML},

		// Text
		{"text/plain", "text/plain", Text},
		{"text with charset", "text/plain; charset=windows-1252", Text},
		{"text/csv", "text/csv", Text},

		// Binary
		{"image/png", "image/png", Binary},
		{"octet-stream", "application/octet-stream", Binary},
		{"pdf", "application/pdf", Binary},
		{"zip", "application/zip", Binary},

		// Edge cases
		{"empty", "", Binary},
		{"uppercase", "Application/XML", XML},
		{"malformed params", "text/plain; ;", Text},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.contentType)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		want        Category
	}{
		{"declared type wins", "text/plain", "<nfeProc/>", Text},
		{"declared pdf is not sniffed", "application/pdf", "Série 1", Binary},
		{"xml declaration", "", `<?xml version="1.0"?><nfeProc/>`, XML},
		{"bare xml", "application/octet-stream", "  <NFe></NFe>", XML},
		{"html doctype", "", "<!DOCTYPE html><html></html>", HTML},
		{"html without doctype", "", "<HTML><body>DANFE</body></HTML>", HTML},
		{"page json", "", `[{"Texts":[]}]`, PageJSON},
		{"pdf magic", "", "%PDF-1.7", Binary},
		{"plain text", "", "DANFE Série 1 Nº.000045", Text},
		{"nul bytes", "", "DANFE\x00\x01", Binary},
		{"latin1 bytes", "", "S\xe9rie 1", Binary},
		{"empty body", "", "", Text},
		{"bom", "", "\ufeff<NFe/>", XML},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Detect(tt.contentType, []byte(tt.body)))
		})
	}
}

func TestSniff_TruncatedRune(t *testing.T) {
	body := strings.Repeat("a", 511) + "é"
	assert.Equal(t, Text, Sniff([]byte(body)))
}

func TestSourceOf(t *testing.T) {
	assert.Equal(t, SourceXML, SourceOf(XML))
	assert.Equal(t, SourceText, SourceOf(HTML))
	assert.Equal(t, SourceText, SourceOf(PageJSON))
	assert.Equal(t, SourceText, SourceOf(Text))
	assert.Equal(t, SourceNone, SourceOf(Binary))
}
