package extract

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestring/nfextract-mcp/internal/cache"
	"github.com/usestring/nfextract-mcp/internal/config"
	"github.com/usestring/nfextract-mcp/internal/decode"
	"github.com/usestring/nfextract-mcp/pkg/contenttype"
	"github.com/usestring/nfextract-mcp/pkg/fiscal"
)

const danfeText = "REMETENTE 12.345.678/0001-95 DESTINATARIO 98.765.432/0001-10 Série 1 Nº.000045 FRETE CIF"

const nfeXML = `<?xml version="1.0" encoding="UTF-8"?>
<nfeProc xmlns="http://www.portalfiscal.inf.br/nfe"><NFe><infNFe Id="NFe35190612345678000195550010000000451000000456">
<ide><serie>1</serie><nNF>45</nNF></ide>
<emit><CNPJ>12345678000195</CNPJ></emit><dest><CNPJ>98765432000110</CNPJ></dest>
<transp><modFrete>1</modFrete></transp>
</infNFe></NFe></nfeProc>`

func testConfig() *config.Config {
	return &config.Config{
		RecordCacheMaxItems: 16,
		MaxDocumentBytes:    1 << 20,
		BatchWorkers:        4,
		MaxBatchDocuments:   5,
		FreightWindowChars:  fiscal.DefaultFreightWindow,
	}
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	cfg := testConfig()
	rc, err := cache.NewRecordCache(cfg.RecordCacheMaxItems)
	require.NoError(t, err)
	return New(cfg, nil, rc)
}

func TestService_ExtractText(t *testing.T) {
	svc := newTestService(t)

	res, err := svc.ExtractText(context.Background(), danfeText)
	require.NoError(t, err)
	assert.Equal(t, contenttype.SourceText, res.Source)
	assert.False(t, res.Cached)
	assert.Len(t, res.Digest, 64)
	assert.Equal(t, "45", res.Record.Value(fiscal.FieldDocumentNumber))
	assert.Equal(t, "12345678000195", res.Record.Value(fiscal.FieldFreightPayerTaxID))

	again, err := svc.ExtractText(context.Background(), danfeText)
	require.NoError(t, err)
	assert.True(t, again.Cached)
	assert.Equal(t, res.Digest, again.Digest)
	assert.Same(t, res.Record, again.Record)
}

func TestService_ExtractXML(t *testing.T) {
	svc := newTestService(t)

	res, err := svc.ExtractXML(context.Background(), []byte(nfeXML))
	require.NoError(t, err)
	assert.Equal(t, contenttype.SourceXML, res.Source)
	assert.Equal(t, "98765432000110", res.Record.Value(fiscal.FieldFreightPayerTaxID))
	assert.Equal(t, "35190612345678000195550010000000451000000456", res.Record.Value(fiscal.FieldAccessKey))

	found, ok := svc.Lookup(res.Digest)
	require.True(t, ok)
	assert.Same(t, res.Record, found.Record)
	assert.Equal(t, []string{res.Digest}, svc.Recent())
}

func TestService_Extract_Detection(t *testing.T) {
	svc := newTestService(t)

	res, err := svc.Extract(context.Background(), &Request{Body: []byte(nfeXML)})
	require.NoError(t, err)
	assert.Equal(t, contenttype.XML, res.Category)

	forced, err := svc.Extract(context.Background(), &Request{Body: []byte(nfeXML), Source: contenttype.SourceText})
	require.NoError(t, err)
	assert.Equal(t, contenttype.Text, forced.Category)
	assert.NotEqual(t, res.Digest, forced.Digest, "the same body read as text is a different record")
	assert.Equal(t, fiscal.NotFound, forced.Record.Value(fiscal.FieldSenderTaxID), "XML tax IDs carry no punctuation")
}

func TestService_Extract_CategoryKeyed(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	body := []byte("<html><body><p>Série</p><p>7</p></body></html>")

	html, err := svc.Extract(ctx, &Request{Body: body, ContentType: "text/html"})
	require.NoError(t, err)
	assert.Equal(t, contenttype.HTML, html.Category)
	assert.Equal(t, "7", html.Record.Value(fiscal.FieldSeries))

	plain, err := svc.Extract(ctx, &Request{Body: body, ContentType: "text/plain", Source: contenttype.SourceText})
	require.NoError(t, err)
	assert.False(t, plain.Cached, "markup read as plain text is not the HTML record")
	assert.Equal(t, contenttype.Text, plain.Category)
	assert.NotEqual(t, html.Digest, plain.Digest)
	assert.Equal(t, fiscal.NotFound, plain.Record.Value(fiscal.FieldSeries))
	assert.Len(t, svc.Recent(), 2)
}

func TestService_Extract_Errors(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Extract(ctx, &Request{Body: []byte("%PDF-1.7"), ContentType: "application/pdf"})
	assert.ErrorIs(t, err, decode.ErrUnsupported)

	_, err = svc.Extract(ctx, &Request{Body: []byte(strings.Repeat("x", 2<<20)), ContentType: "text/plain"})
	assert.ErrorIs(t, err, decode.ErrTooLarge)

	_, err = svc.ExtractXML(ctx, []byte("<NFe><ide>"))
	assert.ErrorIs(t, err, decode.ErrMalformed)
	assert.Empty(t, svc.Recent(), "failures are not cached")

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = svc.ExtractText(canceled, danfeText)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestService_Extract_Concurrent(t *testing.T) {
	svc := newTestService(t)

	var wg sync.WaitGroup
	digests := make([]string, 16)
	for i := range digests {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := svc.ExtractText(context.Background(), danfeText)
			if assert.NoError(t, err) {
				digests[i] = res.Digest
			}
		}()
	}
	wg.Wait()

	for _, d := range digests {
		assert.Equal(t, digests[0], d)
	}
	assert.Len(t, svc.Recent(), 1)
}

func TestService_ExtractBatch(t *testing.T) {
	svc := newTestService(t)

	items, err := svc.ExtractBatch(context.Background(), []*Request{
		{Body: []byte(danfeText), ContentType: "text/plain"},
		{Body: []byte("%PDF-1.7"), ContentType: "application/pdf"},
		{Body: []byte(nfeXML), ContentType: "application/xml"},
	})
	require.NoError(t, err)
	require.Len(t, items, 3)

	for i, it := range items {
		assert.Equal(t, i, it.Index)
	}
	require.NotNil(t, items[0].Result)
	assert.Equal(t, "1", items[0].Result.Record.Value(fiscal.FieldSeries))
	assert.Nil(t, items[1].Result)
	assert.ErrorIs(t, items[1].Err, decode.ErrUnsupported)
	require.NotNil(t, items[2].Result)
	assert.Equal(t, contenttype.SourceXML, items[2].Result.Source)
}

func TestService_ExtractBatch_Limits(t *testing.T) {
	svc := newTestService(t)

	reqs := make([]*Request, 6)
	for i := range reqs {
		reqs[i] = &Request{Body: []byte(danfeText)}
	}
	_, err := svc.ExtractBatch(context.Background(), reqs)
	assert.ErrorIs(t, err, ErrBatchTooLarge)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	items, err := svc.ExtractBatch(ctx, reqs[:2])
	assert.ErrorIs(t, err, context.Canceled)
	require.Len(t, items, 2)
	for _, it := range items {
		assert.ErrorIs(t, it.Err, context.Canceled)
	}
}

func TestService_NoCache(t *testing.T) {
	svc := New(testConfig(), nil, nil)

	res, err := svc.ExtractText(context.Background(), danfeText)
	require.NoError(t, err)
	assert.False(t, res.Cached)

	_, ok := svc.Lookup(res.Digest)
	assert.False(t, ok)
	assert.Nil(t, svc.Recent())
}

func TestLoadCatalog(t *testing.T) {
	t.Run("built-in", func(t *testing.T) {
		cat, err := LoadCatalog("", 50)
		require.NoError(t, err)
		assert.NoError(t, cat.Validate())
	})

	t.Run("overrides file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "rules.yaml")
		require.NoError(t, os.WriteFile(path, []byte("fields:\n  serie:\n    patterns: ['(?i)Ser\\.\\s*(\\d+)']\n"), 0o644))

		cat, err := LoadCatalog(path, 0)
		require.NoError(t, err)

		svc := New(testConfig(), cat, nil)
		res, err := svc.ExtractText(context.Background(), "DANFE Ser. 7")
		require.NoError(t, err)
		assert.Equal(t, "7", res.Record.Value(fiscal.FieldSeries))
		assert.Same(t, cat, svc.Catalog())
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadCatalog(filepath.Join(t.TempDir(), "nope.yaml"), 0)
		assert.ErrorContains(t, err, "opening rules file")
	})

	t.Run("invalid overrides", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "rules.yaml")
		require.NoError(t, os.WriteFile(path, []byte("fields:\n  cor: {}\n"), 0o644))
		_, err := LoadCatalog(path, 0)
		assert.ErrorContains(t, err, "unknown field")
	})
}
