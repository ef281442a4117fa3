// Package extract runs fiscal extractions over uploaded documents, caching
// results by document digest.
package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/usestring/nfextract-mcp/internal/cache"
	"github.com/usestring/nfextract-mcp/internal/config"
	"github.com/usestring/nfextract-mcp/internal/decode"
	"github.com/usestring/nfextract-mcp/internal/logging"
	"github.com/usestring/nfextract-mcp/pkg/contenttype"
	"github.com/usestring/nfextract-mcp/pkg/fiscal"
)

// ErrBatchTooLarge is returned when a batch exceeds the configured size.
var ErrBatchTooLarge = errors.New("batch exceeds document limit")

// Request is one document to extract.
type Request struct {
	Body        []byte
	ContentType string
	// Source forces the pipeline. Empty detects it from ContentType and Body.
	Source contenttype.Source
}

// Result is the outcome of one extraction.
type Result struct {
	Digest   string
	Source   contenttype.Source
	Category contenttype.Category
	Record   *fiscal.Record
	// Cached is set when the record was served from the cache.
	Cached bool
}

// BatchItem is the outcome of one document of a batch. Exactly one of Result
// and Err is set.
type BatchItem struct {
	Index  int
	Result *Result
	Err    error
}

// Service extracts records from documents.
type Service struct {
	catalog  *fiscal.Catalog
	text     *fiscal.TextExtractor
	tree     *fiscal.TreeExtractor
	decoder  *decode.Decoder
	cache    *cache.RecordCache
	group    singleflight.Group
	workers  int
	maxBatch int
}

// New creates a service over catalog. A nil catalog uses the built-in rules.
func New(cfg *config.Config, catalog *fiscal.Catalog, rc *cache.RecordCache) *Service {
	if catalog == nil {
		catalog = fiscal.NewCatalog(cfg.FreightWindowChars)
	}
	workers := cfg.BatchWorkers
	if workers <= 0 {
		workers = config.BatchWorkersValue
	}
	return &Service{
		catalog:  catalog,
		text:     fiscal.NewTextExtractor(catalog),
		tree:     fiscal.NewTreeExtractor(catalog),
		decoder:  decode.New(cfg.MaxDocumentBytes),
		cache:    rc,
		workers:  workers,
		maxBatch: cfg.MaxBatchDocuments,
	}
}

// Catalog returns the rule catalog the service evaluates.
func (s *Service) Catalog() *fiscal.Catalog {
	return s.catalog
}

// MaxBatch returns the batch document limit (0 means unlimited).
func (s *Service) MaxBatch() int {
	return s.maxBatch
}

// Extract decodes one document and runs the extractor of its source.
// Identical concurrent requests share one extraction.
func (s *Service) Extract(ctx context.Context, req *Request) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	category := resolveCategory(req)
	if err := s.decoder.Check(req.Body, req.ContentType, category); err != nil {
		return nil, err
	}
	digest := cache.Digest(category, req.Body)

	if s.cache != nil {
		if e, ok := s.cache.Get(digest); ok {
			slog.Debug("record cache hit", logging.Document(digest, len(req.Body)))
			return &Result{Digest: digest, Source: e.Source, Category: e.Category, Record: e.Record, Cached: true}, nil
		}
	}

	v, err, _ := s.group.Do(digest, func() (any, error) {
		doc, err := s.decoder.DecodeAs(req.Body, req.ContentType, category)
		if err != nil {
			slog.Warn("failed to decode document",
				logging.Document(digest, len(req.Body)),
				slog.String("category", string(category)),
				slog.String("error", err.Error()),
			)
			return nil, err
		}

		entry := &cache.Entry{
			Digest:   digest,
			Source:   doc.Source,
			Category: doc.Category,
			Record:   s.run(doc),
		}
		if s.cache != nil {
			s.cache.Put(entry)
		}
		slog.Debug("extracted record",
			logging.Document(digest, len(req.Body)),
			slog.String("source", string(entry.Source)),
			slog.Int("found", entry.Record.FoundCount()),
		)
		return entry, nil
	})
	if err != nil {
		return nil, err
	}

	e := v.(*cache.Entry)
	return &Result{Digest: digest, Source: e.Source, Category: e.Category, Record: e.Record}, nil
}

// ExtractText runs the text pipeline over already-extracted text.
func (s *Service) ExtractText(ctx context.Context, content string) (*Result, error) {
	return s.Extract(ctx, &Request{
		Body:        []byte(content),
		ContentType: "text/plain; charset=utf-8",
		Source:      contenttype.SourceText,
	})
}

// ExtractXML runs the structured pipeline over an NF-e XML document.
func (s *Service) ExtractXML(ctx context.Context, xml []byte) (*Result, error) {
	return s.Extract(ctx, &Request{
		Body:        xml,
		ContentType: "application/xml",
		Source:      contenttype.SourceXML,
	})
}

// ExtractBatch extracts every document independently on a bounded worker
// pool. Per-document failures are reported on their item and never fail the
// batch. Cancellation is checked between documents; items not started when
// ctx is done carry ctx.Err() and the batch returns it as well.
func (s *Service) ExtractBatch(ctx context.Context, reqs []*Request) ([]BatchItem, error) {
	if s.maxBatch > 0 && len(reqs) > s.maxBatch {
		return nil, fmt.Errorf("%w: %d documents, limit is %d", ErrBatchTooLarge, len(reqs), s.maxBatch)
	}

	items := make([]BatchItem, len(reqs))

	var g errgroup.Group
	g.SetLimit(s.workers)

	for i, req := range reqs {
		g.Go(func() error {
			items[i].Index = i
			if err := ctx.Err(); err != nil {
				items[i].Err = err
				return nil
			}
			res, err := s.Extract(ctx, req)
			if err != nil {
				items[i].Err = err
				return nil
			}
			items[i].Result = res
			return nil
		})
	}
	// Workers record failures on their item and never return an error.
	g.Wait()

	return items, ctx.Err()
}

// Lookup returns a previously extracted record by digest.
func (s *Service) Lookup(digest string) (*Result, bool) {
	if s.cache == nil {
		return nil, false
	}
	e, ok := s.cache.Get(digest)
	if !ok {
		return nil, false
	}
	return &Result{Digest: e.Digest, Source: e.Source, Category: e.Category, Record: e.Record, Cached: true}, true
}

// Recent returns the digests of cached records from oldest to newest.
func (s *Service) Recent() []string {
	if s.cache == nil {
		return nil
	}
	return s.cache.Digests()
}

func (s *Service) run(doc *decode.Document) *fiscal.Record {
	if doc.Source == contenttype.SourceXML {
		return s.tree.Extract(doc.Tree)
	}
	return s.text.Extract(doc.Text)
}

// resolveCategory picks the decoding category of req, honouring a forced
// source.
func resolveCategory(req *Request) contenttype.Category {
	detected := contenttype.Detect(req.ContentType, req.Body)
	switch req.Source {
	case contenttype.SourceXML:
		return contenttype.XML
	case contenttype.SourceText:
		if contenttype.SourceOf(detected) == contenttype.SourceText {
			return detected
		}
		return contenttype.Text
	default:
		return detected
	}
}
