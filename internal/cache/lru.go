// Package cache provides caching utilities for the MCP server.
package cache

import (
	"crypto/sha256"
	"encoding/hex"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/usestring/nfextract-mcp/pkg/contenttype"
	"github.com/usestring/nfextract-mcp/pkg/fiscal"
)

// Entry is one cached extraction.
type Entry struct {
	Digest   string
	Source   contenttype.Source
	Category contenttype.Category
	Record   *fiscal.Record
}

// RecordCache provides thread-safe LRU caching of extraction results keyed by
// document digest.
type RecordCache struct {
	cache *lru.Cache[string, *Entry]
}

// NewRecordCache creates a new LRU cache with the specified maximum number of items.
func NewRecordCache(maxItems int) (*RecordCache, error) {
	c, err := lru.New[string, *Entry](maxItems)
	if err != nil {
		return nil, err
	}
	return &RecordCache{cache: c}, nil
}

// Digest returns the cache key of a document: the hex SHA-256 of the
// decoding category followed by the body. Categories that share a source
// decode the same bytes differently, so the source alone is not enough.
func Digest(category contenttype.Category, body []byte) string {
	h := sha256.New()
	h.Write([]byte(category))
	h.Write([]byte{0})
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

// Get retrieves an entry from the cache by its digest.
// Returns the entry and true if found, nil and false otherwise.
func (c *RecordCache) Get(digest string) (*Entry, bool) {
	return c.cache.Get(digest)
}

// Put adds or updates an entry in the cache.
func (c *RecordCache) Put(e *Entry) {
	c.cache.Add(e.Digest, e)
}

// Digests returns the cached digests from oldest to newest.
func (c *RecordCache) Digests() []string {
	return c.cache.Keys()
}

// Len returns the current number of items in the cache.
func (c *RecordCache) Len() int {
	return c.cache.Len()
}
