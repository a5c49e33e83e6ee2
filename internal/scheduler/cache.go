package scheduler

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
	"sync"

	"golang.org/x/text/unicode/norm"

	"github.com/sells-group/leadscope/internal/model"
)

// Cache memoizes search results for the lifetime of one batch run. Two
// queries that normalize to the same text share one external call.
type Cache struct {
	mu sync.RWMutex
	m  map[string][]model.EvidenceItem
}

// NewCache returns an empty per-run cache.
func NewCache() *Cache {
	return &Cache{m: make(map[string][]model.EvidenceItem)}
}

// Key hashes the normalized form of a query: NFC, lowercased, trimmed,
// inner whitespace collapsed.
func Key(query string) string {
	q := norm.NFC.String(query)
	q = strings.ToLower(strings.TrimSpace(q))
	q = strings.Join(strings.Fields(q), " ")
	sum := md5.Sum([]byte(q))
	return hex.EncodeToString(sum[:])
}

// Get returns the cached results for query, if any.
func (c *Cache) Get(query string) ([]model.EvidenceItem, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	items, ok := c.m[Key(query)]
	return items, ok
}

// Put stores results for query. Empty result lists are cached too: a query
// that legitimately found nothing should not be re-issued.
func (c *Cache) Put(query string, items []model.EvidenceItem) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[Key(query)] = items
}

// Len reports the number of distinct cached queries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}
