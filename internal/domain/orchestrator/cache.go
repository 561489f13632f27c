package orchestrator

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"
	"sync/atomic"

	"nevis-server/internal/domain/generation"
)

// resultCache memoizes successful optimized-path responses per request shape.
// Failures are never cached so a transient outage cannot be replayed to later
// callers.
type resultCache struct {
	mu      sync.RWMutex
	entries map[string]*generation.Response[*generation.Post]

	hits   atomic.Int64
	misses atomic.Int64
}

func newResultCache() *resultCache {
	return &resultCache{entries: make(map[string]*generation.Response[*generation.Post])}
}

func (c *resultCache) key(req *generation.ContentRequest) string {
	profileName := ""
	if req.Profile != nil {
		profileName = req.Profile.Name
	}
	h := sha256.Sum256([]byte(strings.Join([]string{
		req.ModelID,
		string(req.Platform),
		profileName,
		req.CustomPrompt,
		strings.Join(req.ArtifactIDs, ","),
	}, "\x1f")))
	return hex.EncodeToString(h[:16])
}

func (c *resultCache) get(req *generation.ContentRequest) (*generation.Response[*generation.Post], bool) {
	c.mu.RLock()
	resp, ok := c.entries[c.key(req)]
	c.mu.RUnlock()
	if ok {
		c.hits.Add(1)
		// Callers get their own envelope so annotations never leak back
		// into the cached copy.
		clone := *resp
		return &clone, true
	}
	c.misses.Add(1)
	return nil, false
}

func (c *resultCache) put(req *generation.ContentRequest, resp *generation.Response[*generation.Post]) {
	if resp == nil || !resp.Success {
		return
	}
	clone := *resp
	c.mu.Lock()
	c.entries[c.key(req)] = &clone
	c.mu.Unlock()
}

func (c *resultCache) counters() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}
