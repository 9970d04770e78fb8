package cache

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/manash/genstate/pkg/models"
)

// Key identifies a generation request. Two requests with the same key are
// expected to produce interchangeable variants.
type Key string

// BuildKey is a pure function of the request shape. Asset type and
// description are case-folded and whitespace runs collapsed, so trivially
// different phrasings of the same request share an entry.
func BuildKey(assetType, description string, width, height int) Key {
	return Key(fmt.Sprintf("%s|%s|%dx%d",
		normalize(assetType), normalize(description), width, height))
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// VariantCache holds previously generated variant sets, scoped per session.
// Entries never expire; a session's entries are dropped only by Clear.
type VariantCache struct {
	mu       sync.RWMutex
	sessions map[string]map[Key][]models.Variant
}

func NewVariantCache() *VariantCache {
	return &VariantCache{sessions: make(map[string]map[Key][]models.Variant)}
}

func (c *VariantCache) Get(sessionID string, key Key) ([]models.Variant, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	variants, ok := c.sessions[sessionID][key]
	if !ok {
		return nil, false
	}
	return slices.Clone(variants), true
}

// Set overwrites any existing entry for the key.
func (c *VariantCache) Set(sessionID string, key Key, variants []models.Variant) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entries, ok := c.sessions[sessionID]
	if !ok {
		entries = make(map[Key][]models.Variant)
		c.sessions[sessionID] = entries
	}
	entries[key] = slices.Clone(variants)
}

func (c *VariantCache) Clear(sessionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sessions, sessionID)
}

func (c *VariantCache) Len(sessionID string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.sessions[sessionID])
}
