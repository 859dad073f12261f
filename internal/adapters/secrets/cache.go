package secrets

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/kevin07696/ixopay-gateway/internal/adapters/ports"
)

// secretCache keeps resolved secrets for a TTL
type secretCache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	enabled bool
	ttl     time.Duration
	now     func() time.Time
}

type cacheEntry struct {
	secret    *ports.Secret
	expiresAt time.Time
}

func newSecretCache(enabled bool, ttl time.Duration) *secretCache {
	return &secretCache{
		entries: make(map[string]cacheEntry),
		enabled: enabled,
		ttl:     ttl,
		now:     time.Now,
	}
}

func (c *secretCache) get(key string) *ports.Secret {
	if !c.enabled {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil
	}
	if c.now().After(entry.expiresAt) {
		delete(c.entries, key)
		return nil
	}
	return entry.secret
}

func (c *secretCache) set(key string, secret *ports.Secret) {
	if !c.enabled {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{secret: secret, expiresAt: c.now().Add(c.ttl)}
}

// splitPath separates "name#field"; field is empty when there is no '#'
func splitPath(path string) (name, field string) {
	name, field, _ = strings.Cut(path, "#")
	return name, field
}

// pickField returns field from a JSON object secret
func pickField(raw, field string) (string, error) {
	var data map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return "", fmt.Errorf("secret is not a JSON object: %w", err)
	}
	return stringField(data, field)
}

func stringField(data map[string]interface{}, field string) (string, error) {
	v, ok := data[field]
	if !ok {
		return "", fmt.Errorf("field %q not found in secret", field)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("field %q is not a string", field)
	}
	return s, nil
}
