package ocr

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/Veraticus/shiwake/internal/model"
)

// DefaultCacheTTL is used when NewCachingExtractor is given a zero TTL.
const DefaultCacheTTL = time.Hour

type cacheEntry struct {
	expiry time.Time
	fields model.OCRFields
}

// CachingExtractor remembers extraction results by file content so a
// re-uploaded document is not sent to the OCR backend twice.
type CachingExtractor struct {
	next    Extractor
	entries map[string]cacheEntry
	stopCh  chan struct{}
	now     func() time.Time
	ttl     time.Duration
	mu      sync.RWMutex
	once    sync.Once
}

// NewCachingExtractor wraps next with a content-addressed cache.
// Close stops the background cleanup.
func NewCachingExtractor(next Extractor, ttl time.Duration) *CachingExtractor {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	c := &CachingExtractor{
		next:    next,
		entries: make(map[string]cacheEntry),
		stopCh:  make(chan struct{}),
		now:     time.Now,
		ttl:     ttl,
	}
	go c.cleanup(min(ttl, 5*time.Minute))
	return c
}

// Extract returns a cached result for identical content, or delegates.
// Failures are not cached.
func (c *CachingExtractor) Extract(ctx context.Context, path string) (model.OCRFields, error) {
	key, err := contentKey(path)
	if err != nil {
		return model.OCRFields{}, err
	}

	if fields, ok := c.get(key); ok {
		slog.Debug("OCR cache hit", "file", path)
		return fields, nil
	}

	fields, err := c.next.Extract(ctx, path)
	if err != nil {
		return model.OCRFields{}, err
	}
	c.set(key, fields)
	return fields, nil
}

// Len returns the number of cached results, expired or not.
func (c *CachingExtractor) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Close stops the cleanup goroutine.
func (c *CachingExtractor) Close() {
	c.once.Do(func() { close(c.stopCh) })
}

func (c *CachingExtractor) get(key string) (model.OCRFields, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok || c.now().After(entry.expiry) {
		return model.OCRFields{}, false
	}
	return entry.fields, true
}

func (c *CachingExtractor) set(key string, fields model.OCRFields) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{fields: fields, expiry: c.now().Add(c.ttl)}
}

func (c *CachingExtractor) evictExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	for key, entry := range c.entries {
		if now.After(entry.expiry) {
			delete(c.entries, key)
		}
	}
}

func (c *CachingExtractor) cleanup(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.evictExpired()
		}
	}
}

func contentKey(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
