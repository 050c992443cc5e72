package embed

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/novvoo/go-pdfembed/pkg/viewer"
)

// Opener loads a document handle from a source locator.
type Opener interface {
	Open(ctx context.Context, source string) (viewer.Document, error)
}

// Cache is an Opener that loads each source once. Concurrent requests for a
// source share one load; failed loads are not kept.
type Cache struct {
	opener Opener

	mu      sync.Mutex
	entries map[string]*cacheEntry
}

type cacheEntry struct {
	done chan struct{}
	doc  viewer.Document
	err  error
}

// NewCache returns a cache in front of o.
func NewCache(o Opener) *Cache {
	return &Cache{
		opener:  o,
		entries: make(map[string]*cacheEntry),
	}
}

// Open returns the document for source, loading it on first use.
func (c *Cache) Open(ctx context.Context, source string) (viewer.Document, error) {
	c.mu.Lock()
	if e, ok := c.entries[source]; ok {
		c.mu.Unlock()
		select {
		case <-e.done:
			return e.doc, e.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	e := &cacheEntry{done: make(chan struct{})}
	c.entries[source] = e
	c.mu.Unlock()

	e.doc, e.err = c.opener.Open(ctx, source)
	if e.err != nil {
		c.mu.Lock()
		delete(c.entries, source)
		c.mu.Unlock()
	}
	close(e.done)
	return e.doc, e.err
}

// Len returns the number of loaded or loading sources.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Close closes every loaded document that implements io.Closer.
func (c *Cache) Close() error {
	c.mu.Lock()
	entries := c.entries
	c.entries = make(map[string]*cacheEntry)
	c.mu.Unlock()

	var errs []error
	for _, e := range entries {
		<-e.done
		if cl, ok := e.doc.(io.Closer); ok && e.err == nil {
			if err := cl.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
