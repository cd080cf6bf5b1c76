package launcher

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/hashicorp/golang-lru/v2"

	"github.com/chess10kp/quickpanel/internal/apps"
)

// ErrNotInstalled means no installed app matches the target.
var ErrNotInstalled = errors.New("no installed app matches target")

// Resolver finds a launch path for App targets saved without one, by
// matching the target's name and aliases against the installed-app catalog.
type Resolver struct {
	catalog apps.Catalog
	cache   *lru.Cache[string, string]
	hits    int64
	misses  int64
}

// NewResolver caches up to size resolved paths.
func NewResolver(catalog apps.Catalog, size int) (*Resolver, error) {
	if size <= 0 {
		size = 128
	}
	cache, err := lru.New[string, string](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create LRU cache: %w", err)
	}
	return &Resolver{catalog: catalog, cache: cache}, nil
}

func resolveKey(t Target) string {
	return strings.ToLower(t.Name)
}

// Cached returns a previously resolved path without touching the catalog.
func (r *Resolver) Cached(t Target) (string, bool) {
	path, ok := r.cache.Get(resolveKey(t))
	if ok {
		atomic.AddInt64(&r.hits, 1)
	}
	return path, ok
}

// Resolve returns the path of the installed app matching the target.
func (r *Resolver) Resolve(ctx context.Context, t Target) (string, error) {
	if path, ok := r.Cached(t); ok {
		return path, nil
	}
	atomic.AddInt64(&r.misses, 1)

	list, err := r.catalog.List(ctx)
	if err != nil {
		return "", err
	}

	for _, name := range append([]string{t.Name}, t.Aliases...) {
		if app, ok := apps.FindByName(list, name); ok && app.Path != "" {
			r.cache.Add(resolveKey(t), app.Path)
			return app.Path, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrNotInstalled, t.Name)
}

// Purge drops every cached path.
func (r *Resolver) Purge() {
	r.cache.Purge()
}

// Stats returns cache hits and misses.
func (r *Resolver) Stats() (hits, misses int64) {
	return atomic.LoadInt64(&r.hits), atomic.LoadInt64(&r.misses)
}
