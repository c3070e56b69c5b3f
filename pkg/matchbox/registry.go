package matchbox

import (
	"context"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/dna2zodiac/matchbox/internal/common"
)

// Registry owns one engine per shard name, created lazily on first use
// and kept for the registry's lifetime. It serializes Index calls per
// shard so the id allocator's read-increment-persist sequence never races
// within the process; searches take no lock.
type Registry struct {
	base string
	opts *Options

	mu      sync.RWMutex
	engines map[string]Engine
	writeMu map[string]*sync.Mutex

	group singleflight.Group
}

// NewRegistry creates a registry whose shards live under base.
func NewRegistry(base string, opts *Options) *Registry {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &Registry{
		base:    base,
		opts:    opts,
		engines: make(map[string]Engine),
		writeMu: make(map[string]*sync.Mutex),
	}
}

// validShard rejects names that would escape the registry's base
// directory.
func validShard(shard string) bool {
	if shard == "" || shard == "." || shard == ".." {
		return false
	}
	return !strings.ContainsAny(shard, "/\\")
}

// Engine returns the shard's engine, opening it on first use.
func (r *Registry) Engine(shard string) (Engine, error) {
	if !validShard(shard) {
		return nil, common.ErrInvalidShard
	}
	r.mu.RLock()
	e, ok := r.engines[shard]
	r.mu.RUnlock()
	if ok {
		return e, nil
	}

	v, err, _ := r.group.Do(shard, func() (interface{}, error) {
		r.mu.RLock()
		e, ok := r.engines[shard]
		r.mu.RUnlock()
		if ok {
			return e, nil
		}
		e, err := Open(filepath.Join(r.base, shard), r.opts)
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		r.engines[shard] = e
		r.writeMu[shard] = &sync.Mutex{}
		r.mu.Unlock()
		return e, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(Engine), nil
}

// Index indexes a document into the named shard, serialized against
// other writers of the same shard.
func (r *Registry) Index(ctx context.Context, shard, url, text string) (uint32, error) {
	e, err := r.Engine(shard)
	if err != nil {
		return 0, err
	}
	r.mu.RLock()
	mu := r.writeMu[shard]
	r.mu.RUnlock()
	mu.Lock()
	defer mu.Unlock()
	return e.Index(ctx, url, text)
}

// Search searches the named shard.
func (r *Registry) Search(ctx context.Context, shard, query string, q *QueryOptions) ([]string, error) {
	e, err := r.Engine(shard)
	if err != nil {
		return nil, err
	}
	return e.Search(ctx, query, q)
}

// Close closes every open engine. The first error is returned.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var first error
	for name, e := range r.engines {
		if err := e.Close(); err != nil && first == nil {
			first = err
		}
		delete(r.engines, name)
		delete(r.writeMu, name)
	}
	return first
}
