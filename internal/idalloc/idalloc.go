// Package idalloc persists the monotonic next-document-id counter in the
// shard's config.json control file.
package idalloc

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dna2zodiac/matchbox/internal/common"
	"github.com/dna2zodiac/matchbox/internal/fsutil"
)

// Allocator hands out document ids. Ids are monotonic and gap-free under
// a single writer. The read-increment-persist sequence is not atomic:
// two processes allocating concurrently against the same shard can read
// the same counter and assign the same id. Callers needing strict
// correctness must serialize allocation per shard (the serving layer's
// registry does this in-process; an exclusive shard lock covers the
// cross-process case).
type Allocator struct {
	dir  string
	next uint32
}

// Open loads the persisted counter from dir/config.json, initializing to
// 1 when the file is absent.
func Open(dir string) (*Allocator, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create shard root: %w", err)
	}
	a := &Allocator{dir: dir, next: 1}
	cfg, err := a.readConfig()
	if err != nil {
		return nil, err
	}
	if v, ok := cfg["nextId"].(float64); ok && v >= 1 {
		a.next = uint32(v)
	}
	return a, nil
}

// Next returns the next id that would be allocated. Next()-1 is the
// current upper bound of assigned ids, used to size bit-vector sets.
func (a *Allocator) Next() uint32 { return a.next }

// Allocate returns the current counter value and durably persists the
// incremented counter before returning. Unrelated fields already present
// in config.json are preserved.
func (a *Allocator) Allocate() (uint32, error) {
	id := a.next
	cfg, err := a.readConfig()
	if err != nil {
		return 0, err
	}
	a.next++
	cfg["nextId"] = a.next
	data, err := json.Marshal(cfg)
	if err != nil {
		return 0, fmt.Errorf("encode config: %w", err)
	}
	if err := fsutil.WriteAtomic(a.configPath(), data); err != nil {
		return 0, fmt.Errorf("persist config: %w", err)
	}
	return id, nil
}

func (a *Allocator) configPath() string {
	return filepath.Join(a.dir, common.FileConfig)
}

func (a *Allocator) readConfig() (map[string]interface{}, error) {
	data, err := os.ReadFile(a.configPath())
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]interface{}{"nextId": float64(1)}, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := make(map[string]interface{})
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}
