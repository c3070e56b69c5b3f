// Package idmap persists the document-id to content-hash mapping as JSON
// group files of up to 100 consecutive ids, keeping file counts and sizes
// bounded.
package idmap

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/dna2zodiac/matchbox/internal/common"
	"github.com/dna2zodiac/matchbox/internal/fsutil"
	"github.com/dna2zodiac/matchbox/internal/layout"
)

// Store maps document ids to content hashes under a _idhash directory.
type Store struct {
	dir string
}

// New creates a store rooted at dir.
func New(dir string) *Store { return &Store{dir: dir} }

func (s *Store) groupPath(id uint32) (string, error) {
	rel, err := layout.IDPath(id)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.dir, rel), nil
}

// Put records id -> hash, merging into the id's existing group file.
func (s *Store) Put(id uint32, hash string) error {
	path, err := s.groupPath(id)
	if err != nil {
		return err
	}
	group := make(map[string]string)
	data, err := os.ReadFile(path)
	if err == nil {
		if err := json.Unmarshal(data, &group); err != nil {
			return fmt.Errorf("decode id group %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("read id group: %w", err)
	}
	group[strconv.FormatUint(uint64(id), 10)] = hash
	out, err := json.Marshal(group)
	if err != nil {
		return fmt.Errorf("encode id group: %w", err)
	}
	return fsutil.WriteAtomic(path, out)
}

// Get resolves id to its content hash. A missing group file or a missing
// entry within it yields ErrNotFound.
func (s *Store) Get(id uint32) (string, error) {
	path, err := s.groupPath(id)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", common.ErrNotFound
		}
		return "", fmt.Errorf("read id group: %w", err)
	}
	group := make(map[string]string)
	if err := json.Unmarshal(data, &group); err != nil {
		return "", fmt.Errorf("decode id group %s: %w", path, err)
	}
	hash, ok := group[strconv.FormatUint(uint64(id), 10)]
	if !ok {
		return "", common.ErrNotFound
	}
	return hash, nil
}
