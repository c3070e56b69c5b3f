// Package hashstore persists one record per distinct content hash as a
// directory holding an `id` file, a `url` file and optional attribute
// blobs. The record directory existing at most once per hash is what
// enforces at-most-one document id per distinct content.
package hashstore

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

// Store is a content-hash record store rooted at a _hash directory.
type Store struct {
	dir string
}

// New creates a store rooted at dir.
func New(dir string) *Store { return &Store{dir: dir} }

func (s *Store) recordDir(hash string) (string, error) {
	rel, err := layout.HashPath(hash)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.dir, rel), nil
}

// Has reports whether a record exists for hash. A record counts as
// present once its id file does.
func (s *Store) Has(hash string) bool {
	dir, err := s.recordDir(hash)
	if err != nil {
		return false
	}
	return fsutil.FileExists(filepath.Join(dir, common.HashFileID))
}

// Create writes a new record for hash with the given id and, when url is
// non-empty, an initial url list containing it. Returns ErrAlreadyExists
// if the record directory exists; a concurrent writer that lost the
// creation race observes this error.
func (s *Store) Create(hash string, id uint32, url string) error {
	dir, err := s.recordDir(hash)
	if err != nil {
		return err
	}
	if fsutil.DirExists(dir) {
		return common.ErrAlreadyExists
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create hash record: %w", err)
	}
	idData := []byte(strconv.FormatUint(uint64(id), 10))
	if err := fsutil.WriteAtomic(filepath.Join(dir, common.HashFileID), idData); err != nil {
		return fmt.Errorf("write hash id: %w", err)
	}
	urls := []string{}
	if url != "" {
		urls = append(urls, url)
	}
	return s.writeURLs(dir, urls)
}

// GetID resolves hash to its document id, or ErrNotFound.
func (s *Store) GetID(hash string) (uint32, error) {
	dir, err := s.recordDir(hash)
	if err != nil {
		return 0, err
	}
	data, err := os.ReadFile(filepath.Join(dir, common.HashFileID))
	if err != nil {
		if os.IsNotExist(err) {
			return 0, common.ErrNotFound
		}
		return 0, fmt.Errorf("read hash id: %w", err)
	}
	id, err := strconv.ParseUint(string(data), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("parse hash id: %w", err)
	}
	return uint32(id), nil
}

// GetURLs returns the record's url list in insertion order, empty when
// the record is absent.
func (s *Store) GetURLs(hash string) ([]string, error) {
	dir, err := s.recordDir(hash)
	if err != nil {
		return nil, err
	}
	urls, err := s.readURLs(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, err
	}
	return urls, nil
}

// AddURL appends url to the record's list if not already present.
// Returns ErrNotFound when no record exists for hash.
func (s *Store) AddURL(hash, url string) ([]string, error) {
	dir, err := s.recordDir(hash)
	if err != nil {
		return nil, err
	}
	urls, err := s.readURLs(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, common.ErrNotFound
		}
		return nil, err
	}
	for _, u := range urls {
		if u == url {
			return urls, nil
		}
	}
	urls = append(urls, url)
	if err := s.writeURLs(dir, urls); err != nil {
		return nil, err
	}
	return urls, nil
}

// RemoveURL removes the first occurrence of url from the record's list.
// Removing an absent url is a no-op; a missing record is ErrNotFound.
func (s *Store) RemoveURL(hash, url string) ([]string, error) {
	dir, err := s.recordDir(hash)
	if err != nil {
		return nil, err
	}
	urls, err := s.readURLs(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, common.ErrNotFound
		}
		return nil, err
	}
	for i, u := range urls {
		if u == url {
			urls = append(urls[:i], urls[i+1:]...)
			if err := s.writeURLs(dir, urls); err != nil {
				return nil, err
			}
			break
		}
	}
	return urls, nil
}

// GetAttribute reads an attribute blob, nil when absent. The reserved
// keys `id` and `url` are rejected.
func (s *Store) GetAttribute(hash, key string) ([]byte, error) {
	if key == common.HashFileID || key == common.HashFileURL {
		return nil, common.ErrReservedAttribute
	}
	dir, err := s.recordDir(hash)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(dir, key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read attribute %s: %w", key, err)
	}
	return data, nil
}

// SetAttribute writes an attribute blob; a nil value deletes the key.
// Returns false without error when no record exists for hash. The
// reserved keys `id` and `url` are rejected.
func (s *Store) SetAttribute(hash, key string, value []byte) (bool, error) {
	if key == common.HashFileID || key == common.HashFileURL {
		return false, common.ErrReservedAttribute
	}
	dir, err := s.recordDir(hash)
	if err != nil {
		return false, err
	}
	if !fsutil.DirExists(dir) {
		return false, nil
	}
	path := filepath.Join(dir, key)
	if value == nil {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return false, fmt.Errorf("delete attribute %s: %w", key, err)
		}
		return true, nil
	}
	if err := fsutil.WriteAtomic(path, value); err != nil {
		return false, fmt.Errorf("write attribute %s: %w", key, err)
	}
	return true, nil
}

func (s *Store) readURLs(dir string) ([]string, error) {
	data, err := os.ReadFile(filepath.Join(dir, common.HashFileURL))
	if err != nil {
		return nil, err
	}
	var urls []string
	if err := json.Unmarshal(data, &urls); err != nil {
		return nil, fmt.Errorf("decode url list: %w", err)
	}
	return urls, nil
}

func (s *Store) writeURLs(dir string, urls []string) error {
	data, err := json.Marshal(urls)
	if err != nil {
		return fmt.Errorf("encode url list: %w", err)
	}
	if err := fsutil.WriteAtomic(filepath.Join(dir, common.HashFileURL), data); err != nil {
		return fmt.Errorf("write url list: %w", err)
	}
	return nil
}
