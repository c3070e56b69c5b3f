// Package postings stores one append-only posting list per trigram: a
// flat sequence of 4-byte big-endian document ids. Lists carry no order
// invariant on disk; materializing into a bit-vector set deduplicates on
// read.
package postings

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dna2zodiac/matchbox/internal/bitvec"
	"github.com/dna2zodiac/matchbox/internal/codec"
	"github.com/dna2zodiac/matchbox/internal/fsutil"
	"github.com/dna2zodiac/matchbox/internal/layout"
)

// Posting lists past this size are read through mmap instead of a full
// buffer read.
const mmapThreshold = 1 << 20

// Store is a posting-list store rooted at a _trigram directory.
type Store struct {
	dir string
}

// New creates a store rooted at dir.
func New(dir string) *Store { return &Store{dir: dir} }

func (s *Store) listPath(trigram string) (string, error) {
	rel, err := layout.TrigramPath(trigram)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.dir, rel), nil
}

// Append adds id to the trigram's posting list with a single whole-buffer
// write, creating the list as needed.
func (s *Store) Append(trigram string, id uint32) error {
	path, err := s.listPath(trigram)
	if err != nil {
		return err
	}
	if err := fsutil.AppendFile(path, codec.EncodeDocID(id)); err != nil {
		return fmt.Errorf("append posting %q: %w", trigram, err)
	}
	return nil
}

// Count returns the number of ids in the trigram's posting list. An
// absent list counts as 0, not an error.
func (s *Store) Count(trigram string) (int, error) {
	path, err := s.listPath(trigram)
	if err != nil {
		return 0, err
	}
	info, err := os.Lstat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("stat posting %q: %w", trigram, err)
	}
	return int(info.Size() / codec.DocIDSize), nil
}

// Materialize reads the full posting list into a bit-vector set sized for
// sizeHint ids. An absent list yields an empty set.
func (s *Store) Materialize(trigram string, sizeHint uint32) (*bitvec.Set, error) {
	set := bitvec.New(sizeHint)
	path, err := s.listPath(trigram)
	if err != nil {
		return nil, err
	}
	info, err := os.Lstat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return set, nil
		}
		return nil, fmt.Errorf("stat posting %q: %w", trigram, err)
	}
	if info.Size() >= mmapThreshold {
		mm, err := fsutil.MapFile(path)
		if err != nil {
			return nil, fmt.Errorf("map posting %q: %w", trigram, err)
		}
		defer mm.Close()
		fill(set, mm.Data())
		return set, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read posting %q: %w", trigram, err)
	}
	fill(set, data)
	return set, nil
}

func fill(set *bitvec.Set, data []byte) {
	for i := 0; i+codec.DocIDSize <= len(data); i += codec.DocIDSize {
		set.Add(codec.DecodeDocID(data[i:]))
	}
}

// Remove deletes id from the trigram's posting list by materializing the
// list, clearing the bit and rewriting the file in ascending id order.
// Entries are not individually addressable on disk, so a full rewrite is
// the only correct deletion primitive.
func (s *Store) Remove(trigram string, id uint32) error {
	n, err := s.Count(trigram)
	if err != nil || n == 0 {
		return err
	}
	set, err := s.Materialize(trigram, id)
	if err != nil {
		return err
	}
	set.Remove(id)
	buf := make([]byte, 0, set.Count()*codec.DocIDSize)
	set.ForEach(func(remaining uint32) bool {
		buf = codec.AppendDocID(buf, remaining)
		return false
	})
	path, err := s.listPath(trigram)
	if err != nil {
		return err
	}
	if err := fsutil.WriteAtomic(path, buf); err != nil {
		return fmt.Errorf("rewrite posting %q: %w", trigram, err)
	}
	return nil
}
