// Package layout implements the sharded path scheme that maps trigrams,
// document ids and content hashes to relative filesystem paths. The
// mappings are pure and case-preserving; they bound per-directory entry
// counts and per-file sizes regardless of corpus size by trading
// directory depth for fan-out.
package layout

import (
	"path/filepath"
	"strconv"

	"github.com/dna2zodiac/matchbox/internal/common"
)

// TrigramPath returns the relative path of a trigram's posting-list file.
// The trigram must be exactly 3 runes; the top-level bucket is the leading
// rune's value divided by 1000, and each rune value forms one directory
// level. Rune values keep the scheme safe on case-insensitive filesystems.
func TrigramPath(trigram string) (string, error) {
	rs := []rune(trigram)
	if len(rs) != common.TrigramLen {
		return "", common.ErrInvalidInput
	}
	b := int(rs[0]) / common.TrigramBucketDiv
	return filepath.Join(
		strconv.Itoa(b),
		strconv.Itoa(int(rs[0])),
		strconv.Itoa(int(rs[1])),
		strconv.Itoa(int(rs[2])),
	), nil
}

// IDPath returns the relative path of the _idhash group file holding the
// hash mapping for id. Each group file covers up to 100 consecutive ids
// within its bucket.
func IDPath(id uint32) (string, error) {
	if id == 0 {
		return "", common.ErrInvalidInput
	}
	b := id % common.IDBucketMod
	c := id / 100000000
	d := (id % 100000000) / 10000
	group := (id % 10000) / common.IDGroupSize
	return filepath.Join(
		strconv.FormatUint(uint64(b), 10),
		strconv.FormatUint(uint64(c), 10),
		strconv.FormatUint(uint64(d), 10),
		strconv.FormatUint(uint64(group), 10)+".json",
	), nil
}

// HashPath returns the relative path of a content hash's record directory:
// consecutive 4-character chunks of the hash as nested directories, then
// one more level named by the full hash so the leaf is unique.
func HashPath(hash string) (string, error) {
	if hash == "" {
		return "", common.ErrInvalidInput
	}
	segs := make([]string, 0, len(hash)/common.HashChunkLen+2)
	for i := 0; i < len(hash); i += common.HashChunkLen {
		end := i + common.HashChunkLen
		if end > len(hash) {
			end = len(hash)
		}
		segs = append(segs, hash[i:end])
	}
	segs = append(segs, hash)
	return filepath.Join(segs...), nil
}
