// Package matchbox implements a trigram-based full-text indexing and
// search engine whose index lives entirely in a sharded directory tree of
// small files. Documents are deduplicated by content hash; search returns
// the URLs of documents containing every trigram of the query, evaluated
// with bit-vector set algebra over per-trigram posting lists.
package matchbox

import (
	"context"
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"

	"github.com/dna2zodiac/matchbox/internal/common"
)

// MaxDocID is the exclusive upper bound of the document id space.
const MaxDocID = common.MaxDocID

// Engine is one shard of the index: a self-contained on-disk tree with
// its own id space. Engines are safe for concurrent searches; concurrent
// indexing carries a documented id-allocation hazard (see idalloc) and
// should be serialized per shard by the caller.
type Engine interface {
	// Close releases the engine's resources. The on-disk state needs no
	// shutdown step beyond completed writes.
	Close() error

	// Index adds a document under url. It returns the document's id, or
	// 0 with a nil error when the text is too short to contain any
	// trigram. Identical text indexed again returns the existing id and
	// only accumulates the url; no posting-list work is repeated.
	Index(ctx context.Context, url, text string) (uint32, error)

	// IndexText indexes a document with no url.
	IndexText(ctx context.Context, text string) (uint32, error)

	// Search returns the URLs of documents whose text contains every
	// trigram of query, up to the result limit. A nil q uses defaults.
	Search(ctx context.Context, query string, q *QueryOptions) ([]string, error)

	// WriteLineMap computes and persists the per-trigram line occurrence
	// map for text under its hash record, returning the map.
	WriteLineMap(ctx context.Context, hash, text string) (map[string][]uint32, error)

	// ReadLineMap loads a previously persisted line occurrence map;
	// absent maps decode as empty.
	ReadLineMap(ctx context.Context, hash string) (map[string][]uint32, error)

	// RemoveURL drops url from the hash record's url list. The document
	// itself and its posting entries stay; full deletion has no policy
	// yet and is not implemented.
	RemoveURL(hash, url string) error

	// Stats returns counters for the engine instance.
	Stats() Stats
}

// Options configures an engine.
type Options struct {
	// Logger provides structured logging. Defaults to NullLogger; the
	// engine logs lifecycle events only.
	Logger common.Logger

	// ExclusiveLock takes an advisory file lock on the shard root at
	// Open, refusing to open a shard another process holds. This guards
	// the cross-process id-allocation race at the cost of single-process
	// shard ownership.
	ExclusiveLock bool
}

// DefaultOptions returns default engine options.
func DefaultOptions() *Options {
	return &Options{
		Logger:        common.NewNullLogger(),
		ExclusiveLock: false,
	}
}

// QueryOptions configures a search.
type QueryOptions struct {
	// Limit caps the number of returned URLs. Values <= 0 fall back to
	// the default of 100.
	Limit int

	// CaseSensitive matches trigrams exactly when true; otherwise each
	// query trigram expands over the upper/lower case variants of its
	// characters.
	CaseSensitive bool
}

// DefaultQueryOptions returns the default search options: limit 100,
// case-sensitive.
func DefaultQueryOptions() *QueryOptions {
	return &QueryOptions{
		Limit:         common.DefaultResultLimit,
		CaseSensitive: true,
	}
}

// Stats holds per-engine counters.
type Stats struct {
	// NextID is the next document id the shard would allocate.
	NextID uint32

	// Indexed is the number of new documents indexed since open.
	Indexed uint64

	// DedupHits is the number of Index calls resolved by content-hash
	// deduplication since open.
	DedupHits uint64

	// Searches is the number of searches served since open.
	Searches uint64
}

// ContentHash returns the deduplication key for text: the hex sha256
// digest concatenated with the hex md5 digest of its raw bytes.
func ContentHash(text string) string {
	b := []byte(text)
	s := sha256.Sum256(b)
	m := md5.Sum(b)
	return hex.EncodeToString(s[:]) + hex.EncodeToString(m[:])
}
