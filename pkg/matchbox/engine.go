package matchbox

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
	"unicode"
	"unicode/utf8"

	"github.com/gofrs/flock"

	"github.com/dna2zodiac/matchbox/internal/bitvec"
	"github.com/dna2zodiac/matchbox/internal/codec"
	"github.com/dna2zodiac/matchbox/internal/common"
	"github.com/dna2zodiac/matchbox/internal/hashstore"
	"github.com/dna2zodiac/matchbox/internal/idalloc"
	"github.com/dna2zodiac/matchbox/internal/idmap"
	"github.com/dna2zodiac/matchbox/internal/postings"
)

// engine is the filesystem-backed implementation of Engine.
type engine struct {
	dir    string
	opts   *Options
	logger common.Logger

	alloc  *idalloc.Allocator
	ids    *idmap.Store
	hashes *hashstore.Store
	posts  *postings.Store

	lock   *flock.Flock
	closed atomic.Bool

	indexed   atomic.Uint64
	dedupHits atomic.Uint64
	searches  atomic.Uint64
}

// Open opens or creates the shard rooted at dir.
func Open(dir string, opts *Options) (Engine, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	logger := opts.Logger
	if logger == nil {
		logger = common.NewNullLogger()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create shard root: %w", err)
	}

	var lk *flock.Flock
	if opts.ExclusiveLock {
		lk = flock.New(filepath.Join(dir, common.FileLock))
		held, err := lk.TryLock()
		if err != nil {
			return nil, fmt.Errorf("lock shard: %w", err)
		}
		if !held {
			return nil, fmt.Errorf("lock shard %s: held by another process", dir)
		}
	}

	alloc, err := idalloc.Open(dir)
	if err != nil {
		if lk != nil {
			lk.Unlock()
		}
		return nil, err
	}

	e := &engine{
		dir:    dir,
		opts:   opts,
		logger: logger,
		alloc:  alloc,
		ids:    idmap.New(filepath.Join(dir, common.DirIDHash)),
		hashes: hashstore.New(filepath.Join(dir, common.DirHash)),
		posts:  postings.New(filepath.Join(dir, common.DirTrigram)),
		lock:   lk,
	}
	logger.Debug("engine opened", "dir", dir, "nextId", alloc.Next())
	return e, nil
}

func (e *engine) Close() error {
	if !e.closed.CompareAndSwap(false, true) {
		return nil
	}
	e.logger.Debug("engine closed", "dir", e.dir)
	if e.lock != nil {
		return e.lock.Unlock()
	}
	return nil
}

func (e *engine) Stats() Stats {
	return Stats{
		NextID:    e.alloc.Next(),
		Indexed:   e.indexed.Load(),
		DedupHits: e.dedupHits.Load(),
		Searches:  e.searches.Load(),
	}
}

// normalizeLine collapses whitespace runs to a single space and trims.
func normalizeLine(line string) string {
	return strings.Join(strings.Fields(line), " ")
}

// extractTrigrams returns the distinct 3-rune windows over all normalized
// lines of text, in first-seen order. Lines shorter than 3 runes after
// normalization contribute nothing.
func extractTrigrams(text string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, line := range strings.Split(text, "\n") {
		rs := []rune(normalizeLine(line))
		for i := 0; i+common.TrigramLen <= len(rs); i++ {
			t := string(rs[i : i+common.TrigramLen])
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			out = append(out, t)
		}
	}
	return out
}

func (e *engine) IndexText(ctx context.Context, text string) (uint32, error) {
	return e.Index(ctx, "", text)
}

func (e *engine) Index(ctx context.Context, url, text string) (uint32, error) {
	if e.closed.Load() {
		return 0, common.ErrClosed
	}
	if utf8.RuneCountInString(text) < common.TrigramLen {
		return 0, nil
	}
	hash := ContentHash(text)

	// Identical content shares one id and one posting-list footprint no
	// matter how many URLs reference it.
	if e.hashes.Has(hash) {
		if url != "" {
			if _, err := e.hashes.AddURL(hash, url); err != nil {
				return 0, err
			}
		}
		id, err := e.hashes.GetID(hash)
		if err != nil {
			return 0, err
		}
		e.dedupHits.Add(1)
		return id, nil
	}

	tris := extractTrigrams(text)
	if len(tris) == 0 {
		return 0, nil
	}

	id, err := e.alloc.Allocate()
	if err != nil {
		return 0, err
	}
	if id >= common.MaxDocID {
		return 0, common.ErrIndexFull
	}
	// A concurrent writer racing on the same content can create the
	// record first; the loser surfaces ErrAlreadyExists, not a retry.
	if err := e.hashes.Create(hash, id, url); err != nil {
		return 0, err
	}
	if err := e.ids.Put(id, hash); err != nil {
		return 0, err
	}
	for _, t := range tris {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		if err := e.posts.Append(t, id); err != nil {
			return 0, err
		}
	}
	e.indexed.Add(1)
	e.logger.Debug("indexed document", "id", id, "trigrams", len(tris))
	return id, nil
}

// queryTrigram pairs a query trigram with its posting-list count for
// selectivity ordering.
type queryTrigram struct {
	t string
	c int
}

func (e *engine) Search(ctx context.Context, query string, q *QueryOptions) ([]string, error) {
	if e.closed.Load() {
		return nil, common.ErrClosed
	}
	if q == nil {
		q = DefaultQueryOptions()
	}
	limit := q.Limit
	if limit <= 0 {
		limit = common.DefaultResultLimit
	}
	e.searches.Add(1)

	rs := []rune(normalizeLine(query))
	if len(rs) > common.MaxQueryRunes {
		rs = rs[:common.MaxQueryRunes]
	}
	if len(rs) < common.TrigramLen {
		return []string{}, nil
	}

	seen := make(map[string]struct{})
	var ts []queryTrigram
	for i := 0; i+common.TrigramLen <= len(rs); i++ {
		t := string(rs[i : i+common.TrigramLen])
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		c, err := e.posts.Count(t)
		if err != nil {
			return nil, err
		}
		ts = append(ts, queryTrigram{t: t, c: c})
	}
	if len(ts) == 0 {
		return []string{}, nil
	}
	orderBySelectivity(ts)

	matches, err := e.matchSet(ctx, ts, q.CaseSensitive)
	if err != nil {
		return nil, err
	}
	return e.resolve(matches, limit)
}

// orderBySelectivity sorts query trigrams ascending by posting-list count
// so the rarest trigram is evaluated first; ties break on the trigram
// text to keep evaluation order deterministic.
func orderBySelectivity(ts []queryTrigram) {
	sort.Slice(ts, func(i, j int) bool {
		if ts[i].c != ts[j].c {
			return ts[i].c < ts[j].c
		}
		return ts[i].t < ts[j].t
	})
}

// matchSet intersects the posting sets of the ordered query trigrams,
// short-circuiting once an intermediate result is empty.
func (e *engine) matchSet(ctx context.Context, ts []queryTrigram, caseSensitive bool) (*bitvec.Set, error) {
	hint := e.alloc.Next() - 1
	var acc *bitvec.Set
	for _, qt := range ts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var set *bitvec.Set
		var err error
		if caseSensitive {
			set, err = e.posts.Materialize(qt.t, hint)
		} else {
			set, err = e.caseFoldedSet(qt.t, hint)
		}
		if err != nil {
			return nil, err
		}
		if acc == nil {
			acc = set
		} else {
			acc.And(set)
		}
		if acc.IsEmpty() {
			return acc, nil
		}
	}
	return acc, nil
}

// caseFoldedSet unions the posting sets of every upper/lower case variant
// of the trigram's runes: 1 to 8 combinations depending on how many runes
// have distinct case forms.
func (e *engine) caseFoldedSet(trigram string, hint uint32) (*bitvec.Set, error) {
	rs := []rune(trigram)
	variants := [common.TrigramLen][]rune{}
	for i, r := range rs {
		lo, up := unicode.ToLower(r), unicode.ToUpper(r)
		if lo == up {
			variants[i] = []rune{lo}
		} else {
			variants[i] = []rune{lo, up}
		}
	}
	union := bitvec.New(hint)
	for _, r0 := range variants[0] {
		for _, r1 := range variants[1] {
			for _, r2 := range variants[2] {
				set, err := e.posts.Materialize(string([]rune{r0, r1, r2}), hint)
				if err != nil {
					return nil, err
				}
				union.Or(set)
			}
		}
	}
	return union, nil
}

// resolve walks the match set in ascending id order, mapping each id back
// to its hash record's URLs until limit URLs are collected. Enumeration
// stops as soon as the limit is reached.
func (e *engine) resolve(matches *bitvec.Set, limit int) ([]string, error) {
	urls := make([]string, 0)
	seen := make(map[string]struct{})
	var resolveErr error
	matches.ForEach(func(id uint32) bool {
		hash, err := e.ids.Get(id)
		if err != nil {
			resolveErr = fmt.Errorf("resolve id %d: %w", id, err)
			return true
		}
		docURLs, err := e.hashes.GetURLs(hash)
		if err != nil {
			resolveErr = err
			return true
		}
		for _, u := range docURLs {
			if len(urls) >= limit {
				break
			}
			if _, dup := seen[u]; dup {
				continue
			}
			seen[u] = struct{}{}
			urls = append(urls, u)
		}
		return len(urls) >= limit
	})
	if resolveErr != nil {
		return nil, resolveErr
	}
	return urls, nil
}

func (e *engine) WriteLineMap(ctx context.Context, hash, text string) (map[string][]uint32, error) {
	if e.closed.Load() {
		return nil, common.ErrClosed
	}
	m := lineMap(text)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ok, err := e.hashes.SetAttribute(hash, common.AttrLineMap, codec.EncodeLineMap(m))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, common.ErrNotFound
	}
	return m, nil
}

func (e *engine) ReadLineMap(ctx context.Context, hash string) (map[string][]uint32, error) {
	if e.closed.Load() {
		return nil, common.ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	blob, err := e.hashes.GetAttribute(hash, common.AttrLineMap)
	if err != nil {
		return nil, err
	}
	return codec.DecodeLineMap(blob)
}

func (e *engine) RemoveURL(hash, url string) error {
	if e.closed.Load() {
		return common.ErrClosed
	}
	_, err := e.hashes.RemoveURL(hash, url)
	return err
}

// lineMap maps each trigram of text to the 0-based line numbers it
// occurs on.
func lineMap(text string) map[string][]uint32 {
	m := make(map[string][]uint32)
	if utf8.RuneCountInString(text) < common.TrigramLen {
		return m
	}
	for lineno, line := range strings.Split(text, "\n") {
		rs := []rune(normalizeLine(line))
		for i := 0; i+common.TrigramLen <= len(rs); i++ {
			t := string(rs[i : i+common.TrigramLen])
			lines := m[t]
			if len(lines) > 0 && lines[len(lines)-1] == uint32(lineno) {
				continue
			}
			m[t] = append(lines, uint32(lineno))
		}
	}
	return m
}
