package common

import "errors"

// MaxDocID is the exclusive upper bound of the document id space.
// With a dense bitmap over [1, MaxDocID) a single search needs at most
// ~100MB per materialized posting set, which is the scale the on-disk
// layout was designed for.
const MaxDocID uint32 = 0x2FAF0800 // 800,000,000

// On-disk layout within a shard root directory.
const (
	DirTrigram = "_trigram"
	DirIDHash  = "_idhash"
	DirHash    = "_hash"
	FileConfig = "config.json"
	FileLock   = ".lock"
)

// Files inside a hash record directory. These names are reserved and
// cannot be used as attribute keys.
const (
	HashFileID  = "id"
	HashFileURL = "url"
)

// AttrLineMap is the attribute key under which the per-trigram line
// occurrence map is persisted.
const AttrLineMap = "_linemap"

// Sizing constants for the sharded path scheme.
const (
	TrigramLen       = 3    // runes per trigram
	TrigramBucketDiv = 1000 // leading-rune divisor for the top-level bucket
	IDBucketMod      = 512  // top-level id bucket count
	IDGroupSize      = 100  // ids per _idhash group file
	HashChunkLen     = 4    // hex chars per hash path segment
)

// Query limits.
const (
	MaxQueryRunes      = 1024
	DefaultResultLimit = 100
)

// Common errors surfaced by the engine and its stores.
var (
	ErrClosed            = errors.New("engine is closed")
	ErrAlreadyExists     = errors.New("hash record already exists")
	ErrNotFound          = errors.New("hash record not found")
	ErrIndexFull         = errors.New("document id space exhausted")
	ErrInvalidInput      = errors.New("invalid input")
	ErrBinaryText        = errors.New("text contains a NUL byte")
	ErrReservedAttribute = errors.New("attribute key is reserved")
	ErrInvalidShard      = errors.New("invalid shard name")
)

// Logger provides structured logging.
type Logger interface {
	Debug(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})
}

// LogLevel represents the severity of a log message.
type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
)
