// Package codec implements the fixed-width binary encodings used by the
// on-disk index: 4-byte big-endian document ids for posting lists, and the
// length-prefixed line-map blob stored as a hash-record attribute.
package codec

import (
	"bytes"
	"encoding/binary"
	"sort"

	"github.com/dna2zodiac/matchbox/internal/common"
)

// DocIDSize is the width of one encoded document id.
const DocIDSize = 4

// AppendDocID appends the 4-byte big-endian encoding of id to dst.
func AppendDocID(dst []byte, id uint32) []byte {
	return binary.BigEndian.AppendUint32(dst, id)
}

// EncodeDocID returns the 4-byte big-endian encoding of id.
func EncodeDocID(id uint32) []byte {
	return AppendDocID(make([]byte, 0, DocIDSize), id)
}

// DecodeDocID decodes a 4-byte big-endian document id from b.
func DecodeDocID(b []byte) uint32 {
	return binary.BigEndian.Uint32(b)
}

// EncodeLineMap serializes a trigram -> line-numbers map. The format is:
// int32 trigram count, then for each trigram a NUL-terminated string,
// an int32 line count and that many int32 line numbers. Trigrams are
// written in sorted order so equal maps encode identically.
func EncodeLineMap(m map[string][]uint32) []byte {
	tris := make([]string, 0, len(m))
	for t := range m {
		tris = append(tris, t)
	}
	sort.Strings(tris)

	var buf []byte
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(tris)))
	for _, t := range tris {
		buf = append(buf, t...)
		buf = append(buf, 0)
		lines := m[t]
		buf = binary.BigEndian.AppendUint32(buf, uint32(len(lines)))
		for _, ln := range lines {
			buf = binary.BigEndian.AppendUint32(buf, ln)
		}
	}
	return buf
}

// DecodeLineMap parses a blob produced by EncodeLineMap. A nil or empty
// blob decodes to an empty map.
func DecodeLineMap(b []byte) (map[string][]uint32, error) {
	m := make(map[string][]uint32)
	if len(b) == 0 {
		return m, nil
	}
	if len(b) < DocIDSize {
		return nil, common.ErrInvalidInput
	}
	n := binary.BigEndian.Uint32(b)
	off := DocIDSize
	for i := uint32(0); i < n; i++ {
		end := bytes.IndexByte(b[off:], 0)
		if end < 0 {
			return nil, common.ErrInvalidInput
		}
		tri := string(b[off : off+end])
		off += end + 1
		if off+DocIDSize > len(b) {
			return nil, common.ErrInvalidInput
		}
		count := int(binary.BigEndian.Uint32(b[off:]))
		off += DocIDSize
		if off+count*DocIDSize > len(b) {
			return nil, common.ErrInvalidInput
		}
		lines := make([]uint32, 0, count)
		for j := 0; j < count; j++ {
			lines = append(lines, binary.BigEndian.Uint32(b[off:]))
			off += DocIDSize
		}
		m[tri] = lines
	}
	return m, nil
}
