// Package bitvec implements a dense bitmap over the document id space,
// used to intersect and union posting lists during search. Document ids
// are 1-based; id i occupies bit (i-1)%8 of byte (i-1)/8.
package bitvec

import "math/bits"

// Set is a dense set of document ids backed by a byte bitmap.
type Set struct {
	bits []byte
}

// New creates a set sized to cover ids in [1, maxID]. maxID 0 yields an
// empty set; Add grows the bitmap as needed either way.
func New(maxID uint32) *Set {
	return &Set{bits: make([]byte, (int(maxID)+7)/8)}
}

func (s *Set) grow(byteIdx int) {
	if byteIdx < len(s.bits) {
		return
	}
	grown := make([]byte, byteIdx+1)
	copy(grown, s.bits)
	s.bits = grown
}

// Add sets the bit for id. id 0 is not a valid document id and is ignored.
func (s *Set) Add(id uint32) {
	if id == 0 {
		return
	}
	i := id - 1
	s.grow(int(i / 8))
	s.bits[i/8] |= 1 << (i % 8)
}

// Remove clears the bit for id.
func (s *Set) Remove(id uint32) {
	if id == 0 {
		return
	}
	i := id - 1
	if int(i/8) >= len(s.bits) {
		return
	}
	s.bits[i/8] &= 0xFF &^ (1 << (i % 8))
}

// Test reports whether id is in the set.
func (s *Set) Test(id uint32) bool {
	if id == 0 {
		return false
	}
	i := id - 1
	if int(i/8) >= len(s.bits) {
		return false
	}
	return s.bits[i/8]&(1<<(i%8)) != 0
}

// IsEmpty reports whether no bit is set.
func (s *Set) IsEmpty() bool {
	for _, b := range s.bits {
		if b != 0 {
			return false
		}
	}
	return true
}

// Count returns the number of set bits.
func (s *Set) Count() int {
	n := 0
	for _, b := range s.bits {
		n += bits.OnesCount8(b)
	}
	return n
}

// And intersects s with other in place. Operands of different lengths
// interoperate: bytes beyond the shorter operand are treated as zero.
func (s *Set) And(other *Set) {
	for i := range s.bits {
		if other == nil || i >= len(other.bits) {
			s.bits[i] = 0
		} else {
			s.bits[i] &= other.bits[i]
		}
	}
}

// Or unions other into s in place, growing s if other is longer.
func (s *Set) Or(other *Set) {
	if other == nil {
		return
	}
	if len(other.bits) > len(s.bits) {
		s.grow(len(other.bits) - 1)
	}
	for i, b := range other.bits {
		s.bits[i] |= b
	}
}

// Clone returns an independent copy of s.
func (s *Set) Clone() *Set {
	c := &Set{bits: make([]byte, len(s.bits))}
	copy(c.bits, s.bits)
	return c
}

// ForEach calls fn for each set id in ascending order. When fn returns
// true, enumeration stops immediately and no further calls are made.
func (s *Set) ForEach(fn func(id uint32) bool) {
	for i, b := range s.bits {
		if b == 0 {
			continue
		}
		for j := 0; j < 8; j++ {
			if b&(1<<j) != 0 {
				if fn(uint32(i*8+j) + 1) {
					return
				}
			}
		}
	}
}
