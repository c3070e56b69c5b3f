package codec

import (
	"bytes"
	"reflect"
	"testing"

	"github.com/dna2zodiac/matchbox/internal/common"
)

func TestDocIDBigEndian(t *testing.T) {
	got := EncodeDocID(0x01020304)
	want := []byte{0x01, 0x02, 0x03, 0x04}
	if !bytes.Equal(got, want) {
		t.Fatalf("EncodeDocID = %v, want %v", got, want)
	}
	if id := DecodeDocID(got); id != 0x01020304 {
		t.Fatalf("DecodeDocID = %#x, want 0x01020304", id)
	}
}

func TestDocIDBounds(t *testing.T) {
	for _, id := range []uint32{1, common.MaxDocID - 1, 0xFFFFFFFF} {
		if got := DecodeDocID(EncodeDocID(id)); got != id {
			t.Errorf("roundtrip(%d) = %d", id, got)
		}
	}
}

func TestLineMapRoundTrip(t *testing.T) {
	m := map[string][]uint32{
		"abc": {0, 2},
		"bcd": {0},
		"wof": {1, 3, 4},
	}
	blob := EncodeLineMap(m)
	got, err := DecodeLineMap(blob)
	if err != nil {
		t.Fatalf("DecodeLineMap: %v", err)
	}
	if !reflect.DeepEqual(got, m) {
		t.Errorf("decoded = %v, want %v", got, m)
	}
}

func TestLineMapDeterministic(t *testing.T) {
	m := map[string][]uint32{"xyz": {1}, "abc": {2}, "mno": {3}}
	a := EncodeLineMap(m)
	b := EncodeLineMap(m)
	if !bytes.Equal(a, b) {
		t.Error("equal maps encoded differently")
	}
}

func TestLineMapEmptyAndCorrupt(t *testing.T) {
	m, err := DecodeLineMap(nil)
	if err != nil || len(m) != 0 {
		t.Errorf("DecodeLineMap(nil) = %v, %v; want empty map", m, err)
	}

	blob := EncodeLineMap(map[string][]uint32{"abc": {1, 2}})
	if _, err := DecodeLineMap(blob[:len(blob)-3]); err == nil {
		t.Error("truncated blob decoded without error")
	}
}
