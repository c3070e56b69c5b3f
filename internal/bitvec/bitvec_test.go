package bitvec

import (
	"reflect"
	"testing"
)

func TestSetTestRemove(t *testing.T) {
	s := New(64)
	ids := []uint32{1, 2, 8, 9, 63, 64}
	for _, id := range ids {
		s.Add(id)
	}
	for _, id := range ids {
		if !s.Test(id) {
			t.Errorf("Test(%d) = false after Add", id)
		}
	}
	for _, id := range []uint32{3, 7, 10, 62} {
		if s.Test(id) {
			t.Errorf("Test(%d) = true, never added", id)
		}
	}

	s.Remove(9)
	if s.Test(9) {
		t.Error("Test(9) = true after Remove")
	}
	// Neighbors in the same byte are unaffected.
	if !s.Test(8) {
		t.Error("Remove(9) cleared bit 8")
	}
}

func TestZeroIsNotAValidID(t *testing.T) {
	s := New(8)
	s.Add(0)
	if !s.IsEmpty() {
		t.Error("Add(0) set a bit")
	}
	if s.Test(0) {
		t.Error("Test(0) = true")
	}
}

func TestIsEmptyAndCount(t *testing.T) {
	s := New(100)
	if !s.IsEmpty() {
		t.Error("new set is not empty")
	}
	s.Add(42)
	s.Add(99)
	if s.IsEmpty() {
		t.Error("set with bits reports empty")
	}
	if got := s.Count(); got != 2 {
		t.Errorf("Count() = %d, want 2", got)
	}
}

func TestAndDifferentLengths(t *testing.T) {
	long := New(1000)
	long.Add(5)
	long.Add(900)
	short := New(8)
	short.Add(5)

	// The shorter operand is zero-extended: id 900 must drop out
	// without touching out-of-range memory.
	long.And(short)
	if !long.Test(5) {
		t.Error("And dropped common id 5")
	}
	if long.Test(900) {
		t.Error("And kept id 900 absent from the short operand")
	}

	short2 := New(8)
	short2.Add(5)
	other := New(1000)
	other.Add(5)
	other.Add(900)
	short2.And(other)
	if !short2.Test(5) {
		t.Error("short.And(long) dropped id 5")
	}
	if short2.Test(900) {
		t.Error("short.And(long) gained out-of-range id 900")
	}
}

func TestOrGrows(t *testing.T) {
	short := New(8)
	short.Add(3)
	long := New(1000)
	long.Add(900)

	short.Or(long)
	if !short.Test(3) || !short.Test(900) {
		t.Error("Or lost ids when growing")
	}
}

func TestClone(t *testing.T) {
	s := New(16)
	s.Add(7)
	c := s.Clone()
	c.Add(8)
	if s.Test(8) {
		t.Error("mutating clone changed original")
	}
	if !c.Test(7) {
		t.Error("clone lost original bit")
	}
}

func TestForEachAscendingAndEarlyStop(t *testing.T) {
	s := New(64)
	want := []uint32{2, 3, 17, 40, 41}
	for _, id := range want {
		s.Add(id)
	}

	var got []uint32
	s.ForEach(func(id uint32) bool {
		got = append(got, id)
		return false
	})
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ForEach order = %v, want %v", got, want)
	}

	// Stopping after id 17 must suppress every later callback.
	got = got[:0]
	s.ForEach(func(id uint32) bool {
		got = append(got, id)
		return id >= 17
	})
	if !reflect.DeepEqual(got, []uint32{2, 3, 17}) {
		t.Errorf("early-stop enumeration = %v, want [2 3 17]", got)
	}
}
