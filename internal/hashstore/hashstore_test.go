package hashstore

import (
	"bytes"
	"errors"
	"reflect"
	"testing"

	"github.com/dna2zodiac/matchbox/internal/common"
)

const testHash = "0123456789abcdef0123456789abcdef"

func TestCreateAndGet(t *testing.T) {
	s := New(t.TempDir())
	if s.Has(testHash) {
		t.Fatal("Has = true before Create")
	}
	if err := s.Create(testHash, 42, "doc://a"); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !s.Has(testHash) {
		t.Error("Has = false after Create")
	}

	id, err := s.GetID(testHash)
	if err != nil {
		t.Fatalf("GetID: %v", err)
	}
	if id != 42 {
		t.Errorf("GetID = %d, want 42", id)
	}

	urls, err := s.GetURLs(testHash)
	if err != nil {
		t.Fatalf("GetURLs: %v", err)
	}
	if !reflect.DeepEqual(urls, []string{"doc://a"}) {
		t.Errorf("GetURLs = %v", urls)
	}
}

func TestCreateTwiceFails(t *testing.T) {
	s := New(t.TempDir())
	if err := s.Create(testHash, 1, ""); err != nil {
		t.Fatal(err)
	}
	if err := s.Create(testHash, 2, ""); !errors.Is(err, common.ErrAlreadyExists) {
		t.Errorf("second Create err = %v, want ErrAlreadyExists", err)
	}
}

func TestCreateWithoutURL(t *testing.T) {
	s := New(t.TempDir())
	if err := s.Create(testHash, 1, ""); err != nil {
		t.Fatal(err)
	}
	urls, err := s.GetURLs(testHash)
	if err != nil {
		t.Fatal(err)
	}
	if len(urls) != 0 {
		t.Errorf("GetURLs = %v, want empty", urls)
	}
}

func TestAddURL(t *testing.T) {
	s := New(t.TempDir())
	if _, err := s.AddURL(testHash, "doc://x"); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("AddURL on absent record err = %v, want ErrNotFound", err)
	}

	if err := s.Create(testHash, 1, "doc://a"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.AddURL(testHash, "doc://b"); err != nil {
		t.Fatal(err)
	}
	// Repeats are suppressed.
	if _, err := s.AddURL(testHash, "doc://a"); err != nil {
		t.Fatal(err)
	}
	urls, _ := s.GetURLs(testHash)
	if !reflect.DeepEqual(urls, []string{"doc://a", "doc://b"}) {
		t.Errorf("GetURLs = %v, want [doc://a doc://b]", urls)
	}
}

func TestRemoveURL(t *testing.T) {
	s := New(t.TempDir())
	if _, err := s.RemoveURL(testHash, "doc://a"); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("RemoveURL on absent record err = %v, want ErrNotFound", err)
	}

	if err := s.Create(testHash, 1, "doc://a"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.AddURL(testHash, "doc://b"); err != nil {
		t.Fatal(err)
	}
	urls, err := s.RemoveURL(testHash, "doc://a")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(urls, []string{"doc://b"}) {
		t.Errorf("RemoveURL left %v, want [doc://b]", urls)
	}
	// Removing an absent url is a no-op.
	if _, err := s.RemoveURL(testHash, "doc://zzz"); err != nil {
		t.Errorf("RemoveURL of absent url: %v", err)
	}
}

func TestGetURLsAbsentIsEmpty(t *testing.T) {
	s := New(t.TempDir())
	urls, err := s.GetURLs(testHash)
	if err != nil {
		t.Fatalf("GetURLs: %v", err)
	}
	if len(urls) != 0 {
		t.Errorf("GetURLs = %v, want empty", urls)
	}
}

func TestAttributes(t *testing.T) {
	s := New(t.TempDir())
	if err := s.Create(testHash, 1, ""); err != nil {
		t.Fatal(err)
	}

	blob := []byte{0x01, 0x02, 0x00, 0x03}
	ok, err := s.SetAttribute(testHash, "_linemap", blob)
	if err != nil || !ok {
		t.Fatalf("SetAttribute = %v, %v", ok, err)
	}
	got, err := s.GetAttribute(testHash, "_linemap")
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, blob) {
		t.Errorf("GetAttribute = %v, want %v", got, blob)
	}

	// nil deletes the key.
	if _, err := s.SetAttribute(testHash, "_linemap", nil); err != nil {
		t.Fatal(err)
	}
	got, err = s.GetAttribute(testHash, "_linemap")
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Errorf("GetAttribute after delete = %v, want nil", got)
	}
}

func TestAttributesReservedKeys(t *testing.T) {
	s := New(t.TempDir())
	if err := s.Create(testHash, 1, ""); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"id", "url"} {
		if _, err := s.SetAttribute(testHash, key, []byte("x")); !errors.Is(err, common.ErrReservedAttribute) {
			t.Errorf("SetAttribute(%q) err = %v, want ErrReservedAttribute", key, err)
		}
		if _, err := s.GetAttribute(testHash, key); !errors.Is(err, common.ErrReservedAttribute) {
			t.Errorf("GetAttribute(%q) err = %v, want ErrReservedAttribute", key, err)
		}
	}
}

func TestSetAttributeAbsentRecord(t *testing.T) {
	s := New(t.TempDir())
	ok, err := s.SetAttribute(testHash, "_linemap", []byte("x"))
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("SetAttribute on absent record reported success")
	}
}
