package layout

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/dna2zodiac/matchbox/internal/common"
)

func TestTrigramPath(t *testing.T) {
	cases := []struct {
		trigram string
		want    string
	}{
		{"abc", filepath.Join("0", "97", "98", "99")},
		{"Abc", filepath.Join("0", "65", "98", "99")},
		{"won", filepath.Join("0", "119", "111", "110")},
		{"世界!", filepath.Join("19", "19990", "30028", "33")},
	}
	for _, c := range cases {
		got, err := TrigramPath(c.trigram)
		if err != nil {
			t.Errorf("TrigramPath(%q): %v", c.trigram, err)
			continue
		}
		if got != c.want {
			t.Errorf("TrigramPath(%q) = %q, want %q", c.trigram, got, c.want)
		}
	}
}

func TestTrigramPathInvalid(t *testing.T) {
	for _, bad := range []string{"", "ab", "abcd"} {
		if _, err := TrigramPath(bad); !errors.Is(err, common.ErrInvalidInput) {
			t.Errorf("TrigramPath(%q) err = %v, want ErrInvalidInput", bad, err)
		}
	}
	// "ab" plus a multi-byte rune is still exactly 3 runes.
	if _, err := TrigramPath("abé"); err != nil {
		t.Errorf("TrigramPath(3 runes, 4 bytes): %v", err)
	}
}

func TestTrigramPathCasePreserving(t *testing.T) {
	lower, _ := TrigramPath("wor")
	upper, _ := TrigramPath("Wor")
	if lower == upper {
		t.Error("case variants map to the same path")
	}
}

func TestIDPath(t *testing.T) {
	cases := []struct {
		id   uint32
		want string
	}{
		{1, filepath.Join("1", "0", "0", "0.json")},
		{99, filepath.Join("99", "0", "0", "0.json")},
		{100, filepath.Join("100", "0", "0", "1.json")},
		{123456789, filepath.Join("277", "1", "2345", "67.json")},
	}
	for _, c := range cases {
		got, err := IDPath(c.id)
		if err != nil {
			t.Errorf("IDPath(%d): %v", c.id, err)
			continue
		}
		if got != c.want {
			t.Errorf("IDPath(%d) = %q, want %q", c.id, got, c.want)
		}
	}

	if _, err := IDPath(0); !errors.Is(err, common.ErrInvalidInput) {
		t.Errorf("IDPath(0) err = %v, want ErrInvalidInput", err)
	}
}

func TestHashPath(t *testing.T) {
	got, err := HashPath("abcdefgh")
	if err != nil {
		t.Fatalf("HashPath: %v", err)
	}
	want := filepath.Join("abcd", "efgh", "abcdefgh")
	if got != want {
		t.Errorf("HashPath = %q, want %q", got, want)
	}

	if _, err := HashPath(""); !errors.Is(err, common.ErrInvalidInput) {
		t.Errorf("HashPath(\"\") err = %v, want ErrInvalidInput", err)
	}
}

func TestDeterminism(t *testing.T) {
	for i := 0; i < 3; i++ {
		a, _ := TrigramPath("xyz")
		b, _ := TrigramPath("xyz")
		if a != b {
			t.Fatal("TrigramPath is not deterministic")
		}
	}
}

func TestTrigramPathNoCollisions(t *testing.T) {
	alphabet := []rune{'a', 'b', 'Z', '0', ' ', '?', 'é'}
	seen := make(map[string]string)
	for _, x := range alphabet {
		for _, y := range alphabet {
			for _, z := range alphabet {
				tri := string([]rune{x, y, z})
				p, err := TrigramPath(tri)
				if err != nil {
					t.Fatalf("TrigramPath(%q): %v", tri, err)
				}
				if prev, ok := seen[p]; ok {
					t.Fatalf("collision: %q and %q both map to %q", prev, tri, p)
				}
				seen[p] = tri
			}
		}
	}
}
