package matchbox

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/dna2zodiac/matchbox/internal/common"
)

func TestRegistryShardIsolation(t *testing.T) {
	r := NewRegistry(t.TempDir(), nil)
	defer r.Close()
	ctx := context.Background()

	if _, err := r.Index(ctx, "alpha", "u1", "needle in alpha"); err != nil {
		t.Fatalf("Index alpha: %v", err)
	}
	if _, err := r.Index(ctx, "beta", "u2", "needle in beta"); err != nil {
		t.Fatalf("Index beta: %v", err)
	}

	urls, err := r.Search(ctx, "alpha", "needle", nil)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(urls, []string{"u1"}) {
		t.Errorf("alpha search = %v, want [u1]", urls)
	}

	urls, err = r.Search(ctx, "beta", "needle", nil)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(urls, []string{"u2"}) {
		t.Errorf("beta search = %v, want [u2]", urls)
	}

	// Each shard has its own id space.
	id, err := r.Index(ctx, "beta", "u3", "another beta document")
	if err != nil {
		t.Fatal(err)
	}
	if id != 2 {
		t.Errorf("beta second id = %d, want 2", id)
	}
}

func TestRegistryInvalidShardNames(t *testing.T) {
	r := NewRegistry(t.TempDir(), nil)
	defer r.Close()
	ctx := context.Background()

	for _, name := range []string{"", ".", "..", "a/b", `a\b`, "../escape"} {
		if _, err := r.Index(ctx, name, "u", "some text"); !errors.Is(err, common.ErrInvalidShard) {
			t.Errorf("Index(%q) err = %v, want ErrInvalidShard", name, err)
		}
		if _, err := r.Search(ctx, name, "some", nil); !errors.Is(err, common.ErrInvalidShard) {
			t.Errorf("Search(%q) err = %v, want ErrInvalidShard", name, err)
		}
	}
}

func TestRegistryReusesEngine(t *testing.T) {
	r := NewRegistry(t.TempDir(), nil)
	defer r.Close()

	a, err := r.Engine("alpha")
	if err != nil {
		t.Fatal(err)
	}
	b, err := r.Engine("alpha")
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Error("second Engine call returned a different instance")
	}
}

func TestRegistryCloseIsTerminal(t *testing.T) {
	r := NewRegistry(t.TempDir(), nil)
	ctx := context.Background()
	e, err := r.Engine("alpha")
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := e.Index(ctx, "u", "some text here"); !errors.Is(err, common.ErrClosed) {
		t.Errorf("Index on closed engine err = %v, want ErrClosed", err)
	}
}
