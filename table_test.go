package mediatype

import (
	"context"
	"fmt"
	"testing"
)

// namedThunk returns a thunk whose result identifies the registration, so
// tests can tell which entry a probe found.
func namedThunk(id string) thunk {
	return func(ctx context.Context, content []byte) ([]byte, error) {
		return []byte(id), nil
	}
}

func thunkID(t *testing.T, fn thunk) string {
	t.Helper()
	res, err := fn(context.Background(), nil)
	if err != nil {
		t.Fatalf("thunk error: %v", err)
	}
	return string(res)
}

func TestTableInsert(t *testing.T) {
	t.Run("stores and finds a key", func(t *testing.T) {
		var tb table
		if !tb.insert("application/json", namedThunk("json")) {
			t.Fatal("insert refused a fresh key")
		}
		fn, ok := lookup(&tb, "application/json")
		if !ok {
			t.Fatal("lookup missed an inserted key")
		}
		if got := thunkID(t, fn); got != "json" {
			t.Errorf("found %q, want %q", got, "json")
		}
	})

	t.Run("first writer wins", func(t *testing.T) {
		var tb table
		if !tb.insert("application/json", namedThunk("first")) {
			t.Fatal("first insert refused")
		}
		if tb.insert("application/json", namedThunk("second")) {
			t.Error("second insert for the same key should report false")
		}
		fn, _ := lookup(&tb, "application/json")
		if got := thunkID(t, fn); got != "first" {
			t.Errorf("found %q, want the first registration", got)
		}
	})

	t.Run("colliding keys both stored", func(t *testing.T) {
		// "a" and {0x61, 0x01, 0x00, 0x00} hash to the same value.
		collider := string([]byte{0x61, 0x01, 0x00, 0x00})

		var tb table
		if !tb.insert("a", namedThunk("short")) {
			t.Fatal("insert refused key a")
		}
		if !tb.insert(collider, namedThunk("long")) {
			t.Fatal("insert refused the colliding key")
		}

		fn, ok := lookup(&tb, "a")
		if !ok || thunkID(t, fn) != "short" {
			t.Error("collision displaced key a")
		}
		fn, ok = lookup(&tb, []byte(collider))
		if !ok || thunkID(t, fn) != "long" {
			t.Error("probe chain did not reach the colliding key")
		}
	})

	t.Run("grows past the initial size", func(t *testing.T) {
		var tb table
		const n = 100
		for i := 0; i < n; i++ {
			key := fmt.Sprintf("application/vnd.t%03d+json", i)
			if !tb.insert(key, namedThunk(key)) {
				t.Fatalf("insert refused %q", key)
			}
		}
		for i := 0; i < n; i++ {
			key := fmt.Sprintf("application/vnd.t%03d+json", i)
			fn, ok := lookup(&tb, key)
			if !ok {
				t.Fatalf("lookup missed %q after growth", key)
			}
			if got := thunkID(t, fn); got != key {
				t.Errorf("found %q, want %q", got, key)
			}
		}
		if got := len(tb.keys()); got != n {
			t.Errorf("keys() returned %d entries, want %d", got, n)
		}
	})
}

func TestTableLookup(t *testing.T) {
	t.Run("empty table misses", func(t *testing.T) {
		var tb table
		if _, ok := lookup(&tb, "application/json"); ok {
			t.Error("lookup on an empty table should miss")
		}
	})

	t.Run("string and byte views find the same entry", func(t *testing.T) {
		var tb table
		tb.insert("application/vnd.pix+json", namedThunk("pix"))

		byStr, ok := lookup(&tb, "application/vnd.pix+json")
		if !ok {
			t.Fatal("string lookup missed")
		}
		byView, ok := lookup(&tb, []byte("application/vnd.pix+json"))
		if !ok {
			t.Fatal("byte view lookup missed")
		}
		if thunkID(t, byStr) != thunkID(t, byView) {
			t.Error("spellings resolved to different entries")
		}
	})

	t.Run("misses unknown keys in an occupied table", func(t *testing.T) {
		var tb table
		tb.insert("a", namedThunk("short"))
		tb.insert(string([]byte{0x61, 0x01, 0x00, 0x00}), namedThunk("long"))

		if _, ok := lookup(&tb, "b"); ok {
			t.Error("lookup found a key that was never inserted")
		}
	})
}

func TestTableLookupAllocations(t *testing.T) {
	var tb table
	for i := 0; i < 20; i++ {
		tb.insert(fmt.Sprintf("application/vnd.t%02d+json", i), namedThunk("x"))
	}

	var hit, missed bool
	view := []byte("application/vnd.t07+json")
	if n := testing.AllocsPerRun(100, func() {
		_, hit = lookup(&tb, view)
	}); n != 0 {
		t.Errorf("borrowed view lookup allocations = %v, want 0", n)
	}
	if !hit {
		t.Error("lookup missed a registered key")
	}

	miss := []byte("application/vnd.none+json")
	if n := testing.AllocsPerRun(100, func() {
		_, missed = lookup(&tb, miss)
	}); n != 0 {
		t.Errorf("missing key lookup allocations = %v, want 0", n)
	}
	if missed {
		t.Error("lookup found a key that was never inserted")
	}
}
