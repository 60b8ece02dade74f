package history

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/sk-lang/sk/internal/errdef"
)

func TestStoreByFileFiltersAndSorts(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "history.json")
	store := NewStore(path, 10)

	fileA := filepath.Join(dir, "a.sk")
	fileB := filepath.Join(dir, "b.sk")

	t1 := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	t2 := t1.Add(2 * time.Minute)

	mustAppend(t, store, Entry{ID: "1", ExecutedAt: t1, Path: fileA})
	mustAppend(t, store, Entry{ID: "2", ExecutedAt: t2, Path: fileA})
	mustAppend(t, store, Entry{ID: "3", ExecutedAt: t1, Path: fileB})

	got := store.ByFile(filepath.Join(dir, ".", "a.sk"))
	if len(got) != 2 {
		t.Fatalf("expected 2 entries for file A, got %d", len(got))
	}
	if got[0].ID != "2" || got[1].ID != "1" {
		t.Fatalf("expected newest-first order, got %q then %q", got[0].ID, got[1].ID)
	}

	if len(store.ByFile("")) != 0 {
		t.Fatalf("expected empty result for blank path")
	}
}

func TestAppendAssignsIDAndTime(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "history.json"), 10)
	got, err := store.Append(Entry{Mode: ModeExpr, Source: "1 + 1"})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, err := uuid.Parse(got.ID); err != nil {
		t.Fatalf("expected uuid id, got %q: %v", got.ID, err)
	}
	if got.ExecutedAt.IsZero() {
		t.Fatalf("expected timestamp")
	}
	if e, ok := store.Get(got.ID); !ok || e.Source != "1 + 1" {
		t.Fatalf("expected entry lookup by id, got %+v %v", e, ok)
	}
}

func TestStorePersistsAndReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "history.json")
	store := NewStore(path, 10)
	mustAppend(t, store, Entry{ID: "a", Source: "var x = 1;", Result: "1", Type: "Int"})
	mustAppend(t, store, Entry{ID: "b", Source: "x / 0", Error: "boom", ErrorCode: "runtime"})

	reloaded := NewStore(path, 10)
	if err := reloaded.Load(); err != nil {
		t.Fatalf("load: %v", err)
	}
	entries := reloaded.Entries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if fails := reloaded.Failures(); len(fails) != 1 || fails[0].ID != "b" {
		t.Fatalf("expected one failure b, got %+v", fails)
	}
}

func TestStoreTrimsToMax(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "history.json"), 2)
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		mustAppend(t, store, Entry{ID: id, ExecutedAt: base.Add(time.Duration(i) * time.Second)})
	}
	entries := store.Entries()
	if len(entries) != 2 || entries[0].ID != "c" || entries[1].ID != "b" {
		t.Fatalf("expected [c b], got %+v", entries)
	}
}

func TestStoreDeleteAndClear(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "history.json"), 10)
	mustAppend(t, store, Entry{ID: "a"})
	mustAppend(t, store, Entry{ID: "b"})

	ok, err := store.Delete("a")
	if err != nil || !ok {
		t.Fatalf("expected delete to succeed, got %v %v", ok, err)
	}
	ok, err = store.Delete("missing")
	if err != nil || ok {
		t.Fatalf("expected missing delete to report false, got %v %v", ok, err)
	}
	if err := store.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if len(store.Entries()) != 0 {
		t.Fatalf("expected empty store")
	}
}

func TestSourcesDedupesOldestFirst(t *testing.T) {
	store := NewStore("", 10)
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	srcs := []string{"a", "b", "a", "c"}
	for i, src := range srcs {
		mustAppend(t, store, Entry{
			ExecutedAt: base.Add(time.Duration(i) * time.Second),
			Mode:       ModeREPL,
			Source:     src,
		})
	}
	mustAppend(t, store, Entry{ExecutedAt: base.Add(time.Minute), Mode: ModeFile, Source: "d"})

	got := store.Sources(ModeREPL)
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestLoadRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	if err := os.WriteFile(path, []byte("{nope"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	err := NewStore(path, 10).Load()
	if err == nil {
		t.Fatalf("expected parse error")
	}
	if errdef.CodeOf(err) != errdef.CodeHistory {
		t.Fatalf("expected history code, got %q", errdef.CodeOf(err))
	}
}

func mustAppend(t *testing.T, s *Store, e Entry) Entry {
	t.Helper()
	got, err := s.Append(e)
	if err != nil {
		t.Fatalf("append %q: %v", e.ID, err)
	}
	return got
}
