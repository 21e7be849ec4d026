// internal/storage/file_store_test.go
package storage

import (
	"os"
	"testing"
)

func TestFileStoreSaveLoadDelete(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	type doc struct {
		Name string `json:"name"`
	}

	if err := store.SaveJSON("prefs/book1.json", doc{Name: "a"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if !store.Exists("prefs/book1.json") {
		t.Error("saved document not found")
	}

	var got doc
	if err := store.LoadJSON("prefs/book1.json", &got); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Name != "a" {
		t.Errorf("got %+v", got)
	}

	// Missing documents surface os.IsNotExist so callers can default.
	err = store.LoadJSON("prefs/missing.json", &got)
	if err == nil || !os.IsNotExist(err) {
		t.Errorf("load missing = %v, want not-exist", err)
	}

	if err := store.Delete("prefs/book1.json"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if store.Exists("prefs/book1.json") {
		t.Error("document survived delete")
	}
	if err := store.Delete("prefs/book1.json"); err != nil {
		t.Errorf("second delete: %v", err)
	}
}

func TestFileStoreRejectsEscapingKeys(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	for _, key := range []string{"../outside.json", "/abs.json", "."} {
		if err := store.SaveRaw(key, []byte("x")); err == nil {
			t.Errorf("key %q accepted", key)
		}
	}
}

func TestFileStoreList(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	names, err := store.List("exports")
	if err != nil {
		t.Fatalf("list empty: %v", err)
	}
	if names != nil {
		t.Errorf("names = %v, want nil for missing dir", names)
	}

	store.SaveRaw("exports/b.json", []byte("{}"))
	store.SaveRaw("exports/a.json", []byte("{}"))

	names, err = store.List("exports")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(names) != 2 || names[0] != "a.json" || names[1] != "b.json" {
		t.Errorf("names = %v, want sorted", names)
	}
}
