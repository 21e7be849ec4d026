// internal/storage/project_repo_test.go
package storage

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/MYMGG/storysmith-mvp/internal/models"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestProjectRepoRoundTrip(t *testing.T) {
	db := newTestDB(t)
	repo := &ProjectRepo{}
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Millisecond)
	p := models.Project{ID: "p1", Title: "First", CreatedAt: now, UpdatedAt: now}
	if err := repo.Create(ctx, db, p); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := repo.Get(ctx, db, "p1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != "First" || !got.CreatedAt.Equal(now) {
		t.Errorf("got %+v", got)
	}

	if _, err := repo.Get(ctx, db, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("get missing = %v, want ErrNotFound", err)
	}
}

func TestProjectRepoListOrder(t *testing.T) {
	db := newTestDB(t)
	repo := &ProjectRepo{}
	ctx := context.Background()

	base := time.Now().UTC()
	for i, id := range []string{"c", "a", "b"} {
		p := models.Project{
			ID: id, Title: id,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
			UpdatedAt: base.Add(time.Duration(i) * time.Second),
		}
		if err := repo.Create(ctx, db, p); err != nil {
			t.Fatalf("create %s: %v", id, err)
		}
	}

	projects, err := repo.List(ctx, db)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(projects) != 3 {
		t.Fatalf("count = %d", len(projects))
	}
	// Ordered by creation time, not id.
	if projects[0].ID != "c" || projects[2].ID != "b" {
		t.Errorf("order = %s,%s,%s", projects[0].ID, projects[1].ID, projects[2].ID)
	}
}

func TestProjectRepoUpdateAndDelete(t *testing.T) {
	db := newTestDB(t)
	repo := &ProjectRepo{}
	ctx := context.Background()

	now := time.Now().UTC()
	p := models.Project{ID: "p1", Title: "Old", CreatedAt: now, UpdatedAt: now}
	if err := repo.Create(ctx, db, p); err != nil {
		t.Fatalf("create: %v", err)
	}

	p.Title = "New"
	p.UpdatedAt = now.Add(time.Minute)
	if err := repo.Update(ctx, db, p); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ := repo.Get(ctx, db, "p1")
	if got.Title != "New" {
		t.Errorf("title = %q", got.Title)
	}

	if err := repo.Update(ctx, db, models.Project{ID: "missing", UpdatedAt: now}); !errors.Is(err, ErrNotFound) {
		t.Errorf("update missing = %v, want ErrNotFound", err)
	}

	if err := repo.Delete(ctx, db, "p1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.Get(ctx, db, "p1"); !errors.Is(err, ErrNotFound) {
		t.Error("project survived delete")
	}
	// Deleting twice is not an error.
	if err := repo.Delete(ctx, db, "p1"); err != nil {
		t.Errorf("second delete: %v", err)
	}
}

func TestStoryStateRepoUpsert(t *testing.T) {
	db := newTestDB(t)
	repo := &StoryStateRepo{}
	ctx := context.Background()

	if _, err := repo.Get(ctx, db, "p1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("get empty = %v, want ErrNotFound", err)
	}

	if err := repo.Put(ctx, db, "p1", []byte(`{"version":1}`)); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := repo.Put(ctx, db, "p1", []byte(`{"version":2}`)); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	raw, err := repo.Get(ctx, db, "p1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(raw) != `{"version":2}` {
		t.Errorf("raw = %s, want the upserted value", raw)
	}

	if err := repo.Delete(ctx, db, "p1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.Get(ctx, db, "p1"); !errors.Is(err, ErrNotFound) {
		t.Error("state survived delete")
	}
}

func TestSettingsRepo(t *testing.T) {
	db := newTestDB(t)
	repo := &SettingsRepo{}
	ctx := context.Background()

	if _, err := repo.Get(ctx, db, "k"); !errors.Is(err, ErrNotFound) {
		t.Errorf("get empty = %v, want ErrNotFound", err)
	}

	if err := repo.Put(ctx, db, "k", "v1"); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := repo.Put(ctx, db, "k", "v2"); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	v, err := repo.Get(ctx, db, "k")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if v != "v2" {
		t.Errorf("value = %q", v)
	}

	if err := repo.Delete(ctx, db, "k"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.Get(ctx, db, "k"); !errors.Is(err, ErrNotFound) {
		t.Error("setting survived delete")
	}
}
