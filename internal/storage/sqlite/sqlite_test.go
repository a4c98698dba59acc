package sqlite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/starford/articles/internal/apperr"
	"github.com/starford/articles/internal/models"
	"github.com/starford/articles/internal/storage"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "articles-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM articles`).Scan(&count); err != nil {
		t.Fatalf("articles table missing: %v", err)
	}
}

func TestDSNWithParams(t *testing.T) {
	if got := dsnWithParams("articles.db"); got != "articles.db?"+connParams {
		t.Errorf("plain path = %q", got)
	}
	if got := dsnWithParams("file:articles.db?cache=shared"); got != "file:articles.db?cache=shared&"+connParams {
		t.Errorf("uri with query = %q", got)
	}
}

func TestOpenURIWithQuery(t *testing.T) {
	path := filepath.Join(t.TempDir(), "articles.db")
	db, err := Open("file:" + path + "?cache=shared")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	var mode string
	if err := db.conn.QueryRow(`PRAGMA journal_mode`).Scan(&mode); err != nil {
		t.Fatal(err)
	}
	if !strings.EqualFold(mode, "wal") {
		t.Errorf("journal_mode = %q, want wal", mode)
	}
	a := &models.Article{PublicID: "p1", Title: "Title", Description: "Description"}
	if err := db.Insert(context.Background(), a); err != nil {
		t.Fatalf("Insert: %v", err)
	}
}

func TestInsertAndFind(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	a := &models.Article{PublicID: "p-1", Title: "Hello", Description: "Hello world body"}
	if err := db.Insert(ctx, a); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if a.ID == 0 {
		t.Error("Insert did not assign an id")
	}
	if a.CreatedAt.IsZero() {
		t.Error("Insert did not assign created_at")
	}

	got, err := db.FindByPublicID(ctx, "p-1")
	if err != nil {
		t.Fatalf("FindByPublicID: %v", err)
	}
	if got.ID != a.ID || got.Title != "Hello" || got.Description != "Hello world body" || got.IsPublished {
		t.Errorf("got %+v", got)
	}
}

func TestFindMissing(t *testing.T) {
	db := testDB(t)
	_, err := db.FindByPublicID(context.Background(), "nope")
	if !errors.Is(err, storage.ErrNoRecord) {
		t.Errorf("err = %v, want ErrNoRecord", err)
	}
}

func TestInsertDuplicatePublicID(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	if err := db.Insert(ctx, &models.Article{PublicID: "dup", Title: "a", Description: "b"}); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	err := db.Insert(ctx, &models.Article{PublicID: "dup", Title: "c", Description: "d"})
	if !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("err = %v, want ErrConflict", err)
	}
}

func TestDeleteAndList(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		if err := db.Insert(ctx, &models.Article{PublicID: id, Title: id, Description: id}); err != nil {
			t.Fatalf("Insert %s: %v", id, err)
		}
	}
	b, err := db.FindByPublicID(ctx, "b")
	if err != nil {
		t.Fatal(err)
	}
	if err := db.Delete(ctx, b); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := db.Delete(ctx, b); !errors.Is(err, storage.ErrNoRecord) {
		t.Errorf("second Delete err = %v, want ErrNoRecord", err)
	}

	list, err := db.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 || list[0].PublicID != "a" || list[1].PublicID != "c" {
		t.Errorf("list = %+v", list)
	}
}

func TestListEmpty(t *testing.T) {
	db := testDB(t)
	list, err := db.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if list == nil || len(list) != 0 {
		t.Errorf("list = %#v, want empty non-nil", list)
	}
}

func TestWithinTxRollback(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := db.WithinTx(ctx, func(r storage.Repository) error {
		if err := r.Insert(ctx, &models.Article{PublicID: "tx", Title: "t", Description: "d"}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("WithinTx err = %v", err)
	}
	if _, err := db.FindByPublicID(ctx, "tx"); !errors.Is(err, storage.ErrNoRecord) {
		t.Errorf("rolled back insert is visible: %v", err)
	}
}

func TestStoreErrorAfterClose(t *testing.T) {
	db := testDB(t)
	db.Close()
	_, err := db.List(context.Background())
	if !errors.Is(err, apperr.ErrStore) {
		t.Errorf("err = %v, want ErrStore", err)
	}
}
