package kvstore

import (
	"context"
	"path/filepath"
	"testing"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"changectl/internal/infrastructure/persistence/sqlite/model"
)

func setupKV(t *testing.T) *SQLiteKV {
	t.Helper()

	db, err := gorm.Open(gormsqlite.Open(filepath.Join(t.TempDir(), "kv.sqlite")), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&model.SyncKV{}); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	return NewSQLiteKV(db)
}

func TestKVSetGetOverwriteDelete(t *testing.T) {
	kv := setupKV(t)
	ctx := context.Background()

	if _, found, err := kv.Get(ctx, "remote_item:REQ-1"); err != nil || found {
		t.Fatalf("Get(missing) = found=%v err=%v", found, err)
	}

	if err := kv.Set(ctx, "remote_item:REQ-1", "41", 0); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	value, found, err := kv.Get(ctx, "remote_item:REQ-1")
	if err != nil || !found || value != "41" {
		t.Fatalf("Get() = %q found=%v err=%v", value, found, err)
	}

	if err := kv.Set(ctx, "remote_item:REQ-1", "42", 0); err != nil {
		t.Fatalf("Set(overwrite) error = %v", err)
	}
	value, _, err = kv.Get(ctx, "remote_item:REQ-1")
	if err != nil || value != "42" {
		t.Fatalf("Get(after overwrite) = %q err=%v", value, err)
	}

	if err := kv.Delete(ctx, "remote_item:REQ-1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, found, _ := kv.Get(ctx, "remote_item:REQ-1"); found {
		t.Fatalf("key still present after delete")
	}
}

func TestKVRejectsBlankKey(t *testing.T) {
	kv := setupKV(t)
	ctx := context.Background()

	if err := kv.Set(ctx, "  ", "x", 0); err == nil {
		t.Fatalf("Set(blank key) accepted")
	}
	if _, _, err := kv.Get(ctx, ""); err == nil {
		t.Fatalf("Get(blank key) accepted")
	}
	if err := kv.Delete(ctx, ""); err == nil {
		t.Fatalf("Delete(blank key) accepted")
	}
}
