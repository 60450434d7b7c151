// SPDX-License-Identifier: MPL-2.0

package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), ".sagemake", "history.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("init schema: %v", err)
	}
	return store
}

func TestStore_AppendAndRecent(t *testing.T) {
	t.Parallel()
	store := openStore(t)
	ctx := context.Background()

	records := []Record{
		{Task: "install", Branch: "feature-x", ExitStatus: 0, StartedAt: time.Now(), Duration: time.Second},
		{Task: "test", Branch: "feature-x", Plan: "file subset (2 files)", ExitStatus: 1, StartedAt: time.Now(), Duration: 2 * time.Second},
	}
	for _, rec := range records {
		if err := store.Append(ctx, rec); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	recent, err := store.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recent))
	}
	if recent[0].Task != "test" {
		t.Errorf("expected newest first, got %q", recent[0].Task)
	}
	if recent[0].ExitStatus != 1 {
		t.Errorf("exit status not preserved: %d", recent[0].ExitStatus)
	}
	if recent[1].Duration != time.Second {
		t.Errorf("duration not preserved: %v", recent[1].Duration)
	}
}

func TestStore_InitIdempotent(t *testing.T) {
	t.Parallel()
	store := openStore(t)
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("second init: %v", err)
	}
}

func TestStore_RecentLimit(t *testing.T) {
	t.Parallel()
	store := openStore(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		if err := store.Append(ctx, Record{Task: "clean", StartedAt: time.Now()}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	recent, err := store.Recent(ctx, 3)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 3 {
		t.Errorf("expected 3 records, got %d", len(recent))
	}
}
