package session_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sabaimran/vox-locus/pkg/jsontime"
	"github.com/sabaimran/vox-locus/pkg/kv"
	"github.com/sabaimran/vox-locus/pkg/session"
)

func newTestCatalog(t *testing.T) *session.Catalog {
	t.Helper()
	store := kv.NewMemory()
	t.Cleanup(func() { store.Close() })
	return session.NewCatalog(store)
}

func manifestAt(id string, at time.Time) session.Manifest {
	return session.Manifest{
		ID:        id,
		StartedAt: at.UnixNano(),
		Duration:  jsontime.Duration(42 * time.Second),
		Chunks:    9,
		Frames:    138240,
		Engine:    "whisper/base",
		Dir:       "/tmp/transcriptions_20250815_101530",
		FullText:  "it all worked",
	}
}

func TestCatalogPutGet(t *testing.T) {
	ctx := context.Background()
	cat := newTestCatalog(t)

	want := manifestAt("ses_abc123def456", time.Date(2025, 8, 15, 10, 15, 30, 0, time.UTC))
	if err := cat.Put(ctx, want); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := cat.Get(ctx, want.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if *got != want {
		t.Errorf("Get = %+v, want %+v", *got, want)
	}

	if _, err := cat.Get(ctx, "ses_missing"); !errors.Is(err, kv.ErrNotFound) {
		t.Errorf("Get missing = %v, want kv.ErrNotFound", err)
	}
}

func TestCatalogPutFillsDefaults(t *testing.T) {
	ctx := context.Background()
	cat := newTestCatalog(t)

	if err := cat.Put(ctx, session.Manifest{Engine: "whisper/tiny"}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := cat.Recent(ctx, 1)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("Recent = %d manifests, want 1", len(got))
	}
	if !strings.HasPrefix(got[0].ID, "ses_") {
		t.Errorf("generated ID = %q, want ses_ prefix", got[0].ID)
	}
	if got[0].StartedAt == 0 {
		t.Error("StartedAt not filled in")
	}
}

func TestCatalogRecent(t *testing.T) {
	ctx := context.Background()
	cat := newTestCatalog(t)

	base := time.Date(2025, 8, 14, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		m := manifestAt("ses_"+strings.Repeat("abc"[i:i+1], 3), base.Add(time.Duration(i)*time.Hour))
		if err := cat.Put(ctx, m); err != nil {
			t.Fatalf("Put %d: %v", i, err)
		}
	}

	got, err := cat.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Recent = %d manifests, want 2", len(got))
	}
	if got[0].ID != "ses_ccc" || got[1].ID != "ses_bbb" {
		t.Errorf("Recent order = [%s %s], want newest first [ses_ccc ses_bbb]", got[0].ID, got[1].ID)
	}

	if none, err := cat.Recent(ctx, 0); err != nil || none != nil {
		t.Errorf("Recent(0) = %v, %v, want nil, nil", none, err)
	}
}

func TestCatalogDelete(t *testing.T) {
	ctx := context.Background()
	cat := newTestCatalog(t)

	m := manifestAt("ses_gone", time.Date(2025, 8, 15, 12, 0, 0, 0, time.UTC))
	if err := cat.Put(ctx, m); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := cat.Delete(ctx, "ses_gone"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := cat.Get(ctx, "ses_gone"); !errors.Is(err, kv.ErrNotFound) {
		t.Errorf("Get after delete = %v, want kv.ErrNotFound", err)
	}
	if err := cat.Delete(ctx, "ses_gone"); !errors.Is(err, kv.ErrNotFound) {
		t.Errorf("Delete missing = %v, want kv.ErrNotFound", err)
	}
}

func TestCatalogPrune(t *testing.T) {
	ctx := context.Background()
	cat := newTestCatalog(t)

	base := time.Date(2025, 8, 10, 8, 0, 0, 0, time.UTC)
	ids := []string{"ses_0", "ses_1", "ses_2", "ses_3", "ses_4"}
	for i, id := range ids {
		if err := cat.Put(ctx, manifestAt(id, base.AddDate(0, 0, i))); err != nil {
			t.Fatalf("Put %s: %v", id, err)
		}
	}

	removed, err := cat.Prune(ctx, 2)
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if removed != 3 {
		t.Errorf("Prune removed %d, want 3", removed)
	}

	left, err := cat.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(left) != 2 || left[0].ID != "ses_4" || left[1].ID != "ses_3" {
		t.Errorf("survivors = %+v, want the two newest", left)
	}

	// Pruning below the floor is a no-op.
	if removed, err := cat.Prune(ctx, 10); err != nil || removed != 0 {
		t.Errorf("Prune(10) = %d, %v, want 0, nil", removed, err)
	}
}

func TestNewID(t *testing.T) {
	a, b := session.NewID(), session.NewID()
	if !strings.HasPrefix(a, "ses_") {
		t.Errorf("NewID = %q, want ses_ prefix", a)
	}
	if len(a) != len("ses_")+12 {
		t.Errorf("NewID length = %d, want %d", len(a), len("ses_")+12)
	}
	if a == b {
		t.Errorf("two IDs collided: %q", a)
	}
}
