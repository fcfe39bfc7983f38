package commands

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/sabaimran/vox-locus/pkg/jsontime"
	"github.com/sabaimran/vox-locus/pkg/session"
)

func seedSession(t *testing.T, m session.Manifest) {
	t.Helper()
	cat, store, err := openCatalog()
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	if err := cat.Put(context.Background(), m); err != nil {
		t.Fatal(err)
	}
}

func TestSessionsListEmpty(t *testing.T) {
	_, cleanup := setupTestEnv(t)
	defer cleanup()

	stdout, _, code := runCmd(t, "sessions", "list")
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if !strings.Contains(stdout, "No sessions recorded") {
		t.Fatalf("expected 'No sessions recorded', got: %s", stdout)
	}
}

func TestSessionsListAndShow(t *testing.T) {
	_, cleanup := setupTestEnv(t)
	defer cleanup()

	seedSession(t, session.Manifest{
		ID:        "ses_cafe00000001",
		StartedAt: time.Now().UnixNano(),
		Duration:  jsontime.Duration(42 * time.Second),
		Chunks:    9,
		Frames:    656,
		Engine:    "whisper/base",
		Dir:       "transcriptions_20250102_030405",
		FullText:  "hello from the seeded session",
	})

	stdout, _, code := runCmd(t, "sessions", "list")
	if code != 0 {
		t.Fatalf("list failed, exit %d", code)
	}
	if !strings.Contains(stdout, "ses_cafe00000001") {
		t.Fatalf("expected session id in listing, got: %s", stdout)
	}
	if !strings.Contains(stdout, "whisper/base") {
		t.Fatalf("expected engine in listing, got: %s", stdout)
	}

	stdout, _, code = runCmd(t, "sessions", "show", "ses_cafe00000001")
	if code != 0 {
		t.Fatalf("show failed, exit %d", code)
	}
	if !strings.Contains(stdout, "hello from the seeded session") {
		t.Fatalf("expected transcript in show output, got: %s", stdout)
	}
}

func TestSessionsShowMissing(t *testing.T) {
	_, cleanup := setupTestEnv(t)
	defer cleanup()

	_, stderr, code := runCmd(t, "sessions", "show", "ses_missing00000")
	if code == 0 {
		t.Fatal("expected non-zero exit for missing session")
	}
	if !strings.Contains(stderr, "not found") {
		t.Fatalf("expected 'not found', got: %s", stderr)
	}
}

func TestSessionsQuery(t *testing.T) {
	_, cleanup := setupTestEnv(t)
	defer cleanup()

	now := time.Now()
	seedSession(t, session.Manifest{
		ID: "ses_short0000001", StartedAt: now.Add(-2 * time.Hour).UnixNano(),
		Chunks: 2, Engine: "whisper/base",
	})
	seedSession(t, session.Manifest{
		ID: "ses_long00000001", StartedAt: now.Add(-1 * time.Hour).UnixNano(),
		Chunks: 12, Engine: "whisper/base",
	})

	stdout, _, code := runCmd(t, "sessions", "list", "-q", ".[] | select(.chunks > 5) | .id")
	if code != 0 {
		t.Fatalf("query failed, exit %d", code)
	}
	if !strings.Contains(stdout, "ses_long00000001") {
		t.Fatalf("expected matching id, got: %s", stdout)
	}
	if strings.Contains(stdout, "ses_short0000001") {
		t.Fatalf("unexpected non-matching id, got: %s", stdout)
	}
}

func TestSessionsQueryInvalid(t *testing.T) {
	_, cleanup := setupTestEnv(t)
	defer cleanup()

	_, stderr, code := runCmd(t, "sessions", "list", "-q", ".[")
	if code == 0 {
		t.Fatal("expected non-zero exit for invalid jq expression")
	}
	if !strings.Contains(stderr, "invalid jq expression") {
		t.Fatalf("expected 'invalid jq expression', got: %s", stderr)
	}
}

func TestSessionsRm(t *testing.T) {
	_, cleanup := setupTestEnv(t)
	defer cleanup()

	seedSession(t, session.Manifest{
		ID: "ses_doomed000001", StartedAt: time.Now().UnixNano(), Engine: "whisper/base",
	})

	stdout, _, code := runCmd(t, "sessions", "rm", "ses_doomed000001")
	if code != 0 {
		t.Fatalf("rm failed, exit %d", code)
	}
	if !strings.Contains(stdout, "removed") {
		t.Fatalf("expected 'removed', got: %s", stdout)
	}

	_, stderr, code := runCmd(t, "sessions", "show", "ses_doomed000001")
	if code == 0 {
		t.Fatal("expected non-zero exit after removal")
	}
	if !strings.Contains(stderr, "not found") {
		t.Fatalf("expected 'not found', got: %s", stderr)
	}
}

func TestSessionsPrune(t *testing.T) {
	_, cleanup := setupTestEnv(t)
	defer cleanup()

	now := time.Now()
	for i, id := range []string{"ses_aaa000000001", "ses_bbb000000001", "ses_ccc000000001"} {
		seedSession(t, session.Manifest{
			ID:        id,
			StartedAt: now.Add(time.Duration(i-3) * time.Hour).UnixNano(),
			Engine:    "whisper/base",
		})
	}

	stdout, _, code := runCmd(t, "sessions", "prune", "--keep", "1")
	if code != 0 {
		t.Fatalf("prune failed, exit %d", code)
	}
	if !strings.Contains(stdout, "Pruned 2 sessions") {
		t.Fatalf("expected 'Pruned 2 sessions', got: %s", stdout)
	}

	stdout, _, _ = runCmd(t, "sessions", "list")
	if !strings.Contains(stdout, "ses_ccc000000001") {
		t.Fatalf("expected newest session to survive, got: %s", stdout)
	}
	if strings.Contains(stdout, "ses_aaa000000001") {
		t.Fatalf("expected oldest session pruned, got: %s", stdout)
	}
}
