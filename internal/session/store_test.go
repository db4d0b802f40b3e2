package session_test

import (
	"errors"
	"os"
	"testing"
	"time"

	"pgregory.net/rapid"

	"github.com/fakeyudi/screenrec/internal/capture"
	"github.com/fakeyudi/screenrec/internal/session"
)

// generateTime produces an arbitrary time.Time value.
// We truncate to second precision to match JSON round-trip fidelity.
func generateTime(t *rapid.T, label string) time.Time {
	sec := rapid.Int64Range(0, 1_700_000_000).Draw(t, label)
	return time.Unix(sec, 0).UTC()
}

func generateSnapshot(t *rapid.T) *session.Snapshot {
	states := []session.State{session.StateArmed, session.StateRecording, session.StateStopped}
	snap := &session.Snapshot{
		ID:         rapid.StringN(1, 36, -1).Draw(t, "id"),
		PID:        rapid.IntRange(1, 1<<22).Draw(t, "pid"),
		State:      rapid.SampledFrom(states).Draw(t, "state"),
		MIMEType:   rapid.SampledFrom([]string{"video/webm; codecs=vp9", "video/x-matroska"}).Draw(t, "mime"),
		ArmedAt:    generateTime(t, "armed_at"),
		ChunkCount: rapid.IntRange(0, 10_000).Draw(t, "chunks"),
		Bytes:      rapid.Int64Range(0, 1<<40).Draw(t, "bytes"),
	}
	if rapid.Bool().Draw(t, "has_target") {
		snap.Target = &capture.Target{
			ID:          rapid.StringN(1, 40, -1).Draw(t, "target_id"),
			Kind:        rapid.SampledFrom([]capture.Kind{capture.KindScreen, capture.KindWindow}).Draw(t, "kind"),
			DisplayName: rapid.StringN(1, 80, -1).Draw(t, "display_name"),
			Width:       rapid.IntRange(1, 7680).Draw(t, "width"),
			Height:      rapid.IntRange(1, 4320).Draw(t, "height"),
		}
	}
	if rapid.Bool().Draw(t, "has_start") {
		st := generateTime(t, "started_at")
		snap.StartedAt = &st
	}
	if rapid.Bool().Draw(t, "has_stop") {
		st := generateTime(t, "stopped_at")
		snap.StoppedAt = &st
	}
	return snap
}

func newStore(t *testing.T) session.Store {
	t.Helper()
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	store, err := session.NewStore()
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return store
}

func TestSnapshotPersistenceRoundTrip(t *testing.T) {
	store := newStore(t)

	rapid.Check(t, func(t *rapid.T) {
		original := generateSnapshot(t)

		if err := store.Save(original); err != nil {
			t.Fatalf("Save: %v", err)
		}
		loaded, err := store.Load()
		if err != nil {
			t.Fatalf("Load: %v", err)
		}

		if loaded.ID != original.ID || loaded.PID != original.PID || loaded.State != original.State {
			t.Errorf("identity mismatch: got %+v, want %+v", loaded, original)
		}
		if loaded.MIMEType != original.MIMEType {
			t.Errorf("MIMEType mismatch: got %q, want %q", loaded.MIMEType, original.MIMEType)
		}
		if !loaded.ArmedAt.Equal(original.ArmedAt) {
			t.Errorf("ArmedAt mismatch: got %v, want %v", loaded.ArmedAt, original.ArmedAt)
		}
		if loaded.ChunkCount != original.ChunkCount || loaded.Bytes != original.Bytes {
			t.Errorf("counters mismatch: got %d/%d, want %d/%d",
				loaded.ChunkCount, loaded.Bytes, original.ChunkCount, original.Bytes)
		}

		if (loaded.Target == nil) != (original.Target == nil) {
			t.Errorf("Target nil mismatch: got %v, want %v", loaded.Target, original.Target)
		} else if loaded.Target != nil && *loaded.Target != *original.Target {
			t.Errorf("Target mismatch: got %+v, want %+v", *loaded.Target, *original.Target)
		}

		for _, pair := range []struct {
			name      string
			got, want *time.Time
		}{
			{"StartedAt", loaded.StartedAt, original.StartedAt},
			{"StoppedAt", loaded.StoppedAt, original.StoppedAt},
		} {
			if (pair.got == nil) != (pair.want == nil) {
				t.Errorf("%s nil mismatch: got %v, want %v", pair.name, pair.got, pair.want)
			} else if pair.got != nil && !pair.got.Equal(*pair.want) {
				t.Errorf("%s mismatch: got %v, want %v", pair.name, *pair.got, *pair.want)
			}
		}
	})
}

func TestLoadReturnsErrNoSession(t *testing.T) {
	store := newStore(t)

	_, err := store.Load()
	if !errors.Is(err, session.ErrNoSession) {
		t.Errorf("expected ErrNoSession, got: %v", err)
	}
	if err := store.Delete(); err != nil {
		t.Errorf("Delete with nothing saved: %v", err)
	}
}

func TestLoadLiveOwnProcess(t *testing.T) {
	store := newStore(t)
	defer session.SetProcessAlive(func(int) bool { return false })()

	if err := store.Save(&session.Snapshot{ID: "a", PID: os.Getpid(), State: session.StateRecording}); err != nil {
		t.Fatal(err)
	}
	snap, err := session.LoadLive(store)
	if err != nil {
		t.Fatalf("LoadLive: %v", err)
	}
	if snap.ID != "a" {
		t.Errorf("got %q", snap.ID)
	}
}

func TestLoadLiveOtherProcess(t *testing.T) {
	store := newStore(t)
	defer session.SetProcessAlive(func(pid int) bool { return pid == 4242 })()

	if err := store.Save(&session.Snapshot{ID: "b", PID: 4242, State: session.StateRecording}); err != nil {
		t.Fatal(err)
	}
	if _, err := session.LoadLive(store); err != nil {
		t.Fatalf("LoadLive: %v", err)
	}
}

// A snapshot left by a process that no longer exists is removed.
func TestLoadLiveStaleSnapshot(t *testing.T) {
	store := newStore(t)
	defer session.SetProcessAlive(func(int) bool { return false })()

	if err := store.Save(&session.Snapshot{ID: "c", PID: 999999, State: session.StateRecording}); err != nil {
		t.Fatal(err)
	}
	if _, err := session.LoadLive(store); !errors.Is(err, session.ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
	if _, err := store.Load(); !errors.Is(err, session.ErrNoSession) {
		t.Errorf("stale snapshot was not deleted: %v", err)
	}
}

// TestSaveFailurePropagatesError verifies that NewStore fails when the data
// directory cannot be created.
func TestSaveFailurePropagatesError(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("running as root; permission checks are ineffective")
	}

	tmp := t.TempDir()
	if err := os.Chmod(tmp, 0o000); err != nil {
		t.Fatalf("chmod: %v", err)
	}
	t.Cleanup(func() { os.Chmod(tmp, 0o755) })

	t.Setenv("XDG_DATA_HOME", tmp)

	if _, err := session.NewStore(); err == nil {
		t.Fatal("expected error creating store in unwritable directory, got nil")
	}
}
