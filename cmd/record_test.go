package cmd

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fakeyudi/screenrec/internal/capture"
	"github.com/fakeyudi/screenrec/internal/capture/capturetest"
	"github.com/fakeyudi/screenrec/internal/config"
	"github.com/fakeyudi/screenrec/internal/encoder"
	"github.com/fakeyudi/screenrec/internal/encoder/encodertest"
	"github.com/fakeyudi/screenrec/internal/session"
)

// executeCommand runs the root command with the given args and returns
// everything written to stdout and stderr.
func executeCommand(root *cobra.Command, args ...string) (output string, err error) {
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	_, err = root.ExecuteC()
	return buf.String(), err
}

var testTargets = []capture.Target{
	{ID: "screen:0", Kind: capture.KindScreen, DisplayName: "Entire Screen", Width: 1920, Height: 1080},
	{ID: "window:0x2a", Kind: capture.KindWindow, DisplayName: "Terminal"},
}

// isolate points every per-user path at a temp dir and swaps the platform
// and encoder for fakes.
func isolate(t *testing.T) (*capturetest.Platform, *encodertest.Encoder) {
	t.Helper()
	tmp := t.TempDir()
	t.Setenv("HOME", tmp)
	t.Setenv("XDG_DATA_HOME", filepath.Join(tmp, "data"))
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmp, "config"))

	platform := capturetest.New(testTargets...)
	enc := &encodertest.Encoder{}

	origPlatform, origEncoder, origTerminal := newPlatform, newEncoder, isTerminal
	newPlatform = func(config.Config, *zap.Logger) capture.Platform { return platform }
	newEncoder = func(config.Config, *zap.Logger) encoder.Encoder { return enc }
	isTerminal = func() bool { return false }
	t.Cleanup(func() {
		newPlatform, newEncoder, isTerminal = origPlatform, origEncoder, origTerminal
		recordSource, recordDuration, recordOutput, recordPrompt = "", 0, "", false
		sourcesJSON = false
	})

	rootCmd.ResetFlags()
	return platform, enc
}

func TestRecordHeadlessWritesVideo(t *testing.T) {
	platform, enc := isolate(t)
	enc.Trailer = [][]byte{{0x1A, 0x45, 0xDF, 0xA3}, []byte("cluster")}
	out := filepath.Join(t.TempDir(), "demo.webm")

	stdout, err := executeCommand(rootCmd, "record", "--source", "window:0x2a", "--duration", "20ms", "--output", out)
	if err != nil {
		t.Fatalf("record: %v\n%s", err, stdout)
	}

	got, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("reading video: %v", err)
	}
	if want := "\x1a\x45\xdf\xa3cluster"; string(got) != want {
		t.Errorf("video bytes = %q, want %q", got, want)
	}
	for _, want := range []string{"Terminal", "Recording stopped", "Video saved: " + out} {
		if !strings.Contains(stdout, want) {
			t.Errorf("output missing %q:\n%s", want, stdout)
		}
	}
	if n := platform.LiveTracks(); n != 0 {
		t.Errorf("%d tracks still live after record", n)
	}

	// The session record is gone once the video is saved.
	store, err := session.NewStore()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.Load(); !errors.Is(err, session.ErrNoSession) {
		t.Errorf("session file left behind: %v", err)
	}
}

func TestRecordDefaultsToFirstScreen(t *testing.T) {
	_, enc := isolate(t)
	out := filepath.Join(t.TempDir(), "screen.webm")

	stdout, err := executeCommand(rootCmd, "record", "--duration", "10ms", "--output", out)
	if err != nil {
		t.Fatalf("record: %v\n%s", err, stdout)
	}
	if !strings.Contains(stdout, "Entire Screen") {
		t.Errorf("expected the first screen to be recorded:\n%s", stdout)
	}
	if enc.Starts() != 1 {
		t.Errorf("encoder started %d times", enc.Starts())
	}
}

func TestRecordUnknownSource(t *testing.T) {
	isolate(t)
	_, err := executeCommand(rootCmd, "record", "--source", "window:0xdead", "--duration", "10ms")
	if err == nil || !strings.Contains(err.Error(), "unknown source") {
		t.Fatalf("expected unknown source error, got %v", err)
	}
}

func TestRecordNoAudio(t *testing.T) {
	platform, _ := isolate(t)
	platform.AudioTracks = 0

	_, err := executeCommand(rootCmd, "record", "--source", "screen:0", "--duration", "10ms")
	if err == nil {
		t.Fatal("expected an error without a microphone")
	}
	if platform.LiveTracks() != 0 {
		t.Error("video track left running after audio failed")
	}
}

// TestDoubleRecordError verifies that "record" refuses to run while another
// live screenrec process holds the session.
func TestDoubleRecordError(t *testing.T) {
	isolate(t)

	store, err := session.NewStore()
	if err != nil {
		t.Fatal(err)
	}
	now := time.Now()
	if err := store.Save(&session.Snapshot{
		ID:        "test-id",
		PID:       os.Getpid(),
		State:     session.StateRecording,
		Target:    &testTargets[0],
		ArmedAt:   now,
		StartedAt: &now,
	}); err != nil {
		t.Fatal(err)
	}

	out, err := executeCommand(rootCmd, "record", "--duration", "10ms")
	if err == nil {
		t.Fatal("expected an error, got nil")
	}
	combined := out + err.Error()
	if !strings.Contains(combined, "already recording") {
		t.Errorf("expected error to contain %q, got: %q", "already recording", combined)
	}
}

func TestRecordNothingCapturedSkipsSave(t *testing.T) {
	_, enc := isolate(t)
	enc.StopErr = errors.New("ffmpeg exited without output")
	dir := t.TempDir()
	out := filepath.Join(dir, "empty.webm")

	_, err := executeCommand(rootCmd, "record", "--source", "screen:0", "--duration", "10ms", "--output", out)
	if err == nil || !strings.Contains(err.Error(), "without output") {
		t.Fatalf("expected the finalize error, got %v", err)
	}
	if _, err := os.Stat(out); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("an empty video was written: %v", err)
	}
}

func TestRecordFinalizeErrorStillSavesChunks(t *testing.T) {
	_, enc := isolate(t)
	enc.Trailer = [][]byte{[]byte("partial")}
	enc.StopErr = errors.New("trailer write failed")
	out := filepath.Join(t.TempDir(), "partial.webm")

	stdout, err := executeCommand(rootCmd, "record", "--source", "screen:0", "--duration", "10ms", "--output", out)
	if err != nil {
		t.Fatalf("record: %v\n%s", err, stdout)
	}
	if got, _ := os.ReadFile(out); string(got) != "partial" {
		t.Errorf("saved %q", got)
	}
	if !strings.Contains(stdout, "trailer write failed") {
		t.Errorf("warning not shown:\n%s", stdout)
	}
}
