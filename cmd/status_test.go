package cmd

import (
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"pgregory.net/rapid"

	"github.com/fakeyudi/screenrec/internal/output"
	"github.com/fakeyudi/screenrec/internal/session"
)

func TestStatusNotRecording(t *testing.T) {
	isolate(t)
	out, err := executeCommand(rootCmd, "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !strings.Contains(out, "not recording") {
		t.Errorf("got %q", out)
	}
}

func TestStatusReportsSnapshot(t *testing.T) {
	isolate(t)

	rapid.Check(t, func(rt *rapid.T) {
		chunks := rapid.IntRange(0, 5000).Draw(rt, "chunks")
		size := rapid.Int64Range(0, 1<<34).Draw(rt, "bytes")

		store, err := session.NewStore()
		if err != nil {
			rt.Fatalf("NewStore: %v", err)
		}
		started := time.Now().Add(-90 * time.Second)
		if err := store.Save(&session.Snapshot{
			ID:         "rec",
			PID:        os.Getpid(),
			State:      session.StateRecording,
			Target:     &testTargets[0],
			MIMEType:   "video/webm; codecs=vp9",
			ArmedAt:    started,
			StartedAt:  &started,
			ChunkCount: chunks,
			Bytes:      size,
		}); err != nil {
			rt.Fatalf("Save: %v", err)
		}

		out, err := executeCommand(rootCmd, "status")
		if err != nil {
			rt.Fatalf("status command error: %v", err)
		}
		for _, want := range []string{
			"State: recording",
			"Source: Entire Screen",
			fmt.Sprintf("Chunks: %d", chunks),
			"Size: " + output.FormatBytes(size),
		} {
			if !strings.Contains(out, want) {
				rt.Errorf("expected output to contain %q, got:\n%s", want, out)
			}
		}
	})
}
