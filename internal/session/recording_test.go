package session_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"pgregory.net/rapid"

	"github.com/fakeyudi/screenrec/internal/capture"
	"github.com/fakeyudi/screenrec/internal/encoder"
	"github.com/fakeyudi/screenrec/internal/encoder/encodertest"
	"github.com/fakeyudi/screenrec/internal/session"
)

var screen = capture.Target{ID: "screen-1", Kind: capture.KindScreen, DisplayName: "Entire Screen"}

func newStream() *capture.Stream {
	return capture.NewStream("s",
		capture.NewTrack("v", capture.TrackVideo, "video", nil, nil),
		capture.NewTrack("a", capture.TrackAudio, "mic", nil, nil))
}

// fataler is satisfied by both *testing.T and *rapid.T.
type fataler interface {
	Helper()
	Fatalf(format string, args ...any)
}

func armed(t fataler) (*session.RecordingSession, *encodertest.Encoder, *capture.Stream) {
	t.Helper()
	enc := &encodertest.Encoder{}
	s := session.New(enc, nil)
	stream := newStream()
	if err := s.Arm(screen, stream, encoder.DefaultParams()); err != nil {
		t.Fatalf("Arm: %v", err)
	}
	return s, enc, stream
}

func TestStartFromIdle(t *testing.T) {
	s := session.New(&encodertest.Encoder{}, nil)
	if err := s.Start(context.Background()); !errors.Is(err, session.ErrNoSourceSelected) {
		t.Fatalf("expected ErrNoSourceSelected, got %v", err)
	}
}

func TestStopBeforeStart(t *testing.T) {
	idle := session.New(&encodertest.Encoder{}, nil)
	if err := idle.Stop(context.Background()); !errors.Is(err, session.ErrNotRecording) {
		t.Errorf("idle: expected ErrNotRecording, got %v", err)
	}

	s, _, _ := armed(t)
	if err := s.Stop(context.Background()); !errors.Is(err, session.ErrNotRecording) {
		t.Errorf("armed: expected ErrNotRecording, got %v", err)
	}
	if n := len(s.Chunks()); n != 0 {
		t.Errorf("chunk sequence should be empty, got %d", n)
	}
	if s.State() != session.StateArmed {
		t.Errorf("state changed to %s", s.State())
	}
}

func TestLifecycle(t *testing.T) {
	s, enc, _ := armed(t)
	if s.State() != session.StateArmed {
		t.Fatalf("want armed, got %s", s.State())
	}

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if s.State() != session.StateRecording {
		t.Fatalf("want recording, got %s", s.State())
	}
	enc.Emit([]byte{0x1A, 0x2B}, []byte{0x3C})

	done := s.Done()
	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	select {
	case <-done:
	default:
		t.Fatal("Done not closed after Stop")
	}
	if s.State() != session.StateStopped {
		t.Fatalf("want stopped, got %s", s.State())
	}
	if got := bytes.Join(s.Chunks(), nil); !bytes.Equal(got, []byte{0x1A, 0x2B, 0x3C}) {
		t.Errorf("chunks: got %x", got)
	}
	if s.Size() != 3 {
		t.Errorf("Size: got %d", s.Size())
	}

	if err := s.Start(context.Background()); !errors.Is(err, session.ErrSessionStopped) {
		t.Errorf("restart after stop: expected ErrSessionStopped, got %v", err)
	}
}

func TestDoubleStartKeepsChunks(t *testing.T) {
	s, enc, _ := armed(t)
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	enc.Emit([]byte("abc"))

	if err := s.Start(context.Background()); !errors.Is(err, session.ErrAlreadyRecording) {
		t.Fatalf("expected ErrAlreadyRecording, got %v", err)
	}
	if got := bytes.Join(s.Chunks(), nil); string(got) != "abc" {
		t.Errorf("second Start reset chunks: got %q", got)
	}
	if enc.Starts() != 1 {
		t.Errorf("encoder started %d times", enc.Starts())
	}
}

func TestChunksOnlyWhileRecording(t *testing.T) {
	s, enc, _ := armed(t)
	enc.Emit([]byte("early")) // not started: fake drops it

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	enc.Emit([]byte("in"))
	enc.Trailer = [][]byte{[]byte("tail")}
	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	enc.Emit([]byte("late"))

	if got := string(bytes.Join(s.Chunks(), nil)); got != "intail" {
		t.Errorf("got %q, want %q", got, "intail")
	}
}

func TestStartEncoderFailureStaysArmed(t *testing.T) {
	enc := &encodertest.Encoder{StartErr: errors.New("no ffmpeg")}
	s := session.New(enc, nil)
	if err := s.Arm(screen, newStream(), encoder.DefaultParams()); err != nil {
		t.Fatal(err)
	}
	if err := s.Start(context.Background()); err == nil {
		t.Fatal("expected an error")
	}
	if s.State() != session.StateArmed {
		t.Errorf("want armed after failed start, got %s", s.State())
	}
}

func TestStopEncoderFailureStillStops(t *testing.T) {
	s, enc, _ := armed(t)
	enc.StopErr = errors.New("trailer write failed")
	if err := s.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	enc.Emit([]byte("x"))
	if err := s.Stop(context.Background()); err == nil {
		t.Fatal("expected finalize error")
	}
	if s.State() != session.StateStopped {
		t.Errorf("want stopped, got %s", s.State())
	}
	if s.Size() != 1 {
		t.Errorf("chunks lost: size %d", s.Size())
	}
}

func TestReleaseStopsTracks(t *testing.T) {
	s, enc, stream := armed(t)
	if err := s.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	s.Release()

	if enc.Running() {
		t.Error("encoder still running after Release")
	}
	for _, tr := range stream.Tracks() {
		if !tr.Stopped() {
			t.Errorf("track %s still live", tr.ID)
		}
	}
	if s.State() != session.StateIdle || len(s.Chunks()) != 0 {
		t.Errorf("want idle with no chunks, got %s with %d", s.State(), len(s.Chunks()))
	}
	if err := s.Start(context.Background()); !errors.Is(err, session.ErrNoSourceSelected) {
		t.Errorf("expected ErrNoSourceSelected after release, got %v", err)
	}
}

func TestArmTwiceRejected(t *testing.T) {
	s, _, _ := armed(t)
	if err := s.Arm(screen, newStream(), encoder.DefaultParams()); err == nil {
		t.Fatal("expected error arming an armed session")
	}
}

func TestSnapshotReflectsState(t *testing.T) {
	s, enc, _ := armed(t)
	if err := s.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	enc.Emit([]byte("abcd"), []byte("ef"))

	snap := s.Snapshot()
	if snap.State != session.StateRecording || snap.ChunkCount != 2 || snap.Bytes != 6 {
		t.Errorf("unexpected snapshot: %+v", snap)
	}
	if snap.Target == nil || snap.Target.ID != screen.ID {
		t.Errorf("snapshot target: %+v", snap.Target)
	}
	if snap.StartedAt == nil || snap.StoppedAt != nil {
		t.Errorf("snapshot times: started=%v stopped=%v", snap.StartedAt, snap.StoppedAt)
	}
	if snap.MIMEType != "video/webm; codecs=vp9" {
		t.Errorf("MIMEType: %q", snap.MIMEType)
	}
}

// Concatenating the chunks of a start/stop pair yields every emitted byte
// once, in emission order.
func TestChunkOrderRoundTrip(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		chunks := rapid.SliceOfN(rapid.SliceOfN(rapid.Byte(), 1, 64), 0, 32).Draw(rt, "chunks")

		s, enc, _ := armed(rt)
		if err := s.Start(context.Background()); err != nil {
			rt.Fatalf("Start: %v", err)
		}
		var want []byte
		var total int64
		for _, c := range chunks {
			enc.Emit(c)
			want = append(want, c...)
			total += int64(len(c))
		}
		if err := s.Stop(context.Background()); err != nil {
			rt.Fatalf("Stop: %v", err)
		}

		got := bytes.Join(s.Chunks(), nil)
		if !bytes.Equal(got, want) {
			rt.Fatalf("concatenation differs from emission order")
		}
		if s.Size() != total || int64(len(got)) != total {
			rt.Fatalf("size: got %d, want %d", s.Size(), total)
		}
	})
}
