// Package session holds the recording state machine and the on-disk record
// of the active recording.
package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fakeyudi/screenrec/internal/capture"
	"github.com/fakeyudi/screenrec/internal/encoder"
)

var (
	ErrNoSourceSelected = errors.New("no source selected")
	ErrAlreadyRecording = errors.New("already recording")
	ErrNotRecording     = errors.New("not recording")
	ErrSessionStopped   = errors.New("recording already finished")

	// ErrRecordingElsewhere is returned when another live screenrec process
	// holds the capture devices.
	ErrRecordingElsewhere = errors.New("another screenrec process holds the recording")
)

// RecordingSession owns one stream, its encoder and the chunks the encoder
// emits. It moves Idle → Armed → Recording → Stopped; Release returns it to
// Idle.
type RecordingSession struct {
	enc    encoder.Encoder
	logger *zap.Logger

	mu        sync.Mutex
	id        string
	state     State
	target    capture.Target
	stream    *capture.Stream
	params    encoder.Params
	armedAt   time.Time
	startedAt time.Time
	stoppedAt time.Time
	stopping  bool
	done      chan struct{}

	// chunkMu guards the chunk sequence separately so the encoder can emit
	// while a state transition is waiting on it.
	chunkMu   sync.Mutex
	accepting bool
	chunks    [][]byte
	size      int64
}

// New returns an Idle session that will encode with enc.
func New(enc encoder.Encoder, logger *zap.Logger) *RecordingSession {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecordingSession{enc: enc, logger: logger, state: StateIdle}
}

// Arm binds the session to stream and fixes the encoding parameters.
func (s *RecordingSession) Arm(target capture.Target, stream *capture.Stream, params encoder.Params) error {
	if stream == nil {
		return fmt.Errorf("arm: %w", ErrNoSourceSelected)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StateRecording:
		return ErrAlreadyRecording
	case StateArmed, StateStopped:
		return fmt.Errorf("arm: session already bound to %s", s.target.ID)
	}

	s.id = uuid.New().String()
	s.state = StateArmed
	s.target = target
	s.stream = stream
	s.params = params
	s.armedAt = time.Now()
	s.done = make(chan struct{})
	s.logger.Info("session armed",
		zap.String("session", s.id),
		zap.String("target", target.ID),
		zap.String("mime", params.MIMEType()))
	return nil
}

// Start begins encoding. Any chunks left from an earlier attempt are dropped.
func (s *RecordingSession) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StateIdle:
		return ErrNoSourceSelected
	case StateRecording:
		return ErrAlreadyRecording
	case StateStopped:
		return ErrSessionStopped
	}

	s.chunkMu.Lock()
	s.chunks, s.size = nil, 0
	s.accepting = true
	s.chunkMu.Unlock()

	if err := s.enc.Start(ctx, s.stream, s.params, s.append); err != nil {
		s.chunkMu.Lock()
		s.accepting = false
		s.chunkMu.Unlock()
		return fmt.Errorf("starting encoder: %w", err)
	}

	s.state = StateRecording
	s.startedAt = time.Now()
	s.logger.Info("recording started", zap.String("session", s.id))
	return nil
}

// append is the encoder's emit callback.
func (s *RecordingSession) append(chunk []byte) {
	s.chunkMu.Lock()
	defer s.chunkMu.Unlock()
	if !s.accepting || len(chunk) == 0 {
		return
	}
	s.chunks = append(s.chunks, chunk)
	s.size += int64(len(chunk))
}

// Stop finalizes the encoder, moves to Stopped and closes Done. The session
// ends up Stopped even if finalizing fails, so its chunks can still be saved.
// The session stays readable while the encoder drains; it reports Recording
// until Stop returns.
func (s *RecordingSession) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateRecording || s.stopping {
		s.mu.Unlock()
		return ErrNotRecording
	}
	s.stopping = true
	enc := s.enc
	s.mu.Unlock()

	stopErr := enc.Stop(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopping = false
	if s.state != StateRecording {
		// Released while draining.
		if stopErr != nil && !errors.Is(stopErr, encoder.ErrNotRunning) {
			return fmt.Errorf("finalizing encoder: %w", stopErr)
		}
		return ErrNotRecording
	}

	s.chunkMu.Lock()
	s.accepting = false
	count, size := len(s.chunks), s.size
	s.chunkMu.Unlock()

	s.state = StateStopped
	s.stoppedAt = time.Now()
	close(s.done)

	s.logger.Info("recording stopped",
		zap.String("session", s.id),
		zap.Int("chunks", count),
		zap.Int64("bytes", size),
		zap.Duration("duration", s.stoppedAt.Sub(s.startedAt)))
	if stopErr != nil {
		return fmt.Errorf("finalizing encoder: %w", stopErr)
	}
	return nil
}

// Release stops the encoder if needed, releases the stream's tracks and
// returns the session to Idle with no chunks.
func (s *RecordingSession) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateRecording {
		// A Stop already draining the encoder finishes on its own.
		if !s.stopping {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			if err := s.enc.Stop(ctx); err != nil {
				s.logger.Warn("stopping encoder on release", zap.Error(err))
			}
			cancel()
		}
		close(s.done)
	}
	if s.stream != nil {
		s.stream.Release()
		s.logger.Info("session released", zap.String("session", s.id))
	}

	s.chunkMu.Lock()
	s.accepting = false
	s.chunks, s.size = nil, 0
	s.chunkMu.Unlock()

	s.state = StateIdle
	s.stream = nil
	s.target = capture.Target{}
	s.startedAt, s.stoppedAt = time.Time{}, time.Time{}
	s.done = nil
}

// Done is closed when the session stops. It is nil before Arm.
func (s *RecordingSession) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

// Chunks returns the emitted chunks in emission order. The buffers are
// shared with the session and must not be modified.
func (s *RecordingSession) Chunks() [][]byte {
	s.chunkMu.Lock()
	defer s.chunkMu.Unlock()
	out := make([][]byte, len(s.chunks))
	copy(out, s.chunks)
	return out
}

// Size returns the total number of bytes emitted so far.
func (s *RecordingSession) Size() int64 {
	s.chunkMu.Lock()
	defer s.chunkMu.Unlock()
	return s.size
}

func (s *RecordingSession) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *RecordingSession) Target() capture.Target {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.target
}

func (s *RecordingSession) Params() encoder.Params {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.params
}

func (s *RecordingSession) Stream() *capture.Stream {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stream
}

// Snapshot describes the session for the on-disk store.
func (s *RecordingSession) Snapshot() *Snapshot {
	s.mu.Lock()
	snap := &Snapshot{
		ID:      s.id,
		PID:     os.Getpid(),
		State:   s.state,
		ArmedAt: s.armedAt,
	}
	if s.state != StateIdle {
		t := s.target
		snap.Target = &t
		snap.MIMEType = s.params.MIMEType()
	}
	if !s.startedAt.IsZero() && s.state != StateIdle {
		t := s.startedAt
		snap.StartedAt = &t
	}
	if s.state == StateStopped {
		t := s.stoppedAt
		snap.StoppedAt = &t
	}
	s.mu.Unlock()

	s.chunkMu.Lock()
	snap.ChunkCount, snap.Bytes = len(s.chunks), s.size
	s.chunkMu.Unlock()
	return snap
}
