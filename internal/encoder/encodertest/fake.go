// Package encodertest provides a scripted encoder.Encoder for tests.
package encodertest

import (
	"context"
	"errors"
	"sync"

	"github.com/fakeyudi/screenrec/internal/capture"
	"github.com/fakeyudi/screenrec/internal/encoder"
)

// Encoder records what it was started with and lets the test push chunks.
type Encoder struct {
	StartErr error
	StopErr  error

	// Trailer is emitted from inside Stop, the way a muxer flushes its
	// final cluster and cues.
	Trailer [][]byte

	// Block, when set, holds Stop until it is closed or ctx ends, the way
	// ffmpeg takes a while to flush.
	Block chan struct{}

	mu       sync.Mutex
	emit     func([]byte)
	running  bool
	draining bool
	starts  int
	params  encoder.Params
	stream  *capture.Stream
}

// Start implements encoder.Encoder.
func (e *Encoder) Start(ctx context.Context, stream *capture.Stream, params encoder.Params, emit func([]byte)) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.StartErr != nil {
		return e.StartErr
	}
	if e.running {
		return errors.New("fake encoder already running")
	}
	e.running = true
	e.starts++
	e.emit, e.params, e.stream = emit, params, stream
	return nil
}

// Stop implements encoder.Encoder.
func (e *Encoder) Stop(ctx context.Context) error {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return encoder.ErrNotRunning
	}
	block := e.Block
	e.draining = true
	e.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.draining = false
	for _, c := range e.Trailer {
		e.emit(c)
	}
	e.running = false
	return e.StopErr
}

// Emit delivers chunks as if the encoder produced them. It is a no-op when
// the encoder has not been started.
func (e *Encoder) Emit(chunks ...[]byte) {
	e.mu.Lock()
	emit := e.emit
	e.mu.Unlock()
	if emit == nil {
		return
	}
	for _, c := range chunks {
		emit(c)
	}
}

func (e *Encoder) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// Draining reports whether a Stop call is in progress.
func (e *Encoder) Draining() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.draining
}

func (e *Encoder) Starts() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.starts
}

func (e *Encoder) Params() encoder.Params {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.params
}
