package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/fakeyudi/screenrec/internal/capture"
	"github.com/fakeyudi/screenrec/internal/config"
	"github.com/fakeyudi/screenrec/internal/controller"
	"github.com/fakeyudi/screenrec/internal/encoder"
	"github.com/fakeyudi/screenrec/internal/output"
	"github.com/fakeyudi/screenrec/internal/session"
)

// Swapped out in tests so commands run without X11 or ffmpeg.
var (
	newPlatform = func(c config.Config, logger *zap.Logger) capture.Platform {
		return capture.NewPlatform(capture.Options{AudioDevice: c.AudioDevice}, logger)
	}
	newEncoder = func(c config.Config, logger *zap.Logger) encoder.Encoder {
		ff := &encoder.FFmpeg{Path: c.FFmpegPath, Logger: logger}
		if dir, err := session.DataDir(); err == nil {
			ff.LogPath = filepath.Join(dir, "ffmpeg.log")
		}
		return ff
	}
)

// liveConfig is the configuration shared with a running recorder. The TUI
// replaces it when the config files change.
type liveConfig struct {
	mu  sync.RWMutex
	cfg config.Config
}

func (l *liveConfig) Get() config.Config {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.cfg
}

func (l *liveConfig) Set(c config.Config) {
	l.mu.Lock()
	l.cfg = c
	l.mu.Unlock()
}

// newController wires the pipeline for one screenrec process. Every state
// change is mirrored into store so other processes can see the recording.
func newController(live *liveConfig, store session.Store) *controller.Controller {
	c := live.Get()
	return controller.New(controller.Options{
		Platform:   newPlatform(c, logger),
		NewEncoder: func() encoder.Encoder { return newEncoder(live.Get(), logger) },
		Writer:     &output.Writer{OutputDir: c.OutputDir, Logger: logger},
		Params:     func() encoder.Params { return live.Get().Params() },
		Observer:   snapshotObserver(store),
		Guard:      heldElsewhere(store),
		Logger:     logger,
	})
}

func snapshotObserver(store session.Store) func(*session.Snapshot) {
	return func(s *session.Snapshot) {
		var err error
		if s == nil {
			// Leave a snapshot written by another process alone.
			if cur, lerr := store.Load(); lerr == nil && cur.PID != os.Getpid() {
				return
			}
			err = store.Delete()
		} else {
			err = store.Save(s)
		}
		if err != nil {
			logger.Warn("persisting recording state", zap.Error(err))
		}
	}
}

// heldElsewhere rejects a selection while another live screenrec process
// owns the snapshot, so only one process holds the devices.
func heldElsewhere(store session.Store) func() error {
	return func() error {
		s, err := session.LoadLive(store)
		if errors.Is(err, session.ErrNoSession) {
			return nil
		}
		if err != nil {
			return err
		}
		if s.PID == os.Getpid() {
			return nil
		}
		return fmt.Errorf("%w (pid %d, %s)", session.ErrRecordingElsewhere, s.PID, targetName(s))
	}
}

// userError shows the user-facing text for a pipeline error while keeping
// the original for errors.Is.
type userError struct{ err error }

func (e userError) Error() string { return output.Message(e.err) }
func (e userError) Unwrap() error { return e.err }
