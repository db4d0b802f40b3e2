// Package controller drives the capture, record and save pipeline on behalf
// of the CLI and the TUI. It owns the single active recording session.
package controller

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/fakeyudi/screenrec/internal/capture"
	"github.com/fakeyudi/screenrec/internal/encoder"
	"github.com/fakeyudi/screenrec/internal/output"
	"github.com/fakeyudi/screenrec/internal/session"
)

// Options configures a Controller.
type Options struct {
	Platform capture.Platform

	// NewEncoder returns a fresh encoder for each armed session.
	NewEncoder func() encoder.Encoder

	Writer *output.Writer

	// Params returns the encoding parameters for the next armed session.
	// nil means encoder.DefaultParams.
	Params func() encoder.Params

	// Observer is told about every state change. It receives nil once no
	// session exists any more.
	Observer func(*session.Snapshot)

	// Guard is consulted before a source is acquired. A non-nil error
	// rejects the selection, e.g. when another process holds the devices.
	Guard func() error

	Logger *zap.Logger
}

// Controller serializes pipeline actions. At most one session exists at a
// time; selecting a new source releases the previous one first.
type Controller struct {
	opts     Options
	acquirer *capture.Acquirer
	catalog  *capture.Catalog
	logger   *zap.Logger

	// mu serializes pipeline actions. Reads go through sess so a view can
	// poll state while an action such as a save dialog is still waiting.
	mu   sync.Mutex
	sess atomic.Pointer[session.RecordingSession]
}

func New(opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Params == nil {
		opts.Params = encoder.DefaultParams
	}
	if opts.Writer == nil {
		opts.Writer = &output.Writer{Logger: logger}
	}
	acq := &capture.Acquirer{Platform: opts.Platform, Logger: logger}
	return &Controller{
		opts:     opts,
		acquirer: acq,
		catalog:  capture.NewCatalog(opts.Platform, acq, logger),
		logger:   logger,
	}
}

// Sources lists the capture targets currently available.
func (c *Controller) Sources(ctx context.Context) ([]capture.Target, error) {
	return c.catalog.ListSources(ctx)
}

// Select acquires a stream for target and arms a new session on it. Any
// previous session that is not recording is released first. If acquisition
// fails no session is left behind.
func (c *Controller) Select(ctx context.Context, target *capture.Target) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if sess := c.sess.Load(); sess != nil {
		if sess.State() == session.StateRecording {
			return session.ErrAlreadyRecording
		}
	}
	if c.opts.Guard != nil {
		if err := c.opts.Guard(); err != nil {
			return err
		}
	}
	if sess := c.sess.Load(); sess != nil {
		sess.Release()
		c.sess.Store(nil)
		c.notify()
	}

	params := c.opts.Params()
	c.acquirer.FrameRate = params.FrameRate

	stream, err := c.catalog.SelectTarget(ctx, target)
	if err != nil {
		return err
	}

	sess := session.New(c.opts.NewEncoder(), c.logger)
	if err := sess.Arm(*target, stream, params); err != nil {
		stream.Release()
		return err
	}
	c.sess.Store(sess)
	c.notify()
	return nil
}

func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	sess := c.sess.Load()
	if sess == nil {
		return session.ErrNoSourceSelected
	}
	if err := sess.Start(ctx); err != nil {
		return err
	}
	c.notify()
	return nil
}

// Stop finalizes the recording. The session stays around until it is saved
// or reset.
func (c *Controller) Stop(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	sess := c.sess.Load()
	if sess == nil {
		return fmt.Errorf("%w: %w", session.ErrNotRecording, session.ErrNoSourceSelected)
	}
	err := sess.Stop(ctx)
	if sess.State() == session.StateStopped {
		c.notify()
	}
	return err
}

// Save writes the stopped session's chunks through dialog. On success the
// session is destroyed. A cancelled dialog or a *output.WriteError keeps the
// session so the save can be retried.
//
// The action lock is not held while dialog waits for an answer. If the
// session is reset or replaced meanwhile, the file is still written but the
// new session is left alone.
func (c *Controller) Save(ctx context.Context, dialog output.Dialog) (output.Result, error) {
	c.mu.Lock()
	sess := c.sess.Load()
	if sess == nil {
		c.mu.Unlock()
		return output.Result{}, session.ErrNoSourceSelected
	}
	switch sess.State() {
	case session.StateRecording:
		c.mu.Unlock()
		return output.Result{}, session.ErrAlreadyRecording
	case session.StateArmed:
		c.mu.Unlock()
		return output.Result{}, session.ErrNotRecording
	}
	name := c.opts.Writer.Name(sess.Params().Ext())
	chunks := sess.Chunks()
	c.mu.Unlock()

	res, err := c.opts.Writer.Save(ctx, dialog, chunks, name)
	if err != nil || res.Abandoned {
		return res, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess.CompareAndSwap(sess, nil) {
		sess.Release()
		c.notify()
	}
	return res, nil
}

// Reset releases the current session, stopping it first if needed.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	sess := c.sess.Swap(nil)
	if sess == nil {
		return
	}
	sess.Release()
	c.notify()
}

// State reports the current session state; Idle when there is none.
func (c *Controller) State() session.State {
	sess := c.sess.Load()
	if sess == nil {
		return session.StateIdle
	}
	return sess.State()
}

// Session returns the active session, or nil.
func (c *Controller) Session() *session.RecordingSession {
	return c.sess.Load()
}

// Selected returns the last target handed to Select.
func (c *Controller) Selected() (capture.Target, bool) {
	return c.catalog.Selected()
}

func (c *Controller) notify() {
	if c.opts.Observer == nil {
		return
	}
	sess := c.sess.Load()
	if sess == nil {
		c.opts.Observer(nil)
		return
	}
	c.opts.Observer(sess.Snapshot())
}
