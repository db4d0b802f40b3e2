package capture

import (
	"context"
	"errors"
	"os/exec"
	"strings"
)

var (
	// ErrPlatformQuery is returned when the host capture API is unavailable.
	ErrPlatformQuery = errors.New("capture platform unavailable")

	// ErrPermissionDenied is returned when the host refuses screen or
	// microphone access.
	ErrPermissionDenied = errors.New("capture permission denied")

	// ErrUnsupportedTarget is returned when a target id is stale or unknown.
	ErrUnsupportedTarget = errors.New("capture target not available")

	// ErrNoAudioTrack is returned when the microphone request yields no
	// audio track to attach.
	ErrNoAudioTrack = errors.New("no audio track available")
)

// Platform is the host capture API the core depends on.
type Platform interface {
	// ListSources returns the current capture targets of the given kinds.
	ListSources(ctx context.Context, kinds ...Kind) ([]Target, error)

	// GetUserMedia opens the devices described by c and returns them as a
	// stream. An audio request may legitimately return zero tracks.
	GetUserMedia(ctx context.Context, c Constraints) (*Stream, error)
}

// Constraints selects what GetUserMedia should open. Exactly one of Video or
// Audio is expected to be set per request.
type Constraints struct {
	Video *VideoConstraints
	Audio bool
}

// VideoConstraints pins a video request to one desktop target.
type VideoConstraints struct {
	Target    Target
	FrameRate int
}

// Runner executes an external command and returns its stdout.
// This abstraction allows mocking in tests.
type Runner func(ctx context.Context, name string, args ...string) (string, error)

// defaultRunner runs the command as a real subprocess. On failure the
// returned error carries stderr so callers can classify it.
func defaultRunner(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return string(out), &CommandError{Name: name, Stderr: msg, Err: err}
		}
		return string(out), &CommandError{Name: name, Err: err}
	}
	return string(out), nil
}

// CommandError describes a failed platform command.
type CommandError struct {
	Name   string
	Stderr string
	Err    error
}

func (e *CommandError) Error() string {
	if e.Stderr != "" {
		return e.Name + ": " + e.Err.Error() + ": " + e.Stderr
	}
	return e.Name + ": " + e.Err.Error()
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// Options configures NewPlatform.
type Options struct {
	Display     string // overrides $DISPLAY
	AudioDevice string
}
