// Package capturetest provides an in-memory capture.Platform for tests.
package capturetest

import (
	"context"
	"fmt"
	"sync"

	"github.com/fakeyudi/screenrec/internal/capture"
)

// Platform is a scripted capture.Platform. Video requests succeed for any
// target in Targets; microphone requests return AudioTracks tracks.
type Platform struct {
	Targets []capture.Target

	ListErr  error
	VideoErr error
	AudioErr error

	AudioTracks int

	mu      sync.Mutex
	calls   []string
	tracks  []*capture.Track
	counter int
}

// New returns a platform listing targets and yielding one audio track.
func New(targets ...capture.Target) *Platform {
	return &Platform{Targets: targets, AudioTracks: 1}
}

// ListSources implements capture.Platform.
func (p *Platform) ListSources(ctx context.Context, kinds ...capture.Kind) ([]capture.Target, error) {
	p.record("list")
	if p.ListErr != nil {
		return nil, p.ListErr
	}
	want := map[capture.Kind]bool{}
	for _, k := range kinds {
		want[k] = true
	}
	out := []capture.Target{}
	for _, t := range p.Targets {
		if len(want) == 0 || want[t.Kind] {
			out = append(out, t)
		}
	}
	return out, nil
}

// GetUserMedia implements capture.Platform.
func (p *Platform) GetUserMedia(ctx context.Context, c capture.Constraints) (*capture.Stream, error) {
	if c.Video != nil {
		p.record("video:" + c.Video.Target.ID)
		if p.VideoErr != nil {
			return nil, p.VideoErr
		}
		found := false
		for _, t := range p.Targets {
			if t.ID == c.Video.Target.ID {
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("%w: %q", capture.ErrUnsupportedTarget, c.Video.Target.ID)
		}
		return capture.NewStream(p.nextID("stream"), p.newTrack(capture.TrackVideo, c.Video.Target.DisplayName)), nil
	}

	p.record("audio")
	if p.AudioErr != nil {
		return nil, p.AudioErr
	}
	s := capture.NewStream(p.nextID("stream"))
	for i := 0; i < p.AudioTracks; i++ {
		if err := s.AddTrack(p.newTrack(capture.TrackAudio, fmt.Sprintf("mic-%d", i))); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (p *Platform) newTrack(kind capture.TrackKind, label string) *capture.Track {
	t := capture.NewTrack(p.nextID(string(kind)), kind, label, []string{"-f", "lavfi", "-i", "testsrc"}, nil)
	p.mu.Lock()
	p.tracks = append(p.tracks, t)
	p.mu.Unlock()
	return t
}

func (p *Platform) nextID(prefix string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.counter++
	return fmt.Sprintf("%s-%d", prefix, p.counter)
}

func (p *Platform) record(call string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, call)
}

// Calls returns the platform requests in the order they were made.
func (p *Platform) Calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.calls))
	copy(out, p.calls)
	return out
}

// Tracks returns every track handed out so far.
func (p *Platform) Tracks() []*capture.Track {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*capture.Track, len(p.tracks))
	copy(out, p.tracks)
	return out
}

// LiveTracks counts handed-out tracks that have not been stopped.
func (p *Platform) LiveTracks() int {
	n := 0
	for _, t := range p.Tracks() {
		if !t.Stopped() {
			n++
		}
	}
	return n
}
