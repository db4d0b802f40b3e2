package capture

import (
	"fmt"
	"sync"
)

// TrackKind is the media type carried by a Track.
type TrackKind string

const (
	TrackVideo TrackKind = "video"
	TrackAudio TrackKind = "audio"
)

// Track is one live media feed. Input holds the encoder input arguments that
// open the underlying device (for ffmpeg: "-f", "x11grab", ... "-i", ":0.0").
type Track struct {
	ID    string
	Kind  TrackKind
	Label string
	Input []string

	mu      sync.Mutex
	stopped bool
	onStop  func()
}

// NewTrack returns a live track. onStop, if non-nil, runs once when the track
// is stopped and should release whatever device handle the platform holds.
func NewTrack(id string, kind TrackKind, label string, input []string, onStop func()) *Track {
	return &Track{ID: id, Kind: kind, Label: label, Input: input, onStop: onStop}
}

// Stop releases the track. Calling Stop more than once is a no-op.
func (t *Track) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return
	}
	t.stopped = true
	if t.onStop != nil {
		t.onStop()
	}
}

// Stopped reports whether Stop has been called.
func (t *Track) Stopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}

// Stream is a set of live tracks obtained from the platform.
type Stream struct {
	ID string

	mu     sync.Mutex
	tracks []*Track
}

// NewStream builds a stream from the given tracks.
func NewStream(id string, tracks ...*Track) *Stream {
	return &Stream{ID: id, tracks: tracks}
}

// Tracks returns the stream's tracks in the order they were added.
func (s *Stream) Tracks() []*Track {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Track, len(s.tracks))
	copy(out, s.tracks)
	return out
}

func (s *Stream) VideoTracks() []*Track { return s.byKind(TrackVideo) }
func (s *Stream) AudioTracks() []*Track { return s.byKind(TrackAudio) }

func (s *Stream) byKind(kind TrackKind) []*Track {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*Track
	for _, t := range s.tracks {
		if t.Kind == kind {
			out = append(out, t)
		}
	}
	return out
}

// AddTrack attaches t to the stream. Stopped tracks cannot be attached.
func (s *Stream) AddTrack(t *Track) error {
	if t == nil {
		return fmt.Errorf("add track: nil track")
	}
	if t.Stopped() {
		return fmt.Errorf("add track %s: track already stopped", t.ID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tracks = append(s.tracks, t)
	return nil
}

// Release stops every track. Safe to call more than once.
func (s *Stream) Release() {
	for _, t := range s.Tracks() {
		t.Stop()
	}
}
