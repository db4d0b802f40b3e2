package capture

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Acquirer turns a target into a stream carrying the target's video plus one
// microphone audio track.
type Acquirer struct {
	Platform  Platform
	FrameRate int
	Logger    *zap.Logger
}

// Acquire requests the video stream first, then a microphone stream, then
// moves the first audio track onto the video stream. Any failure releases
// every track obtained so far.
func (a *Acquirer) Acquire(ctx context.Context, target Target) (*Stream, error) {
	logger := a.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	video, err := a.Platform.GetUserMedia(ctx, Constraints{
		Video: &VideoConstraints{Target: target, FrameRate: a.FrameRate},
	})
	if err != nil {
		return nil, fmt.Errorf("acquiring video for %s: %w", target.ID, err)
	}
	if len(video.VideoTracks()) == 0 {
		video.Release()
		return nil, fmt.Errorf("acquiring video for %s: %w", target.ID, ErrUnsupportedTarget)
	}

	audio, err := a.Platform.GetUserMedia(ctx, Constraints{Audio: true})
	if err != nil {
		video.Release()
		return nil, fmt.Errorf("acquiring microphone: %w", err)
	}

	tracks := audio.AudioTracks()
	if len(tracks) == 0 {
		video.Release()
		audio.Release()
		return nil, fmt.Errorf("attaching microphone: %w", ErrNoAudioTrack)
	}
	// Only the first track is attached; the rest are not needed.
	for _, extra := range tracks[1:] {
		extra.Stop()
	}
	if err := video.AddTrack(tracks[0]); err != nil {
		video.Release()
		tracks[0].Stop()
		return nil, fmt.Errorf("attaching microphone: %w", err)
	}

	logger.Info("stream acquired",
		zap.String("target", target.ID),
		zap.String("stream", video.ID),
		zap.String("audio", tracks[0].Label))
	return video, nil
}
