package output

import (
	"errors"

	"github.com/fakeyudi/screenrec/internal/capture"
	"github.com/fakeyudi/screenrec/internal/session"
)

// Message turns a pipeline error into the text shown to the user. Errors it
// does not recognise are returned as-is.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var we *WriteError
	switch {
	case errors.Is(err, session.ErrNotRecording) && errors.Is(err, session.ErrNoSourceSelected):
		return "Select a source and start recording first."
	case errors.Is(err, session.ErrRecordingElsewhere):
		return err.Error() + ". Run 'screenrec stop' first."
	case errors.Is(err, session.ErrNoSourceSelected):
		return "Select a source to record."
	case errors.Is(err, session.ErrAlreadyRecording):
		return "You must stop recording first."
	case errors.Is(err, session.ErrNotRecording):
		return "You must start recording first."
	case errors.Is(err, session.ErrSessionStopped):
		return "This recording has finished. Save it or select a source to record again."
	case errors.Is(err, capture.ErrNoAudioTrack):
		return "No microphone found. Connect one and select the source again."
	case errors.Is(err, capture.ErrPermissionDenied):
		return "Screen or microphone access was denied."
	case errors.Is(err, capture.ErrUnsupportedTarget):
		return "That source is no longer available. Refresh the list and pick again."
	case errors.Is(err, capture.ErrPlatformQuery):
		return "Could not query capture sources: " + err.Error()
	case errors.As(err, &we):
		return "Could not save to " + we.Path + ": " + we.Err.Error() + ". The recording is kept; try another location."
	}
	return err.Error()
}
