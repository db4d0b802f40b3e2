package session

import (
	"time"

	"github.com/fakeyudi/screenrec/internal/capture"
)

// State is the lifecycle position of a recording session.
type State string

const (
	StateIdle      State = "idle"
	StateArmed     State = "armed"
	StateRecording State = "recording"
	StateStopped   State = "stopped"
)

// Snapshot is the on-disk record of the recording owned by a screenrec
// process. Other processes use it to report status, to refuse a second
// recording and to ask the owner to stop.
type Snapshot struct {
	ID         string          `json:"id"`
	PID        int             `json:"pid"`
	State      State           `json:"state"`
	Target     *capture.Target `json:"target,omitempty"`
	MIMEType   string          `json:"mime_type,omitempty"`
	ArmedAt    time.Time       `json:"armed_at"`
	StartedAt  *time.Time      `json:"started_at,omitempty"`
	StoppedAt  *time.Time      `json:"stopped_at,omitempty"`
	ChunkCount int             `json:"chunk_count"`
	Bytes      int64           `json:"bytes"`
}
