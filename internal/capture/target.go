// Package capture talks to the host capture API: it enumerates screens and
// windows and turns a chosen target into a combined audio+video Stream.
package capture

// Kind distinguishes whole screens from individual windows.
type Kind string

const (
	KindScreen Kind = "screen"
	KindWindow Kind = "window"
)

// Target is one capturable screen or window as reported by the platform.
// IDs are opaque and only meaningful to the Platform that produced them.
type Target struct {
	ID          string `json:"id"`
	Kind        Kind   `json:"kind"`
	DisplayName string `json:"display_name"`

	// Geometry of the target in root-window coordinates. Zero for platforms
	// that do not report it.
	X      int `json:"x,omitempty"`
	Y      int `json:"y,omitempty"`
	Width  int `json:"width,omitempty"`
	Height int `json:"height,omitempty"`
}

func (t Target) String() string {
	return t.DisplayName + " (" + t.ID + ")"
}
