// Package encoder turns a capture stream into an ordered sequence of encoded
// chunks.
package encoder

import (
	"context"

	"github.com/fakeyudi/screenrec/internal/capture"
)

// Params fixes the output format of one recording. They are chosen when a
// session is armed and never change afterwards.
type Params struct {
	Container  string // ffmpeg muxer, e.g. "webm"
	VideoCodec string // e.g. "libvpx-vp9"
	AudioCodec string // e.g. "libopus"
	FrameRate  int
}

// DefaultParams matches the historical "video/webm; codecs=vp9" output.
func DefaultParams() Params {
	return Params{
		Container:  "webm",
		VideoCodec: "libvpx-vp9",
		AudioCodec: "libopus",
		FrameRate:  30,
	}
}

// Ext returns the file extension for the container, including the dot.
func (p Params) Ext() string {
	switch p.Container {
	case "matroska":
		return ".mkv"
	case "":
		return ".webm"
	default:
		return "." + p.Container
	}
}

// MIMEType describes the encoded output.
func (p Params) MIMEType() string {
	mime := "video/" + p.Container
	switch p.VideoCodec {
	case "libvpx-vp9":
		return mime + "; codecs=vp9"
	case "libvpx":
		return mime + "; codecs=vp8"
	}
	return mime
}

// Encoder encodes a stream and delivers chunks through emit. emit is always
// called from a single goroutine, in output order.
type Encoder interface {
	// Start begins encoding stream. It returns once the encoder is running.
	Start(ctx context.Context, stream *capture.Stream, params Params, emit func([]byte)) error

	// Stop finalizes the output and returns after the last chunk has been
	// delivered to emit.
	Stop(ctx context.Context) error
}
