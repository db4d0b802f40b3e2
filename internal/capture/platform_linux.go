//go:build linux

package capture

import (
	"os"

	"go.uber.org/zap"
)

// NewPlatform returns the capture platform for this host.
func NewPlatform(opts Options, logger *zap.Logger) Platform {
	display := opts.Display
	if display == "" {
		display = os.Getenv("DISPLAY")
	}
	return &X11Platform{
		Display:     display,
		AudioDevice: opts.AudioDevice,
		Logger:      logger,
	}
}
