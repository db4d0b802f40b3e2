//go:build !linux

package capture

import (
	"context"
	"fmt"
	"runtime"

	"go.uber.org/zap"
)

// NewPlatform returns the capture platform for this host.
func NewPlatform(opts Options, logger *zap.Logger) Platform {
	return unavailablePlatform{}
}

type unavailablePlatform struct{}

func (unavailablePlatform) ListSources(ctx context.Context, kinds ...Kind) ([]Target, error) {
	return nil, fmt.Errorf("%w: %s is not supported", ErrPlatformQuery, runtime.GOOS)
}

func (unavailablePlatform) GetUserMedia(ctx context.Context, c Constraints) (*Stream, error) {
	return nil, fmt.Errorf("%w: %s is not supported", ErrPlatformQuery, runtime.GOOS)
}
