package capture

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Catalog enumerates capture targets and hands a chosen one to the Acquirer.
type Catalog struct {
	platform Platform
	acquirer *Acquirer
	logger   *zap.Logger

	mu       sync.Mutex
	selected *Target
}

// NewCatalog returns a Catalog over platform. A nil logger disables logging.
func NewCatalog(platform Platform, acquirer *Acquirer, logger *zap.Logger) *Catalog {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Catalog{platform: platform, acquirer: acquirer, logger: logger}
}

// ListSources returns the current screens and windows. An empty result is not
// an error.
func (c *Catalog) ListSources(ctx context.Context) ([]Target, error) {
	targets, err := c.platform.ListSources(ctx, KindScreen, KindWindow)
	if err != nil {
		return nil, fmt.Errorf("listing sources: %w", err)
	}
	c.logger.Debug("listed capture sources", zap.Int("count", len(targets)))
	return targets, nil
}

// SelectTarget records target as the current choice and acquires a stream
// for it.
func (c *Catalog) SelectTarget(ctx context.Context, target *Target) (*Stream, error) {
	if target == nil {
		return nil, fmt.Errorf("select target: %w", ErrUnsupportedTarget)
	}
	c.mu.Lock()
	t := *target
	c.selected = &t
	c.mu.Unlock()

	c.logger.Info("capture target selected",
		zap.String("target", t.ID),
		zap.String("kind", string(t.Kind)),
		zap.String("name", t.DisplayName))

	return c.acquirer.Acquire(ctx, t)
}

// Selected returns the most recently selected target, if any.
func (c *Catalog) Selected() (Target, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.selected == nil {
		return Target{}, false
	}
	return *c.selected, true
}
