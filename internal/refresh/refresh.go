// Package refresh keeps a read view fresh by fetching it on a fixed interval.
package refresh

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
)

// DefaultInterval is the polling period used when none is configured.
const DefaultInterval = 30 * time.Second

// Fetch retrieves the view once.
type Fetch func(ctx context.Context) error

// Coordinator fetches immediately on Start and then on every tick until Stop.
// Fetches are not serialized: a slow fetch may overlap with the next one.
type Coordinator struct {
	name     string
	fetch    Fetch
	interval time.Duration
	clock    clock.Clock
	logger   *zap.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	ticker  *clock.Ticker
	loop    chan struct{}
	fetches *sync.WaitGroup
}

// New builds a stopped coordinator. Interval <= 0 falls back to DefaultInterval,
// a nil clock to the wall clock.
func New(name string, fetch Fetch, interval time.Duration, clk clock.Clock, logger *zap.Logger) *Coordinator {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if clk == nil {
		clk = clock.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Coordinator{
		name:     name,
		fetch:    fetch,
		interval: interval,
		clock:    clk,
		logger:   logger.With(zap.String("view", name)),
	}
}

// Start begins polling. Calling Start on a running coordinator does nothing.
func (c *Coordinator) Start(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.ticker = c.clock.Ticker(c.interval)
	c.loop = make(chan struct{})
	// Each cycle waits only for its own fetches.
	c.fetches = &sync.WaitGroup{}

	c.logger.Info("refresh started", zap.Duration("interval", c.interval))

	c.spawn(ctx, c.fetches)
	go c.run(ctx, c.ticker, c.loop, c.fetches)
}

// Stop stops the ticker, cancels outstanding fetches and waits for them.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	cancel, ticker, loop, fetches := c.cancel, c.ticker, c.loop, c.fetches
	c.cancel, c.ticker, c.loop, c.fetches = nil, nil, nil, nil
	c.mu.Unlock()

	if cancel == nil {
		return
	}

	ticker.Stop()
	cancel()
	<-loop
	fetches.Wait()

	c.logger.Info("refresh stopped")
}

// Running reports whether the coordinator has been started and not stopped.
func (c *Coordinator) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cancel != nil
}

func (c *Coordinator) run(ctx context.Context, ticker *clock.Ticker, loop chan struct{}, fetches *sync.WaitGroup) {
	defer close(loop)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.spawn(ctx, fetches)
		}
	}
}

func (c *Coordinator) spawn(ctx context.Context, fetches *sync.WaitGroup) {
	fetches.Add(1)
	go func() {
		defer fetches.Done()

		if err := c.fetch(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Warn("refresh failed", zap.Error(err))
			return
		}

		c.logger.Debug("view refreshed")
	}()
}
