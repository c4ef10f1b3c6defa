package reservations

import (
	"context"
	"sync"
	"time"

	"seatline/pkg/logger"
)

// ReaperConfig controls the optional background eviction of expired sessions
type ReaperConfig struct {
	Interval  time.Duration
	BatchSize int
}

func DefaultReaperConfig() *ReaperConfig {
	return &ReaperConfig{
		Interval:  time.Minute,
		BatchSize: 100,
	}
}

// Reaper periodically evicts unfinished sessions whose lease elapsed. Lazy
// expiry on access stays in force whether or not it runs.
type Reaper struct {
	service Service
	config  *ReaperConfig
	logger  *logger.Logger
	done    chan struct{}
	cancel  context.CancelFunc
	once    sync.Once
	wg      sync.WaitGroup
}

// NewReaper replaces non-positive settings with the defaults
func NewReaper(service Service, config *ReaperConfig) *Reaper {
	cfg := *DefaultReaperConfig()
	if config != nil {
		if config.Interval > 0 {
			cfg.Interval = config.Interval
		}
		if config.BatchSize > 0 {
			cfg.BatchSize = config.BatchSize
		}
	}
	return &Reaper{
		service: service,
		config:  &cfg,
		logger:  logger.GetDefault(),
		done:    make(chan struct{}),
	}
}

func (r *Reaper) Start(ctx context.Context) {
	ctx, r.cancel = context.WithCancel(ctx)
	r.wg.Add(1)
	go r.run(ctx)
	r.logger.Info("Reservation reaper started", "interval", r.config.Interval.String(), "batch", r.config.BatchSize)
}

// Stop ends the loop, cancels an in-flight sweep and waits for it
func (r *Reaper) Stop() {
	r.once.Do(func() {
		close(r.done)
		if r.cancel != nil {
			r.cancel()
		}
	})
	r.wg.Wait()
}

func (r *Reaper) run(ctx context.Context) {
	defer r.wg.Done()

	ticker := time.NewTicker(r.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.Sweep(ctx)
		case <-r.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Sweep evicts batches until one comes back short or ctx ends
func (r *Reaper) Sweep(ctx context.Context) int {
	total := 0
	for ctx.Err() == nil {
		n, err := r.service.EvictExpired(ctx, r.config.BatchSize)
		total += n
		if err != nil {
			if ctx.Err() != nil {
				return total
			}
			r.logger.ErrorWithContext(ctx, "Reservation sweep failed", err, map[string]interface{}{
				"evicted": total,
			})
			return total
		}
		if n == 0 || n < r.config.BatchSize {
			break
		}
	}
	if total > 0 {
		r.logger.InfoWithContext(ctx, "Expired reservations evicted", map[string]interface{}{
			"evicted": total,
		})
	}
	return total
}
