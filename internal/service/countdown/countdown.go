package countdown

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jgivc/harmonyfest/internal/config"
	"github.com/jgivc/harmonyfest/internal/countdown"
)

const (
	serviceName = "countdown"
)

type countdownService struct {
	engine *countdown.Engine
	target time.Time
	log    *slog.Logger
}

// NewCountdownService counts down to the festival start. An unparsable start
// leaves the target zero, which reads as already reached.
func NewCountdownService(engine *countdown.Engine, festival *config.FestivalConfig, log *slog.Logger) *countdownService {
	log = log.With(slog.String("service", serviceName))

	target, err := festival.StartTime()
	if err != nil {
		log.Warn("Festival start is not set, countdown is over", slog.Any("error", err))
	} else {
		log.Info("Count down", slog.Time("target", target))
	}

	return &countdownService{
		engine: engine,
		target: target,
		log:    log,
	}
}

func (c *countdownService) Target() time.Time {
	return c.target
}

func (c *countdownService) Snapshot() (countdown.Sample, error) {
	s, err := c.engine.Now(c.target)
	if err != nil {
		c.log.Error("Cannot compute countdown", slog.Any("error", err))

		return countdown.Sample{}, fmt.Errorf("cannot compute countdown: %w", err)
	}

	return s, nil
}

// Watch starts a handle delivering samples to onTick until ctx is done or
// the target is reached. The caller owns the handle and must cancel it.
func (c *countdownService) Watch(ctx context.Context, onTick countdown.TickFunc) (*countdown.Handle, error) {
	h, err := c.engine.Start(ctx, c.target, onTick)
	if err != nil {
		c.log.Error("Cannot start countdown", slog.Any("error", err))

		return nil, fmt.Errorf("cannot start countdown: %w", err)
	}

	return h, nil
}
