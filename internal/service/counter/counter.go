package counter

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jgivc/harmonyfest/internal/entity"
)

const (
	serviceName = "counter"
)

type ViewRepository interface {
	Views(ctx context.Context) (int64, error)
}

type SubscriberRepository interface {
	Count(ctx context.Context) (int64, error)
}

type counterService struct {
	views       ViewRepository
	subscribers SubscriberRepository
	log         *slog.Logger
}

func NewCounterService(views ViewRepository, subscribers SubscriberRepository, log *slog.Logger) *counterService {
	return &counterService{
		views:       views,
		subscribers: subscribers,
		log:         log.With(slog.String("service", serviceName)),
	}
}

func (c *counterService) Stats(ctx context.Context) (*entity.Stats, error) {
	views, err := c.views.Views(ctx)
	if err != nil {
		c.log.Error("Cannot get views counter", slog.Any("error", err))

		return nil, fmt.Errorf("cannot get views counter: %w", err)
	}

	subscribers, err := c.subscribers.Count(ctx)
	if err != nil {
		c.log.Error("Cannot count subscribers", slog.Any("error", err))

		return nil, fmt.Errorf("cannot count subscribers: %w", err)
	}

	return &entity.Stats{
		Views:       views,
		Subscribers: subscribers,
	}, nil
}
