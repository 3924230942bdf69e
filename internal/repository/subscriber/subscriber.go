package subscriber

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"log/slog"

	"github.com/jgivc/harmonyfest/internal/common"
	"github.com/jgivc/harmonyfest/internal/entity"
	"github.com/jgivc/harmonyfest/internal/util"
	"github.com/redis/go-redis/v9"
)

const (
	KeySubscribers = "sb" // HASH. sha1(email) -> subscriber JSON

	ScanCount = 1000
)

type subscriberRepository struct {
	cl  *redis.Client
	log *slog.Logger
}

func NewSubscriberRepository(cl *redis.Client, log *slog.Logger) *subscriberRepository {
	return &subscriberRepository{
		cl:  cl,
		log: log.With(slog.String("item", "SubscriberRepository")),
	}
}

// Add stores s unless its email is already there.
func (r *subscriberRepository) Add(ctx context.Context, s *entity.Subscriber) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("cannot marshal subscriber: %w", err)
	}

	ok, err := r.cl.HSetNX(ctx, KeySubscribers, util.GetIDFromString(&s.Email), data).Result()
	if err != nil {
		return fmt.Errorf("cannot save subscriber: %w", err)
	}

	if !ok {
		return common.ErrAlreadySubscribed
	}

	return nil
}

func (r *subscriberRepository) Count(ctx context.Context) (int64, error) {
	n, err := r.cl.HLen(ctx, KeySubscribers).Result()
	if err != nil {
		return 0, fmt.Errorf("cannot count subscribers: %w", err)
	}

	return n, nil
}

// SubscriberIterator walks all subscribers in HSCAN batches. Order is not
// defined. Broken records are logged and skipped.
func (r *subscriberRepository) SubscriberIterator(ctx context.Context) iter.Seq2[*entity.Subscriber, error] {
	return func(yield func(*entity.Subscriber, error) bool) {
		var cursor uint64

		for {
			kv, nextCursor, err := r.cl.HScan(ctx, KeySubscribers, cursor, "*", ScanCount).Result()
			if err != nil {
				yield(nil, fmt.Errorf("cannot scan subscribers: %w", err))

				return
			}

			// kv is field, value, field, value...
			for i := 0; i+1 < len(kv); i += 2 {
				var s entity.Subscriber
				if err := json.Unmarshal([]byte(kv[i+1]), &s); err != nil {
					r.log.Error("Cannot unmarshal subscriber", slog.String("key", kv[i]), slog.Any("error", err))

					continue
				}

				if !yield(&s, nil) {
					return
				}
			}

			cursor = nextCursor
			if cursor == 0 {
				return
			}
		}
	}
}
