package newsletter

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"github.com/jgivc/harmonyfest/internal/clock"
	"github.com/jgivc/harmonyfest/internal/common"
	"github.com/jgivc/harmonyfest/internal/entity"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v2"
)

const (
	serviceName = "newsletter"

	maxEmailLength = 254
)

type SubscriberRepository interface {
	Add(ctx context.Context, s *entity.Subscriber) error
	Count(ctx context.Context) (int64, error)
	SubscriberIterator(ctx context.Context) iter.Seq2[*entity.Subscriber, error]
}

type newsletterService struct {
	repo  SubscriberRepository
	fs    afero.Fs
	clock clock.Clock
	log   *slog.Logger
}

func NewNewsletterService(repo SubscriberRepository, fs afero.Fs, c clock.Clock, log *slog.Logger) *newsletterService {
	if c == nil {
		c = clock.NewSystem()
	}

	return &newsletterService{
		repo:  repo,
		fs:    fs,
		clock: c,
		log:   log.With(slog.String("service", serviceName)),
	}
}

// NormalizeEmail trims and lower-cases email and checks it is a bare address.
func NormalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || len(email) > maxEmailLength {
		return "", common.ErrInvalidEmail
	}

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", common.ErrInvalidEmail
	}

	at := strings.LastIndex(email, "@")
	if at < 1 || !strings.Contains(email[at+1:], ".") {
		return "", common.ErrInvalidEmail
	}

	return email, nil
}

func (n *newsletterService) Subscribe(ctx context.Context, email string) (*entity.Subscriber, error) {
	normalized, err := NormalizeEmail(email)
	if err != nil {
		n.log.Info("Reject subscription", slog.String("email", email))

		return nil, err
	}

	s := &entity.Subscriber{
		ID:        uuid.NewString(),
		Email:     normalized,
		CreatedAt: n.clock.Now().UTC(),
	}

	if err := n.repo.Add(ctx, s); err != nil {
		if errors.Is(err, common.ErrAlreadySubscribed) {
			n.log.Info("Already subscribed", slog.String("email", normalized))

			return nil, err
		}

		n.log.Error("Cannot add subscriber", slog.String("email", normalized), slog.Any("error", err))

		return nil, fmt.Errorf("cannot add subscriber: %w", err)
	}

	n.log.Info("New subscriber", slog.String("id", s.ID))

	return s, nil
}

func (n *newsletterService) Count(ctx context.Context) (int64, error) {
	count, err := n.repo.Count(ctx)
	if err != nil {
		n.log.Error("Cannot count subscribers", slog.Any("error", err))

		return 0, fmt.Errorf("cannot count subscribers: %w", err)
	}

	return count, nil
}

// Dump writes all subscribers to fileName as a yaml list.
func (n *newsletterService) Dump(ctx context.Context, fileName string) error {
	var subscribers []*entity.Subscriber

	for s, err := range n.repo.SubscriberIterator(ctx) {
		if err != nil {
			n.log.Error("Cannot read subscribers", slog.Any("error", err))

			return fmt.Errorf("cannot read subscribers: %w", err)
		}

		subscribers = append(subscribers, s)
	}

	data, err := yaml.Marshal(subscribers)
	if err != nil {
		return fmt.Errorf("cannot marshal subscribers: %w", err)
	}

	if err := afero.WriteFile(n.fs, fileName, data, 0o644); err != nil {
		n.log.Error("Cannot write dump", slog.String("file", fileName), slog.Any("error", err))

		return fmt.Errorf("cannot write dump: %w", err)
	}

	n.log.Info("Dump subscribers", slog.String("file", fileName), slog.Int("count", len(subscribers)))

	return nil
}
