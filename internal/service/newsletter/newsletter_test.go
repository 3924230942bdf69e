package newsletter

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"testing"
	"time"

	"github.com/jgivc/harmonyfest/internal/clock"
	"github.com/jgivc/harmonyfest/internal/common"
	"github.com/jgivc/harmonyfest/internal/entity"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"
)

type MockSubscriberRepository struct {
	mock.Mock
}

func (m *MockSubscriberRepository) Add(ctx context.Context, s *entity.Subscriber) error {
	return m.Called(ctx, s).Error(0)
}

func (m *MockSubscriberRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)

	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSubscriberRepository) SubscriberIterator(ctx context.Context) iter.Seq2[*entity.Subscriber, error] {
	return m.Called(ctx).Get(0).(iter.Seq2[*entity.Subscriber, error])
}

func seq(subscribers []*entity.Subscriber, err error) iter.Seq2[*entity.Subscriber, error] {
	return func(yield func(*entity.Subscriber, error) bool) {
		for _, s := range subscribers {
			if !yield(s, nil) {
				return
			}
		}

		if err != nil {
			yield(nil, err)
		}
	}
}

var now = time.Date(2024, 9, 1, 8, 30, 0, 0, time.UTC)

func TestNormalizeEmail(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
		err      bool
	}{
		{"fan@example.com", "fan@example.com", false},
		{"  Fan@Example.COM \n", "fan@example.com", false},
		{"first.last+tag@sub.example.org", "first.last+tag@sub.example.org", false},
		{"", "", true},
		{"   ", "", true},
		{"fan", "", true},
		{"fan@", "", true},
		{"@example.com", "", true},
		{"fan@localhost", "", true},
		{"Fan <fan@example.com>", "", true},
		{"a@b.c, d@e.f", "", true},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			got, err := NormalizeEmail(tc.input)
			if tc.err {
				require.ErrorIs(t, err, common.ErrInvalidEmail)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestSubscribe(t *testing.T) {
	ctx := context.Background()

	repo := &MockSubscriberRepository{}
	repo.On("Add", ctx, mock.MatchedBy(func(s *entity.Subscriber) bool {
		return s.Email == "fan@example.com" && s.ID != "" && s.CreatedAt.Equal(now)
	})).Return(nil)

	svc := NewNewsletterService(repo, afero.NewMemMapFs(), clock.NewFixed(now), slog.Default())

	s, err := svc.Subscribe(ctx, " FAN@example.com")
	require.NoError(t, err)
	assert.Equal(t, "fan@example.com", s.Email)
	assert.Len(t, s.ID, 36)
	repo.AssertExpectations(t)
}

func TestSubscribeInvalid(t *testing.T) {
	repo := &MockSubscriberRepository{}
	svc := NewNewsletterService(repo, afero.NewMemMapFs(), clock.NewFixed(now), slog.Default())

	_, err := svc.Subscribe(context.Background(), "not an email")
	require.ErrorIs(t, err, common.ErrInvalidEmail)
	repo.AssertNotCalled(t, "Add", mock.Anything, mock.Anything)
}

func TestSubscribeDuplicate(t *testing.T) {
	ctx := context.Background()

	repo := &MockSubscriberRepository{}
	repo.On("Add", ctx, mock.Anything).Return(common.ErrAlreadySubscribed)

	svc := NewNewsletterService(repo, afero.NewMemMapFs(), clock.NewFixed(now), slog.Default())

	_, err := svc.Subscribe(ctx, "fan@example.com")
	require.ErrorIs(t, err, common.ErrAlreadySubscribed)
}

func TestSubscribeRepoError(t *testing.T) {
	ctx := context.Background()

	repo := &MockSubscriberRepository{}
	repo.On("Add", ctx, mock.Anything).Return(fmt.Errorf("connection refused"))

	svc := NewNewsletterService(repo, afero.NewMemMapFs(), clock.NewFixed(now), slog.Default())

	_, err := svc.Subscribe(ctx, "fan@example.com")
	require.Error(t, err)
	require.NotErrorIs(t, err, common.ErrAlreadySubscribed)
}

func TestCount(t *testing.T) {
	ctx := context.Background()

	repo := &MockSubscriberRepository{}
	repo.On("Count", ctx).Return(int64(12), nil)

	n, err := NewNewsletterService(repo, afero.NewMemMapFs(), nil, slog.Default()).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(12), n)
}

func TestDump(t *testing.T) {
	ctx := context.Background()
	subscribers := []*entity.Subscriber{
		{ID: "1", Email: "a@example.com", CreatedAt: now},
		{ID: "2", Email: "b@example.com", CreatedAt: now.Add(time.Hour)},
	}

	repo := &MockSubscriberRepository{}
	repo.On("SubscriberIterator", ctx).Return(seq(subscribers, nil))

	fs := afero.NewMemMapFs()
	svc := NewNewsletterService(repo, fs, clock.NewFixed(now), slog.Default())

	require.NoError(t, svc.Dump(ctx, "subscribers.yml"))

	data, err := afero.ReadFile(fs, "subscribers.yml")
	require.NoError(t, err)

	var got []*entity.Subscriber
	require.NoError(t, yaml.Unmarshal(data, &got))
	require.Len(t, got, 2)
	assert.Equal(t, "a@example.com", got[0].Email)
	assert.Equal(t, "2", got[1].ID)
}

func TestDumpIteratorError(t *testing.T) {
	ctx := context.Background()

	repo := &MockSubscriberRepository{}
	repo.On("SubscriberIterator", ctx).Return(seq([]*entity.Subscriber{{ID: "1"}}, fmt.Errorf("connection reset")))

	fs := afero.NewMemMapFs()
	svc := NewNewsletterService(repo, fs, clock.NewFixed(now), slog.Default())

	require.Error(t, svc.Dump(ctx, "subscribers.yml"))

	exists, err := afero.Exists(fs, "subscribers.yml")
	require.NoError(t, err)
	assert.False(t, exists)
}
