package counter

import (
	"context"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockViewRepository struct {
	mock.Mock
}

func (m *MockViewRepository) Views(ctx context.Context) (int64, error) {
	args := m.Called(ctx)

	return args.Get(0).(int64), args.Error(1)
}

type MockSubscriberRepository struct {
	mock.Mock
}

func (m *MockSubscriberRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)

	return args.Get(0).(int64), args.Error(1)
}

func TestStats(t *testing.T) {
	ctx := context.Background()

	views := &MockViewRepository{}
	views.On("Views", ctx).Return(int64(42), nil)

	subs := &MockSubscriberRepository{}
	subs.On("Count", ctx).Return(int64(7), nil)

	stats, err := NewCounterService(views, subs, slog.Default()).Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(42), stats.Views)
	assert.Equal(t, int64(7), stats.Subscribers)
}

func TestStatsErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("views", func(t *testing.T) {
		views := &MockViewRepository{}
		views.On("Views", ctx).Return(int64(0), fmt.Errorf("connection refused"))

		subs := &MockSubscriberRepository{}

		_, err := NewCounterService(views, subs, slog.Default()).Stats(ctx)
		require.Error(t, err)
		subs.AssertNotCalled(t, "Count", mock.Anything)
	})

	t.Run("subscribers", func(t *testing.T) {
		views := &MockViewRepository{}
		views.On("Views", ctx).Return(int64(1), nil)

		subs := &MockSubscriberRepository{}
		subs.On("Count", ctx).Return(int64(0), fmt.Errorf("connection refused"))

		_, err := NewCounterService(views, subs, slog.Default()).Stats(ctx)
		require.Error(t, err)
	})
}
