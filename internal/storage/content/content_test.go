package content

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/jgivc/harmonyfest/internal/common"
	"github.com/jgivc/harmonyfest/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockFSAdapter struct {
	mock.Mock
}

func (m *MockFSAdapter) ListSections() ([]string, error) {
	args := m.Called()

	files, _ := args.Get(0).([]string)

	return files, args.Error(1)
}

func (m *MockFSAdapter) ToSection(fileName string) (*entity.Section, error) {
	args := m.Called(fileName)

	section, _ := args.Get(0).(*entity.Section)

	return section, args.Error(1)
}

func newLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func ids(sections []*entity.Section) []string {
	res := make([]string, 0, len(sections))
	for _, s := range sections {
		res = append(res, s.ID)
	}

	return res
}

func TestScan(t *testing.T) {
	adapter := &MockFSAdapter{}
	adapter.On("ListSections").Return([]string{"a.md", "b.md", "c.md", "d.md", "e.md", "broken.md"}, nil)
	adapter.On("ToSection", "a.md").Return(&entity.Section{ID: "faq", Order: 5, SourcePath: "a.md"}, nil)
	adapter.On("ToSection", "b.md").Return(&entity.Section{ID: "about", Order: 1, SourcePath: "b.md"}, nil)
	adapter.On("ToSection", "c.md").Return(&entity.Section{ID: "schedule", Order: 1, SourcePath: "c.md"}, nil)
	adapter.On("ToSection", "d.md").Return(&entity.Section{ID: "draft", Order: 2, Hidden: true, SourcePath: "d.md"}, nil)
	adapter.On("ToSection", "e.md").Return(&entity.Section{ID: "highlights", SourcePath: "e.md"}, nil)
	adapter.On("ToSection", "broken.md").Return(nil, fmt.Errorf("cannot decode frontmatter"))

	var buf bytes.Buffer
	store := NewContentStorage(adapter, 3, newLogger(&buf))

	sections, err := store.Scan(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"highlights", "about", "schedule", "faq"}, ids(sections))
	assert.Contains(t, buf.String(), "Cannot parse section")
	assert.Contains(t, buf.String(), "Skip hidden section")
	adapter.AssertExpectations(t)
}

func TestScanDuplicateID(t *testing.T) {
	adapter := &MockFSAdapter{}
	adapter.On("ListSections").Return([]string{"01-about.md", "02-about.md"}, nil)
	adapter.On("ToSection", "01-about.md").Return(&entity.Section{ID: "about", Order: 1, SourcePath: "01-about.md"}, nil)
	adapter.On("ToSection", "02-about.md").Return(&entity.Section{ID: "about", Order: 2, SourcePath: "02-about.md"}, nil)

	var buf bytes.Buffer
	store := NewContentStorage(adapter, 1, newLogger(&buf))

	sections, err := store.Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, sections, 1)
	assert.Contains(t, buf.String(), "Duplicate section id")
}

func TestScanEmpty(t *testing.T) {
	adapter := &MockFSAdapter{}
	adapter.On("ListSections").Return([]string{}, nil)

	store := NewContentStorage(adapter, 2, slog.Default())

	sections, err := store.Scan(context.Background())
	require.NoError(t, err)
	assert.Empty(t, sections)
}

func TestScanListError(t *testing.T) {
	adapter := &MockFSAdapter{}
	adapter.On("ListSections").Return(nil, fmt.Errorf("no such dir"))

	store := NewContentStorage(adapter, 2, slog.Default())

	_, err := store.Scan(context.Background())
	require.Error(t, err)
}

func TestScanAlreadyRunning(t *testing.T) {
	release := make(chan struct{})

	adapter := &MockFSAdapter{}
	adapter.On("ListSections").Return([]string{"a.md"}, nil)
	adapter.On("ToSection", "a.md").
		Run(func(mock.Arguments) { <-release }).
		Return(&entity.Section{ID: "a"}, nil)

	store := NewContentStorage(adapter, 1, slog.Default())

	errCh := make(chan error, 1)
	go func() {
		_, err := store.Scan(context.Background())
		errCh <- err
	}()

	require.Eventually(t, store.running.Load, time.Second, time.Millisecond)

	_, err := store.Scan(context.Background())
	require.ErrorIs(t, err, common.ErrBuildAlreadyStarted)

	close(release)
	require.NoError(t, <-errCh)

	// the guard is released
	_, err = store.Scan(context.Background())
	require.NoError(t, err)
}

func TestScanCanceled(t *testing.T) {
	adapter := &MockFSAdapter{}
	adapter.On("ListSections").Return([]string{"a.md"}, nil)
	adapter.On("ToSection", "a.md").Return(&entity.Section{ID: "a"}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := NewContentStorage(adapter, 1, slog.Default())

	_, err := store.Scan(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
