package build

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/jgivc/harmonyfest/internal/common"
	"github.com/jgivc/harmonyfest/internal/entity"
)

const (
	serviceName = "build"
)

type ContentStorage interface {
	Scan(ctx context.Context) ([]*entity.Section, error)
}

type PageRenderer interface {
	RenderPage(sections []*entity.Section) (*entity.Page, error)
}

type PageRepository interface {
	Save(ctx context.Context, page *entity.Page) error
}

type buildService struct {
	running  atomic.Bool
	store    ContentStorage
	renderer PageRenderer
	repo     PageRepository
	log      *slog.Logger
}

func NewBuildService(store ContentStorage, renderer PageRenderer, repo PageRepository, log *slog.Logger) *buildService {
	return &buildService{
		store:    store,
		renderer: renderer,
		repo:     repo,
		log:      log.With(slog.String("service", serviceName)),
	}
}

// Build scans the content dir, renders the page and makes it the served one.
// Only one build runs at a time, from scan to save.
func (b *buildService) Build(ctx context.Context) (*entity.Page, error) {
	if !b.running.CompareAndSwap(false, true) {
		b.log.Warn("Build already started")

		return nil, common.ErrBuildAlreadyStarted
	}
	defer b.running.Store(false)

	sections, err := b.store.Scan(ctx)
	if err != nil {
		b.log.Error("Cannot scan", slog.Any("error", err))

		return nil, fmt.Errorf("cannot scan content: %w", err)
	}

	if len(sections) < 1 {
		b.log.Error("Cannot find sections")

		return nil, common.ErrNoSectionsFoundError
	}

	b.log.Info("Scan content dir", slog.Int("count", len(sections)))

	page, err := b.renderer.RenderPage(sections)
	if err != nil {
		b.log.Error("Cannot render page", slog.Any("error", err))

		return nil, fmt.Errorf("cannot render page: %w", err)
	}

	if err := b.repo.Save(ctx, page); err != nil {
		b.log.Error("Cannot save page", slog.Any("error", err))

		return nil, fmt.Errorf("cannot save page: %w", err)
	}

	b.log.Info("Page is built", slog.String("hash", page.Hash), slog.Int("sections", page.Sections))

	return page, nil
}
