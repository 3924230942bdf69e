package page

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jgivc/harmonyfest/internal/entity"
)

const (
	serviceName = "page"
)

type PageRepository interface {
	GetPage(ctx context.Context) (string, string, error)
	Info(ctx context.Context) (*entity.PageInfo, error)
	IncViews(ctx context.Context) (int64, error)
}

type pageService struct {
	repo PageRepository
	log  *slog.Logger
}

func NewPageService(repo PageRepository, log *slog.Logger) *pageService {
	return &pageService{
		repo: repo,
		log:  log.With(slog.String("service", serviceName)),
	}
}

// GetPage returns the cached page and its hash. Every call counts as a view;
// a failed count does not fail the call.
func (p *pageService) GetPage(ctx context.Context) (string, string, error) {
	content, hash, err := p.repo.GetPage(ctx)
	if err != nil {
		p.log.Error("Cannot get page content", slog.Any("error", err))

		return "", "", fmt.Errorf("cannot get page content: %w", err)
	}

	if _, err := p.repo.IncViews(ctx); err != nil {
		p.log.Error("Cannot count page view", slog.Any("error", err))
	}

	return content, hash, nil
}

func (p *pageService) Info(ctx context.Context) (*entity.PageInfo, error) {
	info, err := p.repo.Info(ctx)
	if err != nil {
		p.log.Error("Cannot get page info", slog.Any("error", err))

		return nil, fmt.Errorf("cannot get page info: %w", err)
	}

	return info, nil
}
