package content

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/jgivc/harmonyfest/internal/common"
	"github.com/jgivc/harmonyfest/internal/entity"
)

type FSAdapter interface {
	ListSections() ([]string, error)
	ToSection(fileName string) (*entity.Section, error)
}

type contentStorage struct {
	running atomic.Bool
	adapter FSAdapter
	workers int
	log     *slog.Logger
}

func NewContentStorage(adapter FSAdapter, workers int, log *slog.Logger) *contentStorage {
	if workers < 1 {
		workers = 1
	}

	return &contentStorage{
		adapter: adapter,
		workers: workers,
		log:     log.With(slog.String("item", "ContentStorage")),
	}
}

// Scan parses every section file of the content dir. Files that fail to
// parse are logged and left out, hidden sections are dropped. The result is
// ordered by Order, then ID.
func (c *contentStorage) Scan(ctx context.Context) ([]*entity.Section, error) {
	if !c.running.CompareAndSwap(false, true) {
		return nil, common.ErrBuildAlreadyStarted
	}
	defer c.running.Store(false)

	files, err := c.adapter.ListSections()
	if err != nil {
		return nil, fmt.Errorf("cannot list sections: %w", err)
	}

	if len(files) == 0 {
		return []*entity.Section{}, nil
	}

	in := make(chan string, len(files))
	out := make(chan *entity.Section, len(files))

	for _, file := range files {
		in <- file
	}
	close(in)

	workers := min(c.workers, len(files))

	var wg sync.WaitGroup
	wg.Add(workers)
	for n := 0; n < workers; n++ {
		go c.worker(ctx, n, in, out, &wg)
	}

	go func() {
		wg.Wait()
		close(out)
	}()

	var (
		sections []*entity.Section
		seen     = make(map[string]string)
	)

	for section := range out {
		if section.Hidden {
			c.log.Info("Skip hidden section", slog.String("id", section.ID), slog.String("path", section.SourcePath))

			continue
		}

		if path, exists := seen[section.ID]; exists {
			c.log.Warn("Duplicate section id", slog.String("id", section.ID), slog.String("path", section.SourcePath), slog.String("first", path))

			continue
		}

		seen[section.ID] = section.SourcePath
		c.log.Info("Found section", slog.String("id", section.ID), slog.String("path", section.SourcePath))
		sections = append(sections, section)
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("scan interrupted: %w", err)
	}

	sortSections(sections)

	return sections, nil
}

func sortSections(sections []*entity.Section) {
	sort.SliceStable(sections, func(i, j int) bool {
		if sections[i].Order != sections[j].Order {
			return sections[i].Order < sections[j].Order
		}

		return sections[i].ID < sections[j].ID
	})
}

func (c *contentStorage) worker(ctx context.Context, n int, in chan string, out chan *entity.Section, wg *sync.WaitGroup) {
	defer wg.Done()

	log := c.log.With(slog.Int("worker_id", n))
	log.Debug("Started")

	for fileName := range in {
		section, err := c.adapter.ToSection(fileName)
		if err != nil {
			log.Error("Cannot parse section", slog.String("path", fileName), slog.Any("error", err))

			continue
		}

		select {
		case <-ctx.Done():
			log.Info("Interrupted")

			return
		case out <- section:
		}
	}

	log.Debug("Done")
}
