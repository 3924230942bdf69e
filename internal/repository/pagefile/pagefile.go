// Package pagefile stores the rendered page as a plain HTML file. It backs
// the offline build command where no Redis is around.
package pagefile

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/jgivc/harmonyfest/internal/entity"
	"github.com/spf13/afero"
)

type pageFileRepository struct {
	fs       afero.Fs
	fileName string
	log      *slog.Logger
}

func NewPageFileRepository(fs afero.Fs, fileName string, log *slog.Logger) *pageFileRepository {
	return &pageFileRepository{
		fs:       fs,
		fileName: fileName,
		log:      log.With(slog.String("item", "PageFileRepository")),
	}
}

// Save writes into a temp file first and renames it over the target.
func (r *pageFileRepository) Save(_ context.Context, page *entity.Page) error {
	if dir := filepath.Dir(r.fileName); dir != "." {
		if err := r.fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("cannot create dir %s: %w", dir, err)
		}
	}

	tmp := r.fileName + ".tmp"
	if err := afero.WriteFile(r.fs, tmp, []byte(page.Content), 0o644); err != nil {
		return fmt.Errorf("cannot write page: %w", err)
	}

	if err := r.fs.Rename(tmp, r.fileName); err != nil {
		return fmt.Errorf("cannot move page into place: %w", err)
	}

	r.log.Info("Page saved", slog.String("file", r.fileName), slog.String("hash", page.Hash))

	return nil
}
