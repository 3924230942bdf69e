package page

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jgivc/harmonyfest/internal/common"
	"github.com/jgivc/harmonyfest/internal/entity"
	"github.com/redis/go-redis/v9"
)

const (
	KeyVersion1      = "v1"
	KeyVersion2      = "v2"
	KeyActiveVersion = "av" // STRING.
	KeyPageContent   = "pc" // STRING. pc:ver -> HTML
	KeyPageHash      = "ph" // STRING. ph:ver -> ETag
	KeySectionMeta   = "sm" // HASH. sm:ver sections: N, built_at: unix nano
	KeyStats         = "st" // HASH. views: N

	FieldSections = "sections"
	FieldBuiltAt  = "built_at"
	FieldViews    = "views"

	KeyEmpty     = ""
	KeySeparator = ":"

	ScanCount = 1000
)

var (
	ClearableKeys = []string{KeyPageContent, KeyPageHash, KeySectionMeta}
)

type pageRepository struct {
	saveMu sync.Mutex
	ver    atomic.Value
	cl     *redis.Client
	log    *slog.Logger
}

func NewPageRepository(cl *redis.Client, log *slog.Logger) (*pageRepository, error) {
	repo := &pageRepository{
		cl:  cl,
		log: log.With(slog.String("item", "PageRepository")),
	}

	ver, _, err := repo.getVersions(context.Background())
	if err != nil {
		return nil, fmt.Errorf("cannot get active version: %w", err)
	}

	repo.ver.Store(ver)

	return repo, nil
}

// Save writes the page to the standby version and makes it active.
// Readers see either the old page or the new one, never a mix. Saves are
// serialized so the standby version is never the active one.
func (r *pageRepository) Save(ctx context.Context, page *entity.Page) error {
	r.saveMu.Lock()
	defer r.saveMu.Unlock()

	verActive, verStandby, err := r.getVersions(ctx)
	if err != nil {
		r.log.Error("Cannot get standby data version", slog.Any("error", err))

		return fmt.Errorf("cannot get active version: %w", err)
	}
	r.log.Info("Save new page", slog.String("active_version", verActive), slog.String("standby_version", verStandby))

	if err := r.clearOldData(ctx, verStandby); err != nil {
		r.log.Error("Cannot clear old data", slog.String("version", verStandby), slog.Any("error", err))

		return fmt.Errorf("cannot clear old data: %w", err)
	}

	if err := r.saveNewData(ctx, verStandby, page); err != nil {
		r.log.Error("Cannot save new data", slog.String("version", verStandby), slog.Any("error", err))

		return fmt.Errorf("cannot save new data: %w", err)
	}

	if _, err := r.cl.Set(ctx, KeyActiveVersion, verStandby, 0).Result(); err != nil {
		r.log.Error("Cannot switch to new version", slog.String("version", verStandby), slog.Any("error", err))

		return fmt.Errorf("cannot switch to new version: %w", err)
	}

	r.ver.Store(verStandby)

	return nil
}

func (r *pageRepository) saveNewData(ctx context.Context, ver string, page *entity.Page) error {
	pipe := r.cl.TxPipeline()
	pipe.Set(ctx, getKey(KeyPageContent, ver), page.Content, 0)
	pipe.Set(ctx, getKey(KeyPageHash, ver), page.Hash, 0)
	pipe.HSet(ctx, getKey(KeySectionMeta, ver),
		FieldSections, page.Sections,
		FieldBuiltAt, page.BuiltAt.UnixNano(),
	)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cannot save page: %w", err)
	}

	return nil
}

func (r *pageRepository) clearOldData(ctx context.Context, ver string) error {
	log := r.log.With(slog.String("op", "clearOldData"), slog.String("version", ver))

	for _, key := range ClearableKeys {
		pattern := getKey(key, ver, "*")

		var (
			cursor       uint64
			deletedCount int64
		)

		for {
			keys, nextCursor, err := r.cl.Scan(ctx, cursor, pattern, ScanCount).Result()
			if err != nil {
				return fmt.Errorf("error scanning keys: %w", err)
			}

			if len(keys) > 0 {
				count, err := r.cl.Del(ctx, keys...).Result()
				if err != nil {
					return fmt.Errorf("error deleting keys: %w", err)
				}
				deletedCount += count
			}

			cursor = nextCursor
			if cursor == 0 {
				break
			}
		}

		if _, err := r.cl.Del(ctx, getKey(key, ver)).Result(); err != nil {
			return fmt.Errorf("error deleting keys: %w", err)
		}

		log.Debug("Clear keys", slog.String("pattern", pattern), slog.Int64("key_count", deletedCount))
	}

	return nil
}

// getVersions returns active and standby versions.
func (r *pageRepository) getVersions(ctx context.Context) (string, string, error) {
	ver, err := r.cl.Get(ctx, KeyActiveVersion).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return KeyEmpty, KeyEmpty, fmt.Errorf("cannot get active version: %w", err)
	}

	switch ver {
	case KeyVersion1:
		return KeyVersion1, KeyVersion2, nil
	case KeyVersion2:
		return KeyVersion2, KeyVersion1, nil
	}

	r.log.Info("Active version key is not found. Try to set new one", slog.String("version", KeyVersion1))

	if _, err = r.cl.Set(ctx, KeyActiveVersion, KeyVersion1, 0).Result(); err != nil {
		return KeyEmpty, KeyEmpty, fmt.Errorf("cannot set version key: %w", err)
	}

	return KeyVersion1, KeyVersion2, nil
}

func (r *pageRepository) getActiveVersion() string {
	return r.ver.Load().(string)
}

// GetPage returns the active page content and its hash.
func (r *pageRepository) GetPage(ctx context.Context) (string, string, error) {
	ver := r.getActiveVersion()

	pipe := r.cl.Pipeline()
	contentCmd := pipe.Get(ctx, getKey(KeyPageContent, ver))
	hashCmd := pipe.Get(ctx, getKey(KeyPageHash, ver))

	if _, err := pipe.Exec(ctx); err != nil {
		if errors.Is(err, redis.Nil) {
			return "", "", common.ErrPageNotFoundError
		}

		return "", "", fmt.Errorf("cannot get page: %w", err)
	}

	return contentCmd.Val(), hashCmd.Val(), nil
}

func (r *pageRepository) Info(ctx context.Context) (*entity.PageInfo, error) {
	ver := r.getActiveVersion()

	hash, err := r.cl.Get(ctx, getKey(KeyPageHash, ver)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, common.ErrPageNotFoundError
		}

		return nil, fmt.Errorf("cannot get page hash: %w", err)
	}

	meta, err := r.cl.HGetAll(ctx, getKey(KeySectionMeta, ver)).Result()
	if err != nil {
		return nil, fmt.Errorf("cannot get page meta: %w", err)
	}

	info := &entity.PageInfo{
		Version: ver,
		Hash:    hash,
	}

	if v, ok := meta[FieldSections]; ok {
		if info.Sections, err = strconv.Atoi(v); err != nil {
			r.log.Error("Cannot convert sections value to int", slog.Any("error", err))
		}
	}

	if v, ok := meta[FieldBuiltAt]; ok {
		ns, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			r.log.Error("Cannot convert built_at value to int", slog.Any("error", err))
		} else {
			info.BuiltAt = time.Unix(0, ns)
		}
	}

	return info, nil
}

func (r *pageRepository) IncViews(ctx context.Context) (int64, error) {
	views, err := r.cl.HIncrBy(ctx, KeyStats, FieldViews, 1).Result()
	if err != nil {
		return 0, fmt.Errorf("cannot increment views counter: %w", err)
	}

	return views, nil
}

func (r *pageRepository) Views(ctx context.Context) (int64, error) {
	views, err := r.cl.HGet(ctx, KeyStats, FieldViews).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}

		return 0, fmt.Errorf("cannot get views counter: %w", err)
	}

	return views, nil
}

func getKey(keys ...string) string {
	return strings.Join(keys, KeySeparator)
}
