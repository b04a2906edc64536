package cli

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/et0and/ocular/internal/cache"
	"github.com/et0and/ocular/internal/config"
	"github.com/et0and/ocular/internal/db"
	"github.com/et0and/ocular/internal/history"
	"github.com/et0and/ocular/internal/report"
	"github.com/et0and/ocular/internal/storage"
)

func buildCache(cfg config.Config, logger *log.Logger) (cache.CourseWork, func(), error) {
	switch cfg.CacheDriver {
	case config.CacheMemory, "":
		return cache.NewMemory(cfg.CacheTTL), func() {}, nil
	case config.CacheRedis:
		r := cache.NewRedis(cfg.RedisAddr, cfg.CacheTTL, logger)
		return r, func() { _ = r.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unsupported cache driver: %s", cfg.CacheDriver)
	}
}

// buildSinks returns the enabled report sinks. hist is nil unless a history
// database is configured.
func buildSinks(ctx context.Context, cfg config.Config, out io.Writer) (sinks []report.Sink, hist *history.Store, closeFn func(), err error) {
	closeFn = func() {}

	if cfg.ExportDir != "" {
		bs, err := storage.NewFSStore(cfg.ExportDir)
		if err != nil {
			return nil, nil, closeFn, fmt.Errorf("export dir: %w", err)
		}
		sinks = append(sinks, &report.XLSXExporter{Store: bs, Out: out})
	}

	driver, err := db.ParseDriver(cfg.HistoryDriver)
	if err != nil {
		return nil, nil, closeFn, err
	}
	if driver == db.DriverNone {
		return sinks, nil, closeFn, nil
	}
	h, err := db.Open(ctx, driver, cfg.HistoryDSN)
	if err != nil {
		return nil, nil, closeFn, fmt.Errorf("history db: %w", err)
	}
	hist = history.NewStore(h)
	return append(sinks, hist), hist, func() { _ = h.Close() }, nil
}
