// Command taskflow runs the DAG task orchestrator CLI: submit, resume,
// and inspect task-graph runs against a configured state store.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/ArtemOtr/taskflow/internal/cache"
	"github.com/ArtemOtr/taskflow/internal/cli"
	"github.com/ArtemOtr/taskflow/internal/config"
	"github.com/ArtemOtr/taskflow/internal/coordinator"
	"github.com/ArtemOtr/taskflow/internal/events"
	"github.com/ArtemOtr/taskflow/internal/logger"
	"github.com/ArtemOtr/taskflow/internal/metrics"
	"github.com/ArtemOtr/taskflow/internal/operations/httpfetch"
	"github.com/ArtemOtr/taskflow/internal/operations/sleep"
	"github.com/ArtemOtr/taskflow/internal/operations/telegram"
	"github.com/ArtemOtr/taskflow/internal/operations/transform"
	"github.com/ArtemOtr/taskflow/internal/registry"
	"github.com/ArtemOtr/taskflow/internal/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	settings, err := config.Load(os.Getenv("TASKFLOW_CONFIG"))
	if err != nil {
		return err
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(settings.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	log := logger.New(level)
	ctx := logger.WithContext(context.Background(), log)

	st, err := store.Open(ctx, settings.StoreDSN)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	reg := registry.New()
	reg.Register(httpfetch.New(settings.RunDir))
	reg.Register(telegram.New(settings.RunDir))
	reg.Register(transform.DictToString{})
	reg.Register(transform.JSONToString{})
	reg.Register(sleep.Op{})

	coord := coordinator.New(reg, st)
	coord.RunDir = settings.RunDir
	coord.Concurrency = settings.Concurrency
	coord.Metrics = metrics.New(prometheus.DefaultRegisterer)

	if settings.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: settings.RedisAddr})
		coord.Cache = cache.NewRedis(rdb, settings.CacheTTL, "")
		coord.Events = events.NewRedisPublisher(rdb, settings.EventsChannel)
	} else {
		coord.Cache = cache.NewMemory(settings.CacheCapacity, settings.CacheTTL)
		coord.Events = events.Noop{}
	}

	root := cli.Root(coord)
	root.SetArgs(os.Args[1:])
	return root.ExecuteContext(ctx)
}
