package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/actinia-org/actinia-gdi/internal/config"
	"github.com/actinia-org/actinia-gdi/internal/describe"
	"github.com/actinia-org/actinia-gdi/internal/engine"
	"github.com/actinia-org/actinia-gdi/internal/store"
)

// Runtime bundles the components built from configuration.
type Runtime struct {
	Store     store.Store
	Describer *describe.Service
	Engine    *engine.Engine

	client      redis.UniversalClient
	closeClient bool // false when the store owns client
}

// OpenRuntime opens the configured store and describe source and builds an
// engine over them.
func OpenRuntime(cfg config.Config, logger zerolog.Logger) (*Runtime, error) {
	rt := &Runtime{}

	if cfg.Store.Redis.Addr != "" && (cfg.Store.Backend == config.BackendRedis || cfg.CacheEnabled()) {
		rt.client = redis.NewClient(&redis.Options{
			Addr:     cfg.Store.Redis.Addr,
			Password: cfg.Store.Redis.Password,
			DB:       cfg.Store.Redis.DB,
		})
		rt.closeClient = true
	}

	st, err := openStore(cfg.Store, rt.client)
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.Store = st
	if cfg.Store.Backend == config.BackendRedis {
		rt.closeClient = false
	}

	var source describe.Source
	switch cfg.Describe.Source {
	case config.SourceDir:
		source = describe.DirSource{Dir: cfg.Describe.XMLDir}
	default:
		source = describe.NewExecSource(cfg.Describe.GrassBin, cfg.Describe.Timeout)
	}
	if cfg.CacheEnabled() {
		source = describe.NewCachedSource(source, rt.client, cfg.Describe.CacheTTL,
			describe.WithCacheLogger(logger.With().Str("component", "describe-cache").Logger()))
	}

	rt.Describer = describe.NewService(source,
		describe.WithOverrides(describe.NewOverrides(cfg.Describe.OverrideDir)),
		describe.WithLogger(logger.With().Str("component", "describe").Logger()),
	)
	rt.Engine = engine.New(rt.Store, rt.Describer,
		engine.WithMaxDepth(cfg.Engine.MaxDepth),
		engine.WithLogger(logger.With().Str("component", "engine").Logger()),
	)
	return rt, nil
}

func openStore(cfg config.StoreConfig, client redis.UniversalClient) (store.Store, error) {
	switch cfg.Backend {
	case config.BackendSQLite:
		st, err := store.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store %s: %w", cfg.SQLitePath, err)
		}
		return st, nil
	case config.BackendRedis:
		if client == nil {
			return nil, errors.New("redis backend requires store.redis.addr")
		}
		return store.NewRedisStore(client), nil
	default:
		return store.NewFileStore(cfg.Dir), nil
	}
}

// Close releases the store and any redis client it does not own.
func (rt *Runtime) Close() error {
	var errs []error
	if rt.Store != nil {
		errs = append(errs, rt.Store.Close())
	}
	if rt.client != nil && rt.closeClient {
		errs = append(errs, rt.client.Close())
	}
	return errors.Join(errs...)
}

// withRuntime opens a runtime for one command invocation. Failures to open
// it are reported as store errors.
func withRuntime(opts *RootOptions, cmd *cobra.Command, fn func(ctx context.Context, rt *Runtime, f *OutputFormatter) error) error {
	f := NewOutputFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
	rt, err := OpenRuntime(opts.Config, opts.Logger)
	if err != nil {
		_ = f.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, ErrCodeStore, err)
	}
	defer rt.Close()
	return fn(cmd.Context(), rt, f)
}
