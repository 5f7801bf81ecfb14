package main

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"rill/internal/config"
	"rill/internal/diskcache"
	"rill/internal/downloads"
	"rill/internal/filter"
	"rill/internal/logging"
	"rill/internal/media"
	"rill/internal/nameparse"
	"rill/internal/pipeline"
	"rill/internal/provider"
	"rill/internal/scanner"
	"rill/internal/selector"
	"rill/internal/store"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	appOnce sync.Once
	app     *application
	appErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// application holds the wired stages for one CLI invocation.
type application struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *store.Store
	manager  *downloads.Manager
	pipeline *pipeline.Pipeline
}

func (c *commandContext) ensureApp() (*application, error) {
	c.appOnce.Do(func() {
		c.app, c.appErr = c.buildApp()
	})
	return c.app, c.appErr
}

func (c *commandContext) buildApp() (*application, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(logging.Options{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stderr", cfg.LogFilePath()},
	})
	if err != nil {
		return nil, err
	}

	st, err := store.Open(cfg)
	if err != nil {
		return nil, err
	}

	backend, err := newBackend(cfg.Downloads.Backend)
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	manager := downloads.NewManager(st, backend, logger)

	registry, err := newRegistry(cfg)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	var scanCache, parseCache *diskcache.Cache
	if cfg.Scanner.CacheEnabled {
		scanCache = diskcache.New(cfg.ScanCacheDir(),
			time.Duration(cfg.Scanner.CacheTTLSeconds)*time.Second, logger)
	}
	if cfg.Parser.CacheEnabled {
		parseCache = diskcache.New(cfg.ParseCacheDir(),
			time.Duration(cfg.Parser.CacheTTLSeconds)*time.Second, logger)
	}

	sc := scanner.New(registry, scanCache, logger, scanner.Options{
		Iterations:        cfg.Scanner.Iterations,
		FetchTimeout:      time.Duration(cfg.Scanner.FetchTimeoutSeconds) * time.Second,
		RequestsPerSecond: cfg.Scanner.RequestsPerSecond,
	})
	parser := nameparse.New(parseCache, logger)

	engine, err := filter.DefaultEngine(logger, func(src *media.Source) (string, bool) {
		state, ok := manager.StateForSource(context.Background(), src)
		return string(state), ok
	})
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	return &application{
		cfg:      cfg,
		logger:   logger,
		store:    st,
		manager:  manager,
		pipeline: pipeline.New(sc, parser, engine, st, selector.Basic{}, manager, logger),
	}, nil
}

func (a *application) Close() {
	if a == nil {
		return
	}
	_ = a.store.Close()
}

func newBackend(name string) (downloads.Downloader, error) {
	switch name {
	case "", "mock":
		return downloads.NewMock(), nil
	default:
		return nil, fmt.Errorf("unknown download backend %q", name)
	}
}

func newRegistry(cfg *config.Config) (*provider.Registry, error) {
	names := make([]string, 0, len(cfg.Providers))
	for name := range cfg.Providers {
		names = append(names, name)
	}
	sort.Strings(names)

	registry := provider.NewRegistry()
	for _, name := range names {
		p := cfg.Providers[name]
		if !cfg.ProviderEnabled(name) || p.URL == "" {
			continue
		}
		feed := provider.NewFeed(name, p.URL, provider.FeedOptions{
			Timeout:         time.Duration(cfg.Scanner.FetchTimeoutSeconds) * time.Second,
			DefaultType:     p.DefaultType,
			DefaultLanguage: p.DefaultLanguage,
		})
		if err := registry.Register(feed); err != nil {
			return nil, err
		}
	}
	return registry, nil
}
