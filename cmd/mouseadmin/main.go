package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/mouseadmin/internal/backfill"
	"git.home.luguber.info/inful/mouseadmin/internal/config"
	"git.home.luguber.info/inful/mouseadmin/internal/errors"
	"git.home.luguber.info/inful/mouseadmin/internal/fields"
	"git.home.luguber.info/inful/mouseadmin/internal/metrics"
	"git.home.luguber.info/inful/mouseadmin/internal/neocities"
	"git.home.luguber.info/inful/mouseadmin/internal/publish"
	"git.home.luguber.info/inful/mouseadmin/internal/remotecache"
	"git.home.luguber.info/inful/mouseadmin/internal/render"
	"git.home.luguber.info/inful/mouseadmin/internal/store"
)

var CLI struct {
	Config  string `short:"c" help:"Configuration file path" default:"mouseadmin.yaml"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Init struct {
		Force bool `help:"Overwrite existing configuration file"`
	} `cmd:"" help:"Write an example configuration file"`

	InitDB struct{} `cmd:"" name:"init-db" help:"Create the database tables and the stock game-review schema"`

	Publish struct {
		Schema string `short:"s" default:"Game reviews" help:"Schema name to publish"`
		Record int64  `short:"r" help:"Publish a single record instead of the whole schema"`
	} `cmd:"" help:"Render and upload changed files to the remote host"`

	Render struct {
		Schema string `short:"s" default:"Game reviews" help:"Schema name to render"`
		Output string `short:"o" default:"./site" help:"Directory to write rendered files to"`
	} `cmd:"" help:"Render the full file set locally without uploading"`

	Delete struct {
		Schema string `short:"s" default:"Game reviews" help:"Schema the record belongs to"`
		Record int64  `arg:"" help:"Record ID to delete"`
	} `cmd:"" help:"Delete a record locally and remotely, then republish the index"`

	Import struct {
		Schema string   `short:"s" default:"Game reviews" help:"Schema to import into"`
		URLs   []string `arg:"" name:"url" help:"Published page URLs to import"`
	} `cmd:"" help:"Import already-published review pages into the record store"`

	MigrateDates struct {
		Schema string `short:"s" default:"Game reviews" help:"Schema whose date values to migrate"`
	} `cmd:"" name:"migrate-dates" help:"Rewrite legacy short-format date values to ISO"`

	List struct {
		Schema string `short:"s" default:"Game reviews" help:"Schema whose remote files to list"`
	} `cmd:"" help:"List the remote files under a schema's base path"`
}

func main() {
	kctx := kong.Parse(&CLI)

	logLevel := slog.LevelInfo
	if CLI.Verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	adapter := errors.NewCLIErrorAdapter(CLI.Verbose, logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	switch kctx.Command() {
	case "init":
		adapter.HandleError(config.Init(CLI.Config, CLI.Init.Force))
	case "init-db":
		adapter.HandleError(runInitDB(ctx))
	case "publish":
		adapter.HandleError(runPublish(ctx))
	case "render":
		adapter.HandleError(runRender(ctx))
	case "delete <record>":
		adapter.HandleError(runDelete(ctx))
	case "import <url>":
		adapter.HandleError(runImport(ctx))
	case "migrate-dates":
		adapter.HandleError(runMigrateDates(ctx))
	case "list":
		adapter.HandleError(runList(ctx))
	}
}

// app bundles the wired collaborators every remote-facing command needs.
type app struct {
	store    *store.Store
	registry *fields.Registry
	cache    *remotecache.Cache
	pipeline *publish.Pipeline
}

func buildApp() (*app, error) {
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		return nil, err
	}

	recorder := startMetrics(cfg)

	client := neocities.NewClient(cfg.Site.APIURL, cfg.Site.APIKey)
	cache := remotecache.New(cfg.Cache.Directory, cfg.Site.BaseURL, client, cfg.Cache.ListTTL.Std(),
		remotecache.WithRecorder(recorder))
	registry := fields.Builtin(fields.BuiltinOptions{
		Fetcher:      cache,
		ThumbnailBox: cfg.Publish.ThumbnailBox,
	})

	pipeline := publish.New(st, registry, render.New(), client, cache, publish.Options{
		BatchSize:        cfg.Publish.BatchSize,
		BatchCooldown:    cfg.Publish.BatchCooldown.Std(),
		MinWriteInterval: cfg.Publish.MinWriteInterval.Std(),
		Recorder:         recorder,
	})

	return &app{
		store:    st,
		registry: registry,
		cache:    cache,
		pipeline: pipeline,
	}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		slog.Warn("closing record store failed", "error", err)
	}
}

func (a *app) schemaByName(ctx context.Context, name string) (int64, error) {
	sc, err := a.store.GetSchemaByName(ctx, name)
	if err != nil {
		return 0, err
	}
	return sc.ID, nil
}

// startMetrics exposes the Prometheus endpoint when configured and returns
// the recorder the pipeline should use.
func startMetrics(cfg *config.Config) metrics.Recorder {
	if !cfg.Metrics.Enabled {
		return metrics.NoopRecorder{}
	}
	registry := prom.NewRegistry()
	recorder := metrics.NewPrometheusRecorder(registry)
	go func() {
		slog.Info("serving metrics", "listen", cfg.Metrics.Listen)
		if err := http.ListenAndServe(cfg.Metrics.Listen, metrics.HTTPHandler(registry)); err != nil {
			slog.Warn("metrics listener stopped", "error", err)
		}
	}()
	return recorder
}

func runInitDB(ctx context.Context) error {
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		return err
	}
	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer st.Close()

	sc, err := st.SeedGameReviews(ctx)
	if err != nil {
		return err
	}
	slog.Info("database initialized", "schema", sc.Name, "fields", len(sc.Fields))
	return nil
}

func runPublish(ctx context.Context) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.Close()

	schemaID, err := a.schemaByName(ctx, CLI.Publish.Schema)
	if err != nil {
		return err
	}
	if CLI.Publish.Record > 0 {
		return a.pipeline.PublishRecord(ctx, schemaID, CLI.Publish.Record)
	}
	return a.pipeline.PublishSchema(ctx, schemaID)
}

func runRender(ctx context.Context) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.Close()

	schemaID, err := a.schemaByName(ctx, CLI.Render.Schema)
	if err != nil {
		return err
	}
	files, err := a.pipeline.RenderAll(ctx, schemaID)
	if err != nil {
		return err
	}

	for remotePath, content := range files {
		local := filepath.Join(CLI.Render.Output, filepath.FromSlash(remotePath))
		if err := os.MkdirAll(filepath.Dir(local), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(local, content, 0o644); err != nil {
			return err
		}
	}
	slog.Info("rendered file set", "output", CLI.Render.Output, "files", len(files))
	return nil
}

func runDelete(ctx context.Context) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.Close()

	schemaID, err := a.schemaByName(ctx, CLI.Delete.Schema)
	if err != nil {
		return err
	}
	return a.pipeline.DeleteRecord(ctx, schemaID, CLI.Delete.Record)
}

func runImport(ctx context.Context) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.Close()

	schemaID, err := a.schemaByName(ctx, CLI.Import.Schema)
	if err != nil {
		return err
	}
	imp := &backfill.Importer{
		Store:    a.store,
		Registry: a.registry,
		Fetcher:  a.cache,
	}
	n, err := imp.Import(ctx, schemaID, CLI.Import.URLs)
	if err != nil {
		return err
	}
	slog.Info("import finished", "records", n)
	return nil
}

func runMigrateDates(ctx context.Context) error {
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		return err
	}
	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer st.Close()

	sc, err := st.GetSchemaByName(ctx, CLI.MigrateDates.Schema)
	if err != nil {
		return err
	}
	n, err := st.MigrateShortDates(ctx, sc.ID)
	if err != nil {
		return err
	}
	fmt.Printf("rewrote %d date value(s)\n", n)
	return nil
}

func runList(ctx context.Context) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.Close()

	sc, err := a.store.GetSchemaByName(ctx, CLI.List.Schema)
	if err != nil {
		return err
	}
	listing, err := a.cache.Listing(ctx)
	if err != nil {
		return err
	}

	prefix := strings.Trim(sc.BasePath, "/") + "/"
	var paths []string
	byPath := map[string]neocities.FileInfo{}
	for _, fi := range listing {
		if fi.IsDirectory || !strings.HasPrefix(fi.Path, prefix) {
			continue
		}
		paths = append(paths, fi.Path)
		byPath[fi.Path] = fi
	}
	sort.Strings(paths)

	for _, p := range paths {
		fi := byPath[p]
		fmt.Printf("%-60s %8d  %s\n", fi.Path, fi.Size, fi.UpdatedAt.Format("2006-01-02 15:04"))
	}
	fmt.Printf("%d file(s) under %s\n", len(paths), sc.BasePath)
	return nil
}
