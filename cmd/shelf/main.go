// Package main is the shelf command, a small inspection and administration
// tool for shelf stores.
//
// It operates on one table of free-form text records keyed by uint64 IDs:
//
//	shelf -table Note put new "hello"
//	shelf -table Note list
//	shelf -table Note get 123
//	shelf -table Note del 123
//	shelf -backend disk -data-dir ./data -metrics :9090 watch
//
// The backend is selected by flags, an optional YAML config file, or a .env
// file, in that order of precedence.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shelfdb/shelf"
	"github.com/shelfdb/shelf/blob"
	"github.com/shelfdb/shelf/blob/afsstore"
	"github.com/shelfdb/shelf/blob/gitstore"
	"github.com/shelfdb/shelf/blob/metricstore"
	"github.com/shelfdb/shelf/blob/sqlitestore"
	"github.com/shelfdb/shelf/blob/throttle"
	"github.com/shelfdb/shelf/keygen"
	"github.com/shelfdb/shelf/watch"
	"gopkg.in/yaml.v3"
)

func main() {
	if err := mainImpl(); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "shelf: %v\n", err)
		os.Exit(1)
	}
}

func mainImpl() error {
	cfgPath := flag.String("config", "", "Path to YAML config file")
	envPath := flag.String("env", "", "Path to .env file")
	backend := flag.String("backend", "", "Store backend: disk, mem, sqlite, git, afs (default disk)")
	dataDir := flag.String("data-dir", "./data", "Data directory (disk and git backends)")
	dsn := flag.String("dsn", "./shelf.db", "Database path (sqlite backend)")
	baseURL := flag.String("base-url", "", "Base URL (afs backend), e.g. file:///var/lib/shelf")
	table := flag.String("table", "Record", "Table name")
	keyName := flag.String("key-name", "id", "Primary key field name")
	rateLimit := flag.Float64("rate", 0, "Max store operations per second (0 = unlimited)")
	metricsAddr := flag.String("metrics", "", "Address to serve Prometheus metrics on (watch only)")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()
	if flag.NArg() == 0 {
		return errors.New("missing verb: put, get, del, exists, list or watch")
	}

	initLogger(*logLevel)
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(*cfgPath, *envPath)
	if err != nil {
		return err
	}
	// Flags win over config file and .env.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "backend":
			cfg.Backend = *backend
		case "data-dir":
			cfg.Dir = *dataDir
		case "dsn":
			cfg.DSN = *dsn
		case "base-url":
			cfg.BaseURL = *baseURL
		}
	})
	if cfg.Backend == "" {
		cfg.Backend = "disk"
	}
	if cfg.Dir == "" {
		cfg.Dir = *dataDir
	}
	if cfg.DSN == "" {
		cfg.DSN = *dsn
	}

	store, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()
	if *rateLimit > 0 {
		store = throttle.New(store, *rateLimit, 1)
	}
	var metricsReg *prometheus.Registry
	if *metricsAddr != "" {
		metricsReg = prometheus.NewRegistry()
		store = metricstore.New(store, metricsReg)
	}

	recTable = *table
	recKeyName = *keyName
	repo := shelf.New[record, uint64](store)

	verb, args := flag.Arg(0), flag.Args()[1:]
	switch verb {
	case "put":
		return runPut(ctx, repo, args)
	case "get":
		return runGet(ctx, repo, args)
	case "del":
		return runDel(ctx, repo, args)
	case "exists":
		return runExists(ctx, repo, args)
	case "list":
		return runList(ctx, repo)
	case "watch":
		return runWatch(ctx, cfg, store, metricsReg, *metricsAddr)
	default:
		return fmt.Errorf("unknown verb %q", verb)
	}
}

func initLogger(level string) {
	ll := slog.LevelInfo
	switch level {
	case "debug":
		ll = slog.LevelDebug
	case "warn":
		ll = slog.LevelWarn
	case "error":
		ll = slog.LevelError
	}
	logger := slog.New(tint.NewHandler(colorable.NewColorable(os.Stderr), &tint.Options{
		Level:      ll,
		TimeFormat: "15:04:05.000",
		NoColor:    !isatty.IsTerminal(os.Stderr.Fd()),
	}))
	slog.SetDefault(logger)
}

// config selects and locates the store backend.
type config struct {
	Backend  string `yaml:"backend"`
	Dir      string `yaml:"dir"`
	DSN      string `yaml:"dsn"`
	BaseURL  string `yaml:"base_url"`
	GitName  string `yaml:"git_name"`
	GitEmail string `yaml:"git_email"`
}

func loadConfig(cfgPath, envPath string) (*config, error) {
	cfg := &config{GitName: "shelf", GitEmail: "shelf@localhost"}
	if envPath != "" {
		vars, err := godotenv.Read(envPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read env file: %w", err)
		}
		cfg.Backend = vars["SHELF_BACKEND"]
		if v := vars["SHELF_DIR"]; v != "" {
			cfg.Dir = v
		}
		if v := vars["SHELF_DSN"]; v != "" {
			cfg.DSN = v
		}
		if v := vars["SHELF_BASE_URL"]; v != "" {
			cfg.BaseURL = v
		}
	}
	if cfgPath != "" {
		data, err := os.ReadFile(cfgPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}
	return cfg, nil
}

func openStore(cfg *config) (blob.Store, func(), error) {
	noop := func() {}
	switch cfg.Backend {
	case "disk":
		s, err := blob.NewDiskStore(cfg.Dir)
		return s, noop, err
	case "mem":
		return blob.NewMemStore(), noop, nil
	case "sqlite":
		s, err := sqlitestore.New(cfg.DSN)
		if err != nil {
			return nil, noop, err
		}
		return s, func() { _ = s.Close() }, nil
	case "git":
		s, err := gitstore.New(cfg.Dir, cfg.GitName, cfg.GitEmail)
		return s, noop, err
	case "afs":
		if cfg.BaseURL == "" {
			return nil, noop, errors.New("afs backend requires -base-url")
		}
		return afsstore.New(cfg.BaseURL), noop, nil
	default:
		return nil, noop, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

func runPut(ctx context.Context, repo *shelf.Repository[record, uint64], args []string) error {
	if len(args) != 2 {
		return errors.New("usage: put <id|new> <body>")
	}
	var id uint64
	if args[0] == "new" {
		id = uint64(keygen.NextID())
	} else {
		var err error
		if id, err = strconv.ParseUint(args[0], 10, 64); err != nil {
			return fmt.Errorf("invalid id: %w", err)
		}
	}
	rec, err := repo.Save(ctx, record{id: id, body: args[1]})
	if err != nil {
		return err
	}
	fmt.Println(rec.ID())
	return nil
}

func runGet(ctx context.Context, repo *shelf.Repository[record, uint64], args []string) error {
	id, err := parseIDArg(args, "get")
	if err != nil {
		return err
	}
	rec, ok, err := repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("record %d not found", id)
	}
	fmt.Println(rec.Body())
	return nil
}

func runDel(ctx context.Context, repo *shelf.Repository[record, uint64], args []string) error {
	id, err := parseIDArg(args, "del")
	if err != nil {
		return err
	}
	return repo.DeleteByID(ctx, id)
}

func runExists(ctx context.Context, repo *shelf.Repository[record, uint64], args []string) error {
	id, err := parseIDArg(args, "exists")
	if err != nil {
		return err
	}
	ok, err := repo.ExistsByID(ctx, id)
	if err != nil {
		return err
	}
	fmt.Println(ok)
	return nil
}

func runList(ctx context.Context, repo *shelf.Repository[record, uint64]) error {
	recs, err := repo.FindAll(ctx)
	if err != nil {
		return err
	}
	for _, rec := range recs {
		fmt.Printf("%d\t%s\n", rec.ID(), rec.Body())
	}
	return nil
}

func runWatch(ctx context.Context, cfg *config, store blob.Store, reg *prometheus.Registry, metricsAddr string) error {
	if cfg.Backend != "disk" && cfg.Backend != "git" {
		return fmt.Errorf("watch requires a directory-backed store, got %q", cfg.Backend)
	}
	if reg != nil {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		go func() {
			slog.Info("Serving metrics", "addr", metricsAddr)
			if err := http.ListenAndServe(metricsAddr, mux); err != nil {
				slog.Error("Metrics server failed", "err", err)
			}
		}()
	}
	w, err := watch.New(cfg.Dir)
	if err != nil {
		return err
	}
	defer func() {
		_ = w.Close()
	}()
	slog.Info("Watching", "dir", cfg.Dir)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.Events():
			if !ok {
				return nil
			}
			logChange(ctx, store, ev)
		}
	}
}

// logChange reports one table change, reading the blob through store so
// that an instrumented store (-metrics) sees the watch traffic.
func logChange(ctx context.Context, store blob.Store, ev watch.Event) {
	kind := "record"
	if ev.Index {
		kind = "index"
	}
	content, err := store.Read(ctx, ev.Name)
	if err != nil {
		slog.Warn("Changed blob unreadable", "table", ev.Table, "blob", ev.Name, "kind", kind, "err", err)
		return
	}
	slog.Info("Changed", "table", ev.Table, "blob", ev.Name, "kind", kind, "size", len(content))
}

func parseIDArg(args []string, verb string) (uint64, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("usage: %s <id>", verb)
	}
	id, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id: %w", err)
	}
	return id, nil
}
