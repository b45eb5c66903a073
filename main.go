package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"

	"github.com/scipunch/feedsnap/builder"
	"github.com/scipunch/feedsnap/cache"
	"github.com/scipunch/feedsnap/config"
	"github.com/scipunch/feedsnap/display"
	"github.com/scipunch/feedsnap/feed"
	"github.com/scipunch/feedsnap/fetcher"
	"github.com/scipunch/feedsnap/filter"
	"github.com/scipunch/feedsnap/parser/factory"
)

type options struct {
	cfgPath    string
	url        string
	maxEntries int
	savePath   string
	loadPath   string
	htmlPath   string
	pdfPath    string
	offline    bool
	clean      bool
}

func main() {
	setupLogging()

	var opts options
	flag.StringVar(&opts.cfgPath, "config", config.DefaultPath(), "path to a TOML config")
	flag.StringVar(&opts.url, "url", "", "feed URL (overrides feed_url from the config)")
	flag.IntVar(&opts.maxEntries, "n", 0, "number of entries to keep (overrides max_entries from the config)")
	flag.StringVar(&opts.savePath, "save", "", "save the feed into an XML file")
	flag.StringVar(&opts.loadPath, "load", "", "open a previously saved XML file instead of fetching")
	flag.StringVar(&opts.htmlPath, "html", "", "render the feed into an HTML file")
	flag.StringVar(&opts.pdfPath, "pdf", "", "render the feed into a PDF file")
	flag.BoolVar(&opts.offline, "offline", false, "open the last fetched snapshot instead of fetching")
	flag.BoolVar(&opts.clean, "clean", false, "remove all stored snapshots")
	flag.Parse()

	// Read config and create if default is missing
	conf, err := config.Read(opts.cfgPath)
	if errors.Is(err, os.ErrNotExist) && opts.cfgPath == config.DefaultPath() {
		if err := config.Write(opts.cfgPath, conf); err != nil {
			log.Fatalf("failed to write default config with %s", err)
		}
	} else if err != nil {
		log.Fatalf("failed to read config with %s", err)
	}

	if opts.url == "" {
		opts.url = conf.FeedURL
	}
	if opts.maxEntries == 0 {
		opts.maxEntries = conf.MaxEntries
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var store *cache.Cache
	if conf.Cache.Enabled || opts.offline || opts.clean {
		store, err = cache.NewCache(conf.DatabasePath)
		if err != nil {
			log.Fatalf("failed to initialize snapshot store: %v", err)
		}
		defer store.Close()
	}

	if opts.clean {
		if err := store.Clear(); err != nil {
			log.Fatalf("failed to clear snapshots: %v", err)
		}
		slog.Info("snapshots cleared successfully")
		return
	}

	if store != nil {
		stats, err := store.Stats()
		if err != nil {
			slog.Warn("failed to get snapshot stats", "error", err)
		} else {
			slog.Debug("snapshot store initialized", "snapshots", stats.Snapshots, "entries", stats.Entries)
		}
	}

	doc, err := obtain(ctx, conf, opts, store)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, "Cancelled.")
			os.Exit(130)
		}
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}

	if err := export(ctx, conf, opts, doc); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}

	if opts.savePath == "" && opts.htmlPath == "" && opts.pdfPath == "" {
		printDocument(os.Stdout, display.FromDocument(doc, nil))
	}
	fmt.Printf("Loaded %d entries from %s.\n", len(doc.Entries), doc.Title)
}

func setupLogging() {
	level := slog.LevelInfo
	if os.Getenv("DEBUG") != "" {
		level = slog.LevelDebug
	}
	handlerOpts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if term.IsTerminal(int(os.Stderr.Fd())) {
		handler = slog.NewTextHandler(os.Stderr, handlerOpts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(handler))
}

// obtain returns the document to show: a saved file, the last snapshot or a
// fresh fetch
func obtain(ctx context.Context, conf config.Config, opts options, store *cache.Cache) (feed.Document, error) {
	if opts.loadPath != "" {
		doc, err := feed.LoadFile(opts.loadPath)
		if err != nil {
			return doc, fmt.Errorf("failed to load '%s' with %w", opts.loadPath, err)
		}
		return doc, nil
	}

	if opts.url == "" {
		return feed.Document{}, errors.New("no feed URL: pass -url or set feed_url in the config")
	}

	if opts.offline {
		doc, found, err := store.Get(opts.url)
		if err != nil {
			return doc, err
		}
		if !found {
			return doc, fmt.Errorf("no snapshot stored for '%s'", opts.url)
		}
		slog.Info("opened snapshot", "url", opts.url, "retrieved_at", doc.RetrievedAt)
		return doc, nil
	}

	logger, err := newNetworkLogger(conf.Fetch.LogLevel)
	if err != nil {
		return feed.Document{}, err
	}
	defer logger.Sync()

	getter := fetcher.NewHTTPFetcher(fetcher.Options{
		Timeout:      time.Duration(conf.Fetch.TimeoutSeconds) * time.Second,
		UserAgent:    conf.Fetch.UserAgent,
		MaxBodyBytes: conf.Fetch.MaxBodyBytes,
		Logger:       logger,
	})
	article, err := factory.Init(conf.Inline.Extractor)
	if err != nil {
		return feed.Document{}, fmt.Errorf("failed to initialize article parser with %w", err)
	}

	b := builder.New(fetcher.NewRSSFetcher(getter), getter, article, builder.Config{
		Thresholds: filter.Thresholds{
			MaxLength: conf.Inline.MaxLength,
			MaxWords:  conf.Inline.MaxWords,
		},
		Concurrency:   conf.Fetch.Concurrency,
		DisableInline: !conf.Inline.Enabled,
	})

	doc, err := b.FetchFeed(ctx, opts.url, opts.maxEntries)
	if err != nil {
		return doc, err
	}

	if store != nil && conf.Cache.Enabled {
		if err := store.Put(doc); err != nil {
			slog.Warn("failed to store snapshot", "error", err)
		}
	}
	return doc, nil
}

func export(ctx context.Context, conf config.Config, opts options, doc feed.Document) error {
	if opts.savePath != "" {
		if err := feed.SaveFile(opts.savePath, doc); err != nil {
			return fmt.Errorf("failed to save '%s' with %w", opts.savePath, err)
		}
		slog.Info("feed saved", "path", opts.savePath)
	}

	if opts.htmlPath == "" && opts.pdfPath == "" {
		return nil
	}

	htmlPath := opts.htmlPath
	if htmlPath == "" {
		if err := os.MkdirAll(conf.OutputDirectory, os.ModePerm); err != nil {
			return fmt.Errorf("failed to create output directory at '%s' with %w", conf.OutputDirectory, err)
		}
		htmlPath = filepath.Join(conf.OutputDirectory, "index.html")
	}

	if err := display.WriteHTMLFile(htmlPath, display.FromDocument(doc, nil)); err != nil {
		return err
	}
	slog.Info("HTML file generated", "path", htmlPath)

	if opts.pdfPath != "" {
		if err := display.WritePDF(ctx, htmlPath, opts.pdfPath); err != nil {
			return fmt.Errorf("failed to generate PDF with %w", err)
		}
		slog.Info("PDF file generated", "path", opts.pdfPath)
	}
	return nil
}

func newNetworkLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	if level != "" {
		lvl, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level '%s' with %w", level, err)
		}
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build network logger with %w", err)
	}
	return logger, nil
}

func printDocument(w io.Writer, v display.View) {
	fmt.Fprintf(w, "%s\n%s\n\n", v.Title, strings.Repeat("=", len([]rune(v.Title))))
	for _, e := range v.Entries {
		fmt.Fprintf(w, "%s\n%s\n", e.Title, e.PublishDateDisplay)
		if e.Link != "" {
			fmt.Fprintln(w, e.Link)
		}
		if e.Content != "" {
			fmt.Fprintf(w, "\n%s\n", e.Content)
		}
		fmt.Fprintln(w)
	}
}
