package serverrun

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	cfgpkg "github.com/osamaakb/tempo/internal/config"
	"github.com/osamaakb/tempo/internal/runtime"
	httpserver "github.com/osamaakb/tempo/internal/server/http"
	linesvc "github.com/osamaakb/tempo/internal/services/lines"
	pebblestore "github.com/osamaakb/tempo/internal/storage/pebble"
	logpkg "github.com/osamaakb/tempo/pkg/log"
)

type Options struct {
	DataDir       string
	HTTPAddr      string
	Fsync         pebblestore.FsyncMode
	FsyncInterval time.Duration
	Config        cfgpkg.Config

	// LogLevel and LogFormat fall back to TEMPO_LOG_LEVEL and
	// TEMPO_LOG_FORMAT, then to info/text.
	LogLevel  string
	LogFormat string
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// Run starts the HTTP server and blocks until ctx is cancelled. Parked
// events from a previous run are replayed into their lines before the
// listener comes up.
func Run(ctx context.Context, opts Options) error {
	// Be robust to callers that don't pass a signal-aware context. We
	// layer a local signal context over the provided one.
	sctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	if opts.DataDir == "" {
		opts.DataDir = cfgpkg.DefaultDataDir()
	}
	storeDir := filepath.Join(opts.DataDir, "store")
	rt, err := runtime.Open(runtime.Options{DataDir: storeDir, Fsync: opts.Fsync, FsyncInterval: opts.FsyncInterval, Config: opts.Config})
	if err != nil {
		return err
	}
	defer rt.Close()

	cfg := &logpkg.Config{
		Level:  firstNonEmpty(opts.LogLevel, os.Getenv("TEMPO_LOG_LEVEL"), "info"),
		Format: firstNonEmpty(opts.LogFormat, os.Getenv("TEMPO_LOG_FORMAT"), "text"),
	}
	procLogger, err := logpkg.ApplyConfig(cfg)
	if err != nil {
		lvl := logpkg.InfoLevel
		if l, e := logpkg.ParseLevel(cfg.Level); e == nil {
			lvl = l
		}
		procLogger = logpkg.NewLogger(logpkg.WithLevel(lvl), logpkg.WithFormatter(&logpkg.TextFormatter{}))
	}

	// Redirect stdlib logs (e.g., Pebble) to our logger
	logpkg.RedirectStdLog(procLogger)

	procLogger.Info("Starting Tempo server",
		logpkg.Str("http", opts.HTTPAddr),
		logpkg.Str("data_dir", opts.DataDir),
		logpkg.Str("level", cfg.Level),
		logpkg.Str("format", cfg.Format),
	)

	lines := linesvc.New(rt, linesvc.Options{Logger: procLogger})
	defer lines.Close()
	if err := lines.Recover(sctx); err != nil {
		return err
	}
	hsrv := httpserver.New(rt, lines)

	g, gctx := errgroup.WithContext(sctx)
	g.Go(func() error {
		if err := hsrv.ListenAndServe(gctx, opts.HTTPAddr); err != nil && gctx.Err() == nil {
			procLogger.Error("http server", logpkg.Err(err))
			return err
		}
		return nil
	})

	<-gctx.Done()
	// Shut servers down before closing the runtime/DB to avoid races.
	hsrv.Close()
	return g.Wait()
}
