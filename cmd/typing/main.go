package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"typing-server/internal/handlers"
	"typing-server/internal/results"
	"typing-server/internal/state"
	"typing-server/internal/text"
	"typing-server/internal/watcher"
	"typing-server/internal/websocket"
	"typing-server/pkg/config"
	"typing-server/web"
)

type options struct {
	configPath string
	envFile    string
	host       string
	port       int
	textFile   string
	assetsDir  string
	resultsDB  string
	debug      bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:          "typing",
		Short:        "Serve the typing practice page and its text API",
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, &opts)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	opts.bind(cmd.Flags())
	return cmd
}

func (o *options) bind(flags *pflag.FlagSet) {
	flags.StringVar(&o.configPath, "config", "", "YAML configuration file")
	flags.StringVar(&o.envFile, "env-file", ".env", "file of KEY=value pairs loaded into the environment")
	flags.StringVar(&o.host, "host", config.DefaultHost, "interface to listen on")
	flags.IntVar(&o.port, "port", config.DefaultPort, "port to listen on")
	flags.StringVar(&o.textFile, "text-file", config.DefaultTextFile, "backing file for /api/text")
	flags.StringVar(&o.assetsDir, "assets-dir", "", "directory holding static/ and templates/ (embedded assets when empty)")
	flags.StringVar(&o.resultsDB, "results-db", config.DefaultResultsDB, "bbolt file for practice results (empty disables)")
	flags.BoolVar(&o.debug, "debug", false, "enable debug logging")
}

// loadConfig layers explicitly set flags over the file and environment configuration
func loadConfig(cmd *cobra.Command, opts *options) (*config.Config, error) {
	if err := config.LoadDotEnv(opts.envFile); err != nil {
		return nil, err
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("host") {
		cfg.Host = opts.host
	}
	if flags.Changed("port") {
		cfg.Port = opts.port
	}
	if flags.Changed("text-file") {
		cfg.TextFile = opts.textFile
	}
	if flags.Changed("assets-dir") {
		cfg.AssetsDir = opts.assetsDir
	}
	if flags.Changed("results-db") {
		cfg.ResultsDB = opts.resultsDB
	}
	if flags.Changed("debug") {
		cfg.Debug = opts.debug
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func run(ctx context.Context, cfg *config.Config) error {
	// Configure logrus
	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetLevel(logrus.InfoLevel)
	if cfg.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	}

	state.SetTextPath(cfg.TextFile)
	loader := text.NewLoader(afero.NewOsFs(), cfg.TextFile)

	var store *results.Store
	if cfg.ResultsDB != "" {
		var err error
		store, err = results.NewStore(cfg.ResultsDB)
		if err != nil {
			return err
		}
		defer store.Close()
	} else {
		logrus.Info("Result storage disabled")
	}

	h, err := handlers.New(loader, store, web.FS(cfg.AssetsDir))
	if err != nil {
		return err
	}

	if w := startWatcher(cfg.TextFile, h.PushText); w != nil {
		defer func() {
			w.Stop()
			state.SetWatcherStatus(state.WatcherStopped, "stopped")
		}()
	}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           h.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logrus.WithFields(logrus.Fields{
			"addr":      cfg.Addr(),
			"text_file": cfg.TextFile,
		}).Info("Server started")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logrus.Info("Shutting down")
	websocket.CloseAll()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// startWatcher pushes the text to WebSocket clients whenever the backing file
// changes. The server runs without it if the file's directory cannot be watched.
func startWatcher(path string, onChange func()) *watcher.Watcher {
	w, err := watcher.NewWatcher(watcher.DefaultDebounce)
	if err != nil {
		logrus.WithError(err).Warn("File watcher unavailable")
		state.SetWatcherStatus(state.WatcherError, err.Error())
		return nil
	}

	if err := w.Watch(path, onChange); err != nil {
		w.Stop()
		logrus.WithError(err).WithField("path", path).Warn("Not watching backing file")
		state.SetWatcherStatus(state.WatcherError, err.Error())
		return nil
	}

	logrus.WithField("path", path).Info("Watching backing file")
	state.SetWatcherStatus(state.WatcherWatching, "watching "+path)
	return w
}
