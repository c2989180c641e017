package app

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/five82/stagehand/internal/actions"
	"github.com/five82/stagehand/internal/catalog"
	"github.com/five82/stagehand/internal/config"
	"github.com/five82/stagehand/internal/logsink"
	"github.com/five82/stagehand/internal/stageapi"
)

// Options configure a stagehand session.
type Options struct {
	ConfigPath  string
	PrefsPath   string // empty uses ~/.config/stagehand/prefs.toml
	CatalogPath string // overrides the config's catalog
	BaseURL     string // overrides the config's base_url
	// Echo also receives every operator log line. Headless commands point it
	// at stdout; the TUI leaves it nil because it owns the terminal.
	Echo io.Writer
}

// Runtime is the wired set of components shared by the TUI and the headless
// commands.
type Runtime struct {
	Config   config.Config
	Logger   zerolog.Logger
	Sink     *logsink.Sink
	Client   *stageapi.Client
	Registry *actions.Registry

	closers []io.Closer
}

// Setup loads configuration and the catalog and builds the registry.
func Setup(opts Options) (*Runtime, error) {
	cfg, err := LoadConfig(opts)
	if err != nil {
		return nil, err
	}

	rt := &Runtime{Config: cfg}

	logger, logFile, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}
	rt.Logger = logger
	rt.closers = append(rt.closers, logFile)

	mirror, err := openAppend(cfg.OperatorLogPath())
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.closers = append(rt.closers, mirror)

	var out io.Writer = mirror
	if opts.Echo != nil {
		out = io.MultiWriter(mirror, opts.Echo)
	}
	rt.Sink = logsink.New(logsink.WithMirror(out), logsink.WithLogger(logger))

	client, err := stageapi.NewClient(cfg.BaseURL,
		stageapi.WithSink(rt.Sink),
		stageapi.WithLogger(logger.With().Str("component", "stageapi").Logger()))
	if err != nil {
		rt.Close()
		return nil, errors.Wrap(err, "init backend client")
	}
	rt.Client = client

	cat, err := catalog.Load(cfg.Catalog)
	if err != nil {
		rt.Close()
		return nil, errors.Wrap(err, "load catalog")
	}

	rt.Registry = actions.NewRegistry(rt.Sink, client,
		actions.WithLogger(logger.With().Str("component", "actions").Logger()))
	if err := rt.Registry.LoadCatalog(cat); err != nil {
		rt.Close()
		return nil, err
	}

	logger.Info().
		Str("base_url", client.BaseURL()).
		Int("actions", cat.ActionCount()).
		Int("operations", len(cat.Operations)).
		Msg("stagehand ready")
	return rt, nil
}

// Close releases the log files.
func (rt *Runtime) Close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		_ = rt.closers[i].Close()
	}
	rt.closers = nil
}

// LoadConfig reads the config file and applies command-line overrides.
func LoadConfig(opts Options) (config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return config.Config{}, errors.Wrap(err, "load stagehand config")
	}
	if v := strings.TrimSpace(opts.BaseURL); v != "" {
		cfg.BaseURL = v
	}
	if v := strings.TrimSpace(opts.CatalogPath); v != "" {
		p, err := config.ExpandPath(v)
		if err != nil {
			return config.Config{}, err
		}
		cfg.Catalog = p
	}
	return cfg, nil
}

func newLogger(cfg config.Config) (zerolog.Logger, io.Closer, error) {
	f, err := openAppend(cfg.DiagnosticsLogPath())
	if err != nil {
		return zerolog.Nop(), nil, err
	}
	return zerolog.New(f).Level(parseLevel(cfg.LogLevel)).With().Timestamp().Logger(), f, nil
}

func parseLevel(s string) zerolog.Level {
	level, err := zerolog.ParseLevel(strings.TrimSpace(s))
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}

func openAppend(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrap(err, "create log dir")
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", filepath.Base(path))
	}
	return f, nil
}
