package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/ezenkico/deploy-commander/devmount/interfaces"
	"github.com/ezenkico/deploy-commander/devmount/models"
	"github.com/ezenkico/deploy-commander/devmount/services"
	"github.com/ezenkico/deploy-commander/devmount/services/compose"
	"github.com/ezenkico/deploy-commander/devmount/services/docker"
)

const (
	ExitSuccess = 0
	ExitFailure = 1
	ExitUsage   = 2
)

const defaultConfigName = ".devmount.json"

type cliOptions struct {
	ConfigPath     string
	Dir            string
	Mode           string
	Structural     bool
	DryRun         bool
	Timeout        time.Duration
	PollInterval   time.Duration
	SkipDaemon     bool
	ComposeCommand string
	Debug          bool
	Services       []string
}

func loadConfiguration(path string) (models.Configuration, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return models.Configuration{}, fmt.Errorf("read config file %q: %w", path, err)
	}

	var cfg models.Configuration
	if err := json.Unmarshal(b, &cfg); err != nil {
		return models.Configuration{}, fmt.Errorf("parse config json %q: %w", path, err)
	}

	return cfg, nil
}

// resolveConfiguration loads the config file, if any, and applies flags on top.
func resolveConfiguration(opts cliOptions) (models.Configuration, error) {
	var cfg models.Configuration

	path := opts.ConfigPath
	explicit := path != ""
	if !explicit {
		dir := opts.Dir
		if dir == "" {
			dir = "."
		}
		path = filepath.Join(dir, defaultConfigName)
	}

	loaded, err := loadConfiguration(path)
	switch {
	case err == nil:
		cfg = loaded
	case !explicit && errors.Is(err, fs.ErrNotExist):
	default:
		return cfg, err
	}

	if opts.Dir != "" {
		cfg.Dir = opts.Dir
	}
	if opts.Mode != "" {
		mode, err := models.ParseConsistencyMode(opts.Mode)
		if err != nil {
			return cfg, err
		}
		cfg.Mode = mode
	}
	if cfg.Mode != "" && !cfg.Mode.Valid() {
		return cfg, fmt.Errorf("config: %q is not a valid consistency mode", cfg.Mode)
	}
	if opts.Structural {
		cfg.Structural = true
	}
	if opts.ComposeCommand != "" {
		cfg.ComposeCommand = strings.Fields(opts.ComposeCommand)
	}
	if opts.Timeout > 0 {
		cfg.Daemon.ReadyTimeout = models.Duration(opts.Timeout)
	}
	if opts.PollInterval > 0 {
		cfg.Daemon.PollInterval = models.Duration(opts.PollInterval)
	}
	if opts.SkipDaemon {
		cfg.Daemon.Skip = true
	}

	return cfg.WithDefaults(), nil
}

func newLogger(w io.Writer, debug bool) *zap.SugaredLogger {
	level := zapcore.InfoLevel
	if debug {
		level = zapcore.DebugLevel
	}
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.TimeKey = ""
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(w), level)
	return zap.New(core).Sugar()
}

func Main(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	opts := cliOptions{}

	app := kingpin.New("devmount", "Bring up compose services with source volumes mounted only for the services named")
	app.HelpFlag.Short('h')

	app.UsageWriter(stderr)
	app.ErrorWriter(stderr)

	app.Flag("config", "JSON configuration file (default <dir>/.devmount.json)").
		StringVar(&opts.ConfigPath)
	app.Flag("dir", "Project directory containing docker-compose.yml").
		Short('C').
		StringVar(&opts.Dir)
	app.Flag("mode", "Consistency mode appended to bind mounts").
		EnumVar(&opts.Mode,
			string(models.ConsistencyDelegated), string(models.ConsistencyCached), string(models.ConsistencyConsistent))
	app.Flag("structural", "Rewrite using a YAML parser instead of the line filter").
		BoolVar(&opts.Structural)
	app.Flag("dry-run", "Print the rewritten docker-compose.yml and exit").
		BoolVar(&opts.DryRun)
	app.Flag("timeout", "How long to wait for the docker daemon").
		DurationVar(&opts.Timeout)
	app.Flag("poll-interval", "How often to probe the docker daemon while it starts").
		DurationVar(&opts.PollInterval)
	app.Flag("skip-daemon", "Do not check or start the docker daemon").
		BoolVar(&opts.SkipDaemon)
	app.Flag("compose-command", `Compose command, e.g. "docker compose"`).
		StringVar(&opts.ComposeCommand)
	app.Flag("debug", "Verbose logging").
		BoolVar(&opts.Debug)
	app.Arg("service", "Services to bring up with their volumes").
		Required().
		StringsVar(&opts.Services)

	terminated := false
	termStatus := ExitSuccess
	app.Terminate(func(status int) {
		terminated = true
		termStatus = status
	})
	_, err := app.Parse(args[1:])
	if terminated {
		return termStatus
	}
	if err != nil {
		fmt.Fprintf(stderr, "devmount: error: %s\n\n", err)
		app.Usage(nil)
		return ExitUsage
	}

	log := newLogger(stderr, opts.Debug)
	defer func() { _ = log.Sync() }()

	cfg, err := resolveConfiguration(opts)
	if err != nil {
		fmt.Fprintf(stderr, "devmount: error: %s\n", err)
		return ExitUsage
	}

	if opts.DryRun {
		return dryRun(cfg, opts.Services, stdout, log)
	}

	var daemon interfaces.Daemon
	if !cfg.Daemon.Skip {
		d, err := docker.NewDockerDaemon(cfg.Daemon, log)
		if err != nil {
			log.Errorw("docker unavailable", "error", err)
			return ExitFailure
		}
		defer d.Close()
		daemon = d
	}

	session := &services.Session{
		Config: cfg,
		Daemon: daemon,
		Orchestrator: &compose.ComposeCLI{
			Command: cfg.ComposeCommand,
			Dir:     cfg.Dir,
			Stdout:  stdout,
			Stderr:  stderr,
			Logger:  log,
		},
		Logger: log,
	}

	if err := session.Up(ctx, opts.Services); err != nil {
		log.Errorw("devmount failed", "error", err)
		return ExitFailure
	}

	return ExitSuccess
}

func dryRun(cfg models.Configuration, names []string, stdout io.Writer, log *zap.SugaredLogger) int {
	path := filepath.Join(cfg.Dir, models.PrimaryComposeFile)
	doc, err := os.ReadFile(path)
	if err != nil {
		log.Errorw("read compose file", "path", path, "error", err)
		return ExitFailure
	}

	out, err := compose.RewriteDocument(doc, models.NewTargetSet(names...), cfg.Mode, cfg.Structural)
	if err != nil {
		log.Errorw("rewrite compose file", "path", path, "error", err)
		return ExitFailure
	}

	if _, err := stdout.Write(out); err != nil {
		return ExitFailure
	}
	return ExitSuccess
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	code := Main(ctx, os.Args, os.Stdin, os.Stdout, os.Stderr)
	cancel()
	os.Exit(code)
}
