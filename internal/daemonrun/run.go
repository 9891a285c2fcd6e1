package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"pantrypal/internal/config"
	"pantrypal/internal/daemon"
	"pantrypal/internal/logging"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
}

// Run starts the pantrypal daemon and blocks until SIGINT or SIGTERM.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	level := cfg.Logging.Level
	if strings.TrimSpace(opts.LogLevel) != "" {
		level = opts.LogLevel
	}
	runID := time.Now().UTC().Format("20060102T150405.000Z")
	logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("pantryd-%s.log", runID))
	logger, err := logging.New(logging.Options{
		Level:       level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stdout", logPath},
		Development: opts.Development,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	if err := ensureCurrentLogPointer(cfg.Paths.LogDir, logPath); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to update pantryd.log link: %v\n", err)
	}
	logging.PruneLogs(logger, cfg.Paths.LogDir, "pantryd-*.log",
		time.Duration(cfg.Logging.RetentionDays)*24*time.Hour, logPath)
	logConfigSnapshot(logger, cfg)

	pidPath := filepath.Join(cfg.Paths.DataDir, "pantryd.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	rt, err := Build(signalCtx, cfg, logger)
	if err != nil {
		logger.Error("build runtime", logging.Error(err))
		return err
	}
	d, err := daemon.New(cfg, rt.Dispatcher, logger, rt.DaemonOptions()...)
	if err != nil {
		_ = rt.Close()
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	if err := d.Start(signalCtx); err != nil {
		return fmt.Errorf("start daemon: %w", err)
	}
	logger.Info("pantryd ready",
		logging.String(logging.FieldEventType, "daemon_ready"),
		logging.String("bind", d.Addr()),
	)

	<-signalCtx.Done()
	logger.Info("pantryd shutting down")
	d.Stop()
	return nil
}

// ensureCurrentLogPointer points <logDir>/pantryd.log at the active run's
// log, falling back to a hard link where symlinks are unavailable.
func ensureCurrentLogPointer(logDir, target string) error {
	if logDir == "" || target == "" {
		return nil
	}
	current := filepath.Join(logDir, "pantryd.log")
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func logConfigSnapshot(logger *slog.Logger, cfg *config.Config) {
	logger.Info("configuration snapshot",
		logging.String(logging.FieldEventType, "config_snapshot"),
		logging.String("queue_backend", cfg.Queue.Backend),
		logging.String("queue_name", cfg.Queue.Name),
		logging.Int("queue_workers", cfg.Queue.Workers),
		logging.Bool("usda_key_present", strings.TrimSpace(cfg.Nutrition.APIKey) != ""),
		logging.Bool("images_enabled", cfg.Images.Enabled),
		logging.Bool("jwt_secret_present", strings.TrimSpace(cfg.Auth.JWTSecret) != ""),
		logging.Bool("metrics_enabled", cfg.Metrics.Enabled),
	)
}
