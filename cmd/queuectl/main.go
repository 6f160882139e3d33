package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/malko42/queue"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:     "queuectl",
		Usage:    "Manage Redis simple message queues",
		Flags:    globalFlags(),
		Commands: commands(),
	}
}

func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.LevelKey = "severity"
	return cfg.Build()
}

func configFromFlags(c *cli.Context) queue.Config {
	return queue.Config{
		Host:      c.String("host"),
		Port:      c.Int("port"),
		DB:        c.Int("db"),
		Password:  c.String("password"),
		Namespace: c.String("ns"),
		Realtime:  c.Bool("realtime"),
	}
}

// withHandle opens a handle from the global flags, runs fn and closes it.
func withHandle(c *cli.Context, fn func(h *queue.Handle) error) error {
	log, err := newLogger(c.Bool("verbose"))
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	h, err := queue.New(configFromFlags(c), queue.WithLogger(log))
	if err != nil {
		return err
	}
	defer func() {
		if err := h.Close(); err != nil {
			log.Warn("failed to close redis client", zap.Error(err))
		}
	}()

	return fn(h)
}

// bind attaches h to an existing queue without touching its attributes.
func bind(c *cli.Context, h *queue.Handle, name string) error {
	exists, err := h.Exists(c.Context, name)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("queue %q does not exist", name)
	}
	_, err = h.Create(c.Context, name)
	return err
}
