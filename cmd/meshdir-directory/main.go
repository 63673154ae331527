// Copyright 2026 The Meshdir Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/meshdir-foundation/meshdir/commandlog"
	"github.com/meshdir-foundation/meshdir/directory"
	"github.com/meshdir-foundation/meshdir/heartbeat"
	"github.com/meshdir-foundation/meshdir/lib/clock"
	"github.com/meshdir-foundation/meshdir/lib/config"
	"github.com/meshdir-foundation/meshdir/lib/process"
	"github.com/meshdir-foundation/meshdir/lib/schema"
	"github.com/meshdir-foundation/meshdir/lib/service"
	"github.com/meshdir-foundation/meshdir/lib/version"
	"github.com/meshdir-foundation/meshdir/viewstore"
)

const (
	logFileName      = "commands.mdlog"
	snapshotFileName = "view.snapshot"
	viewDatabaseName = "view.db"
)

// heartbeatSender is the identity stamped on the daemon's own
// heartbeat commands.
const heartbeatSender = "meshdir/service"

func main() {
	if err := run(); err != nil {
		process.Fatal(err)
	}
}

func run() error {
	var (
		configPath  string
		seedPath    string
		showVersion bool
	)
	flag.StringVar(&configPath, "config", "", "path to meshdir.yaml (default: $MESHDIR_CONFIG)")
	flag.StringVar(&seedPath, "seed", "", "JSONC seed script applied once, when the command log is empty")
	flag.BoolVar(&showVersion, "version", false, "print version information and exit")
	flag.Parse()

	if showVersion {
		version.Print("meshdir-directory")
		return nil
	}

	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := cfg.EnsurePaths(); err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var view directory.View
	switch cfg.Directory.Store {
	case "sqlite":
		pool, err := viewstore.OpenPool(viewstore.PoolConfig{
			Path:   filepath.Join(cfg.Paths.State, viewDatabaseName),
			Logger: logger,
		})
		if err != nil {
			return err
		}
		defer pool.Close()
		view = viewstore.NewSQLiteView(ctx, pool)
	default:
		view = directory.NewMemoryView()
	}

	engine := directory.NewEngine(view)
	logPath := filepath.Join(cfg.Paths.Log, logFileName)

	// An empty view is rebuilt from the command log; a persistent view
	// that survived the restart is trusted as-is and the log only
	// records new commands from here on.
	empty, err := viewIsEmpty(view)
	if err != nil {
		return fmt.Errorf("probing view store: %w", err)
	}
	hadLog := logFileExists(logPath)
	if empty && hadLog {
		if err := replayLog(logPath, engine, logger); err != nil {
			return err
		}
	}

	logWriter, err := commandlog.OpenAppend(logPath)
	if err != nil {
		return err
	}

	server := newDirectoryServer(engine, logWriter, logger)

	if seedPath != "" && !hadLog {
		if err := applySeed(seedPath, server, logger); err != nil {
			logWriter.Close()
			return err
		}
	}

	socketServer := service.NewSocketServer(cfg.SocketPath(), logger)
	server.registerActions(socketServer)

	socketDone := make(chan error, 1)
	go func() {
		socketDone <- socketServer.Serve(ctx)
	}()

	if cfg.Heartbeat.Enabled {
		interval, err := cfg.Heartbeat.IntervalDuration()
		if err != nil {
			return err
		}
		source, err := heartbeat.New(heartbeat.Config{
			Sender:   heartbeatSender,
			Interval: interval,
			Clock:    clock.Real(),
			Submit: func(ctx context.Context, envelope *schema.Envelope) error {
				_, err := server.submit(envelope)
				return err
			},
			Logger: logger,
		})
		if err != nil {
			return err
		}
		go source.Run(ctx)
	}

	logger.Info("directory daemon running",
		"socket", cfg.SocketPath(),
		"store", cfg.Directory.Store,
		"log", logPath,
	)

	<-ctx.Done()
	logger.Info("shutting down")

	if err := <-socketDone; err != nil {
		logger.Error("socket server error", "error", err)
	}
	if err := logWriter.Close(); err != nil {
		logger.Error("closing command log", "error", err)
	}

	if cfg.Directory.SnapshotOnShutdown {
		snapshotPath := filepath.Join(cfg.Paths.State, snapshotFileName)
		if err := writeShutdownSnapshot(view, snapshotPath); err != nil {
			logger.Error("shutdown snapshot failed", "error", err)
		} else {
			logger.Info("wrote shutdown snapshot", "path", snapshotPath)
		}
	}

	return nil
}

// errViewNotEmpty stops the emptiness probe at the first key.
var errViewNotEmpty = errors.New("view not empty")

func viewIsEmpty(view directory.View) (bool, error) {
	err := view.Scan("", func(string, []byte) error {
		return errViewNotEmpty
	})
	if errors.Is(err, errViewNotEmpty) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func logFileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Size() > 0
}

// replayLog feeds every logged command through the engine. Commands
// the engine rejects are deterministic no-ops and are skipped, the
// same way they changed nothing when first delivered; a DesyncError
// means the log and the transition code disagree and aborts startup.
func replayLog(path string, engine *directory.Engine, logger *slog.Logger) error {
	reader, err := commandlog.Open(path)
	if err != nil {
		return err
	}
	defer reader.Close()

	rejected := 0
	applied, err := reader.Replay(func(envelope *schema.Envelope) error {
		if _, err := engine.ApplyEnvelope(envelope); err != nil {
			var desync *directory.DesyncError
			if errors.As(err, &desync) {
				return err
			}
			rejected++
			logger.Debug("replayed rejected command",
				"command", envelope.Name,
				"sender", envelope.Context.Sender,
				"error", err,
			)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("replaying %s: %w", path, err)
	}
	logger.Info("replayed command log",
		"path", path,
		"records", applied,
		"rejected", rejected,
	)
	return nil
}

// applySeed submits every seed command through the normal command
// path, so the records land in the log and the view together.
func applySeed(path string, server *directoryServer, logger *slog.Logger) error {
	envelopes, err := commandlog.LoadSeedFile(path)
	if err != nil {
		return err
	}
	for i, envelope := range envelopes {
		if _, err := server.submit(envelope); err != nil {
			return fmt.Errorf("seed command %d (%s): %w", i, envelope.Name, err)
		}
	}
	logger.Info("applied seed script", "path", path, "commands", len(envelopes))
	return nil
}

func writeShutdownSnapshot(view directory.View, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := viewstore.WriteSnapshot(view, file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
