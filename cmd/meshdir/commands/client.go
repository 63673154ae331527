// Copyright 2026 The Meshdir Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/meshdir-foundation/meshdir/lib/config"
	"github.com/meshdir-foundation/meshdir/lib/service"
)

// socketEnv overrides the daemon socket path without a config file.
const socketEnv = "MESHDIR_SOCKET"

// callTimeout bounds a single daemon round trip.
const callTimeout = 30 * time.Second

// resolveSocket picks the daemon socket path: the --socket flag when
// set, then $MESHDIR_SOCKET, then the loaded configuration.
func resolveSocket(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if env := os.Getenv(socketEnv); env != "" {
		return env, nil
	}
	cfg, err := config.Load()
	if err != nil {
		return "", fmt.Errorf("locating daemon socket (set --socket or %s): %w", socketEnv, err)
	}
	return cfg.SocketPath(), nil
}

// callDaemon resolves the socket and performs one action round trip.
func callDaemon(socketFlag, action string, fields map[string]any, result any) error {
	socketPath, err := resolveSocket(socketFlag)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()
	return service.NewClient(socketPath).Call(ctx, action, fields, result)
}
