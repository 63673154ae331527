// Copyright 2026 The Meshdir Authors
// SPDX-License-Identifier: Apache-2.0

// Package process provides binary entrypoint helpers for Meshdir
// binaries. It centralizes the raw stderr reporting that happens
// before the structured logger exists: a main() that gets an error
// from run() calls Fatal and exits.
package process
