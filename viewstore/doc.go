// Copyright 2026 The Meshdir Authors
// SPDX-License-Identifier: Apache-2.0

// Package viewstore provides persistent backing for the directory
// engine's view and the tools for comparing views across replicas.
//
// The engine is storage-agnostic: it only needs get, ordered
// prefix scan, and atomic delta commit (directory.View). This package
// supplies the production implementation — a SQLite database in WAL
// mode — plus snapshot export/import (zstd-compressed deterministic
// CBOR) and a BLAKE3 view digest. Two replicas have converged exactly
// when their digests match.
package viewstore
