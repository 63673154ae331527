// Copyright 2026 The Meshdir Authors
// SPDX-License-Identifier: Apache-2.0

// Package service provides the Unix socket protocol shared by the
// directory daemon and its local clients (the meshdir CLI, operator
// tooling).
//
// Requests and responses are single CBOR values. Each connection
// carries exactly one request/response cycle: the client writes a
// request carrying an "action" field plus action-specific parameters,
// the server answers with a Response envelope, and the connection
// closes. CBOR is self-delimiting, so no framing protocol is needed.
//
// Access control is the socket file's permissions. The daemon trusts
// the sender identities carried in submitted commands; verifying them
// cryptographically is the job of the surrounding deployment, not
// this transport.
package service
