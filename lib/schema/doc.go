// Copyright 2026 The Meshdir Authors
// SPDX-License-Identifier: Apache-2.0

// Package schema defines the command vocabulary of the directory and
// its validation rules.
//
// Every state change in a Meshdir directory is expressed as one of a
// closed set of commands ([RegisterAgent], [UpdateAgent], and so on).
// The replicated log delivers commands as [Envelope] values: the
// command name, the authenticated sender, a logical timestamp, and the
// raw CBOR payload. [DecodeEnvelope] resolves the name to the concrete
// command type, decodes the payload, and validates it.
//
// Validation here is purely structural — field presence, types,
// numeric ranges, enum membership, string lengths, element schemas. It
// never consults directory state; a payload that validates can still
// fail its transition on a domain precondition (duplicate name,
// expired request). This split keeps validation a pure function of the
// payload so it can run anywhere (CLI, daemon ingress, replay) with
// identical results.
//
// The Command interface is sealed: the unexported marker method means
// only this package can add command types, and the engine's type
// switch over commands is exhaustively checkable at compile time.
//
// Commands carry a Sanitize method applying the canonicalizations the
// directory guarantees — proficiency clamped into [0, 1], defaulted
// protocol and visibility. Sanitize runs after Validate and before the
// transition, so the engine only ever sees canonical payloads.
package schema
