// Copyright 2026 The Meshdir Authors
// SPDX-License-Identifier: Apache-2.0

package directory

import (
	"fmt"
	"sort"

	"github.com/meshdir-foundation/meshdir/lib/codec"
	"github.com/meshdir-foundation/meshdir/lib/schema"
)

// Engine applies commands to a view. It holds no state of its own
// beyond the view reference; all directory state lives in the view so
// that snapshot, restore, and replay need nothing else.
type Engine struct {
	view View
}

// NewEngine returns an engine over the given view.
func NewEngine(view View) *Engine {
	return &Engine{view: view}
}

// View returns the engine's backing view, for read paths and
// digests.
func (e *Engine) View() View { return e.view }

// Apply runs one command through its transition. On success the
// complete staged delta is committed and the transition's events are
// returned. On any error nothing is written.
//
// The command must already be validated and sanitized
// (schema.DecodeEnvelope does both); Apply checks only domain
// preconditions against the view.
func (e *Engine) Apply(command schema.Command, ctx schema.Context) ([]Event, error) {
	t := newTxn(e.view)

	var events []Event
	var err error
	switch cmd := command.(type) {
	case *schema.RegisterAgent:
		events, err = registerAgent(t, cmd, ctx)
	case *schema.UpdateAgent:
		events, err = updateAgent(t, cmd, ctx)
	case *schema.UnregisterAgent:
		events, err = unregisterAgent(t, ctx)
	case *schema.CreateMatchRequest:
		events, err = createMatchRequest(t, cmd, ctx)
	case *schema.ProposeMatch:
		events, err = proposeMatch(t, cmd, ctx)
	case *schema.AcceptMatch:
		events, err = acceptMatch(t, cmd, ctx)
	case *schema.CompleteMatch:
		events, err = completeMatch(t, cmd, ctx)
	case *schema.JoinChannel:
		events, err = joinChannel(t, cmd, ctx)
	case *schema.LeaveChannel:
		events, err = leaveChannel(t, cmd, ctx)
	case *schema.RecordMessage:
		events, err = recordMessage(t, cmd, ctx)
	case *schema.Heartbeat:
		events, err = heartbeat(t, ctx)
	default:
		err = fmt.Errorf("unhandled command type %T", command)
	}
	if err != nil {
		return nil, err
	}
	if err := e.view.Commit(t.delta()); err != nil {
		return nil, fmt.Errorf("committing delta: %w", err)
	}
	return events, nil
}

// ApplyEnvelope decodes a wire envelope and applies the command it
// carries. Validation failures reject before the transition runs.
func (e *Engine) ApplyEnvelope(envelope *schema.Envelope) ([]Event, error) {
	command, err := schema.DecodeEnvelope(envelope)
	if err != nil {
		return nil, err
	}
	return e.Apply(command, envelope.Context)
}

// txn stages a transition's writes on top of the view. Reads see
// staged writes (read-your-writes within the transition); nothing
// touches the view until the engine commits the delta.
type txn struct {
	view View

	// staged maps key to pending value bytes; nil marks a pending
	// delete. Last write per key wins.
	staged map[string][]byte
}

func newTxn(view View) *txn {
	return &txn{view: view, staged: make(map[string][]byte)}
}

// get decodes the value at key into out, consulting staged writes
// first. A decode failure is a DesyncError: values in the view were
// written by this package and must decode.
func (t *txn) get(key string, out any) (bool, error) {
	raw, staged := t.staged[key]
	if staged {
		if raw == nil {
			return false, nil
		}
	} else {
		var ok bool
		var err error
		raw, ok, err = t.view.Get(key)
		if err != nil {
			return false, fmt.Errorf("reading %q: %w", key, err)
		}
		if !ok {
			return false, nil
		}
	}
	if err := codec.Unmarshal(raw, out); err != nil {
		return false, desyncf(key, err, "undecodable value")
	}
	return true, nil
}

// exists reports whether key has a value, without decoding.
func (t *txn) exists(key string) (bool, error) {
	if raw, staged := t.staged[key]; staged {
		return raw != nil, nil
	}
	_, ok, err := t.view.Get(key)
	if err != nil {
		return false, fmt.Errorf("reading %q: %w", key, err)
	}
	return ok, nil
}

// put stages a deterministic-CBOR encoding of value at key.
func (t *txn) put(key string, value any) error {
	raw, err := codec.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding %q: %w", key, err)
	}
	t.staged[key] = raw
	return nil
}

// del stages a delete. Deleting an absent key is a no-op at commit.
func (t *txn) del(key string) {
	t.staged[key] = nil
}

// scan iterates keys under prefix in ascending order, with staged
// writes merged in: staged puts appear, staged deletes are skipped.
func (t *txn) scan(prefix string, fn func(key string, raw []byte) error) error {
	merged := make(map[string][]byte)
	err := t.view.Scan(prefix, func(key string, value []byte) error {
		merged[key] = value
		return nil
	})
	if err != nil {
		return err
	}
	for key, raw := range t.staged {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			if raw == nil {
				delete(merged, key)
			} else {
				merged[key] = raw
			}
		}
	}
	keys := make([]string, 0, len(merged))
	for key := range merged {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if err := fn(key, merged[key]); err != nil {
			return err
		}
	}
	return nil
}

// delta materializes the staged writes, puts sorted by key.
func (t *txn) delta() Delta {
	var delta Delta
	for key, raw := range t.staged {
		if raw == nil {
			delta.Deletes = append(delta.Deletes, key)
		} else {
			delta.Puts = append(delta.Puts, KeyValue{Key: key, Value: raw})
		}
	}
	sort.Slice(delta.Puts, func(i, j int) bool { return delta.Puts[i].Key < delta.Puts[j].Key })
	sort.Strings(delta.Deletes)
	return delta
}

// stats loads the global counters, zero-valued before the first
// write.
func (t *txn) stats() (Stats, error) {
	var s Stats
	if _, err := t.get(keyStats, &s); err != nil {
		return Stats{}, err
	}
	return s, nil
}

// agent loads the sender's agent record, ErrNotRegistered when
// absent.
func (t *txn) agent(ctx schema.Context) (Agent, error) {
	var agent Agent
	ok, err := t.get(agentKey(ctx.Sender), &agent)
	if err != nil {
		return Agent{}, err
	}
	if !ok {
		return Agent{}, ErrNotRegistered
	}
	return agent, nil
}
