// Copyright 2026 The Meshdir Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/meshdir-foundation/meshdir/lib/codec"
)

// Defaults for the per-connection limits. Directory requests are small
// — a command envelope is a few kilobytes, a bulk seed submission at
// most tens — and a client that connects without sending promptly is
// broken, not slow.
const (
	// DefaultReadTimeout bounds the wait for a client's request.
	DefaultReadTimeout = 30 * time.Second

	// DefaultWriteTimeout bounds writing the response.
	DefaultWriteTimeout = 10 * time.Second

	// DefaultMaxRequestBytes caps a single CBOR request.
	DefaultMaxRequestBytes = 1 << 20
)

// ActionFunc processes one request for a registered action. It
// receives the complete raw CBOR request (the routing header
// included) and decodes its own fields from it.
//
// The returned value becomes the response's data field; nil means the
// response is a bare {ok: true}. A returned error becomes an
// {ok: false} response carrying the error text.
type ActionFunc func(ctx context.Context, raw []byte) (any, error)

// Response is the wire envelope every request is answered with.
type Response struct {
	OK    bool             `json:"ok"`
	Error string           `json:"error,omitempty"`
	Data  codec.RawMessage `json:"data,omitempty"`
}

// SocketServer serves the directory's action protocol on a Unix
// socket: one CBOR request, one CBOR response, then the connection
// closes. CBOR is self-delimiting, so there is no framing layer.
//
// Access control is the socket file's permissions; the server trusts
// every connection it accepts. Register actions with Handle before
// calling Serve.
type SocketServer struct {
	socketPath string
	handlers   map[string]ActionFunc
	logger     *slog.Logger

	// ReadTimeout, WriteTimeout, and MaxRequestBytes override the
	// package defaults when set before Serve. Tests shrink them;
	// daemons leave them alone.
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	MaxRequestBytes int64

	// inflight tracks running handlers so Serve can drain them before
	// returning.
	inflight sync.WaitGroup
}

// NewSocketServer creates a server for socketPath with the default
// limits.
func NewSocketServer(socketPath string, logger *slog.Logger) *SocketServer {
	return &SocketServer{
		socketPath:      socketPath,
		handlers:        make(map[string]ActionFunc),
		logger:          logger,
		ReadTimeout:     DefaultReadTimeout,
		WriteTimeout:    DefaultWriteTimeout,
		MaxRequestBytes: DefaultMaxRequestBytes,
	}
}

// Handle registers the handler for an action name. Registration is
// startup-only; a duplicate name is a programming error and panics.
func (s *SocketServer) Handle(action string, handler ActionFunc) {
	if _, exists := s.handlers[action]; exists {
		panic(fmt.Sprintf("service.SocketServer: duplicate handler for action %q", action))
	}
	s.handlers[action] = handler
}

// Serve listens on the socket and dispatches requests until ctx is
// cancelled, then stops accepting and waits for in-flight handlers.
// A stale socket file at the path is removed before listening, and
// the socket file is removed again on return.
func (s *SocketServer) Serve(ctx context.Context) error {
	if err := os.Remove(s.socketPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing stale socket %s: %w", s.socketPath, err)
	}

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.socketPath, err)
	}
	defer func() {
		listener.Close()
		os.Remove(s.socketPath)
	}()

	// Cancellation unblocks Accept by closing the listener.
	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	s.logger.Info("socket server listening", "path", s.socketPath)

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				break
			}
			s.logger.Error("accept failed", "error", err)
			continue
		}

		s.inflight.Add(1)
		go func() {
			defer s.inflight.Done()
			s.serveConn(ctx, conn)
		}()
	}

	s.inflight.Wait()
	return nil
}

// serveConn runs one request-response cycle.
func (s *SocketServer) serveConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	started := time.Now()

	action, raw, err := s.readRequest(conn)
	if err != nil {
		if errors.Is(err, io.EOF) {
			// Connected, sent nothing.
			return
		}
		s.respond(conn, "", Response{OK: false, Error: err.Error()})
		return
	}

	handler, known := s.handlers[action]
	if !known {
		s.respond(conn, action, Response{OK: false, Error: fmt.Sprintf("unknown action %q", action)})
		return
	}

	result, err := handler(ctx, raw)
	if err != nil {
		s.logger.Debug("action rejected",
			"action", action,
			"error", err,
			"elapsed", time.Since(started),
		)
		s.respond(conn, action, Response{OK: false, Error: err.Error()})
		return
	}

	response := Response{OK: true}
	if result != nil {
		data, err := codec.Marshal(result)
		if err != nil {
			s.respond(conn, action, Response{OK: false, Error: fmt.Sprintf("internal: encoding response: %v", err)})
			return
		}
		response.Data = data
	}
	s.respond(conn, action, response)

	s.logger.Debug("action served",
		"action", action,
		"elapsed", time.Since(started),
	)
}

// readRequest decodes one size-capped CBOR value from the connection
// and extracts the routing header. io.EOF means the client sent
// nothing at all.
func (s *SocketServer) readRequest(conn net.Conn) (action string, raw []byte, err error) {
	conn.SetReadDeadline(time.Now().Add(s.ReadTimeout))

	var request codec.RawMessage
	if err := codec.NewDecoder(io.LimitReader(conn, s.MaxRequestBytes)).Decode(&request); err != nil {
		if errors.Is(err, io.EOF) {
			return "", nil, io.EOF
		}
		return "", nil, fmt.Errorf("invalid request: %w", err)
	}

	var header struct {
		Action string `json:"action"`
	}
	if err := codec.Unmarshal(request, &header); err != nil {
		return "", nil, fmt.Errorf("invalid request: %w", err)
	}
	if header.Action == "" {
		return "", nil, errors.New("missing required field: action")
	}
	return header.Action, []byte(request), nil
}

// respond writes the response under the write deadline. Failures are
// logged and otherwise dropped: the connection is closing either way,
// and the client owns its own timeout.
func (s *SocketServer) respond(conn net.Conn, action string, response Response) {
	conn.SetWriteDeadline(time.Now().Add(s.WriteTimeout))
	if err := codec.NewEncoder(conn).Encode(response); err != nil {
		s.logger.Debug("response write failed", "action", action, "error", err)
	}
}
