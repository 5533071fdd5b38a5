// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package lsp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"time"
)

// =============================================================================
// SERVER STATE
// =============================================================================

// ServerState represents the lifecycle state of the clangd session.
type ServerState int

const (
	// ServerStateUninitialized is the initial state before Start is called.
	ServerStateUninitialized ServerState = iota

	// ServerStateStarting means the clangd process is starting.
	ServerStateStarting

	// ServerStateReady means clangd is initialized and ready for requests.
	ServerStateReady

	// ServerStateStopping means the session is shutting down.
	ServerStateStopping

	// ServerStateStopped means the clangd process has terminated.
	ServerStateStopped

	// ServerStateFailed means the session died from an I/O or protocol
	// error. Absorbing: no transition leaves it.
	ServerStateFailed
)

// String returns a human-readable state name.
func (s ServerState) String() string {
	names := []string{"uninitialized", "starting", "ready", "stopping", "stopped", "failed"}
	if int(s) < len(names) {
		return names[s]
	}
	return "unknown"
}

// =============================================================================
// CONFIG
// =============================================================================

// Config configures the clangd session.
type Config struct {
	// Executable is the clangd binary name or path.
	Executable string

	// CompileCommandsDir is passed as --compile-commands-dir. If the path
	// is invalid clangd falls back to searching parent directories of
	// each source file.
	CompileCommandsDir string

	// Jobs is clangd's internal worker count (--j).
	Jobs int

	// StartupTimeout bounds the initialize handshake.
	StartupTimeout time.Duration

	// Verbose streams clangd's stderr to our stderr instead of
	// discarding it.
	Verbose bool
}

// DefaultConfig returns the session defaults matching the CLI defaults.
func DefaultConfig() Config {
	return Config{
		Executable:         "clangd",
		CompileCommandsDir: "build",
		Jobs:               1,
		StartupTimeout:     30 * time.Second,
	}
}

// args builds the clangd command line. --pch-storage=memory trades memory
// for a large speedup on repeated header parses; --enable-config honors the
// project-local .clangd file.
func (c Config) args() []string {
	return []string{
		fmt.Sprintf("--compile-commands-dir=%s", c.CompileCommandsDir),
		"--clang-tidy",
		fmt.Sprintf("--j=%d", c.Jobs),
		"--pch-storage=memory",
		"--enable-config",
	}
}

// =============================================================================
// SERVER
// =============================================================================

// Server represents a running clangd process.
//
// Description:
//
//	Manages the lifecycle of the clangd subprocess: spawn, LSP initialize
//	handshake, request/notification traffic, and orderly shutdown. One
//	Server exists per run; it is never shared across runs.
//
// Thread Safety:
//
//	Safe for concurrent use after Start() returns successfully.
type Server struct {
	config   Config
	rootPath string

	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser

	protocol     *Protocol
	handler      NotificationHandler
	capabilities ServerCapabilities

	state   ServerState
	stateMu sync.RWMutex

	ctx      context.Context
	cancel   context.CancelFunc
	readDone chan struct{}
	readErr  error

	// Document table: path -> last version handed out. Versions survive
	// didClose so a re-open always gets a fresh version.
	versions map[string]int
	open     map[string]bool
	docMu    sync.Mutex
}

// NewServer creates a new session instance (not started).
//
// Inputs:
//
//	config - Session configuration
//	rootPath - Absolute path to the workspace root
//
// Outputs:
//
//	*Server - The configured (but not started) session
func NewServer(config Config, rootPath string) *Server {
	if config.Executable == "" {
		config.Executable = "clangd"
	}
	return &Server{
		config:   config,
		rootPath: rootPath,
		state:    ServerStateUninitialized,
		readDone: make(chan struct{}),
		versions: make(map[string]int),
		open:     make(map[string]bool),
	}
}

// Start starts the clangd process and initializes it.
//
// Description:
//
//	Starts the subprocess, establishes communication, and performs the
//	LSP initialize handshake within the configured startup timeout. On
//	success the session is ready for document traffic.
//
// Inputs:
//
//	ctx - Context for cancellation and timeout
//
// Outputs:
//
//	error - Non-nil if the server failed to start or initialize
//
// Errors:
//
//	ErrServerNotInstalled - clangd binary not found
//	ErrServerAlreadyStarted - Start called on a non-uninitialized session
//	ErrInitializeFailed - LSP initialize handshake failed
//
// Thread Safety:
//
//	Safe for concurrent use, but only the first caller will start the server.
func (s *Server) Start(ctx context.Context) error {
	if ctx == nil {
		return fmt.Errorf("ctx must not be nil")
	}

	s.stateMu.Lock()
	if s.state != ServerStateUninitialized {
		s.stateMu.Unlock()
		return ErrServerAlreadyStarted
	}
	s.state = ServerStateStarting
	s.stateMu.Unlock()

	// Check binary exists
	path, err := exec.LookPath(s.config.Executable)
	if err != nil {
		s.setState(ServerStateFailed)
		slog.Warn("clangd not installed",
			slog.String("executable", s.config.Executable),
		)
		return fmt.Errorf("%w: %s", ErrServerNotInstalled, s.config.Executable)
	}

	slog.Info("Starting clangd",
		slog.String("command", path),
		slog.String("compile_commands_dir", s.config.CompileCommandsDir),
		slog.Int("jobs", s.config.Jobs),
		slog.String("root_path", s.rootPath),
	)

	// Create session context (independent of caller's context)
	s.ctx, s.cancel = context.WithCancel(context.Background())

	// Create command
	s.cmd = exec.CommandContext(s.ctx, path, s.config.args()...)
	s.cmd.Dir = s.rootPath
	if s.config.Verbose {
		s.cmd.Stderr = os.Stderr
	}

	// Setup pipes
	s.stdin, err = s.cmd.StdinPipe()
	if err != nil {
		s.fail(fmt.Errorf("stdin pipe: %w", err))
		return fmt.Errorf("stdin pipe: %w", err)
	}

	s.stdout, err = s.cmd.StdoutPipe()
	if err != nil {
		s.fail(fmt.Errorf("stdout pipe: %w", err))
		return fmt.Errorf("stdout pipe: %w", err)
	}

	// Start process
	if err := s.cmd.Start(); err != nil {
		s.fail(fmt.Errorf("start process: %w", err))
		recordSpawn(ctx, false)
		return fmt.Errorf("start process: %w", err)
	}
	recordSpawn(ctx, true)

	// Setup protocol
	s.protocol = NewProtocol(s.stdout, s.stdin)
	if s.handler != nil {
		s.protocol.SetNotificationHandler(s.handler)
	}

	// Start read loop in background. When it exits the session is over:
	// pending waiters are unblocked so no job hangs on a dead server.
	go func() {
		defer close(s.readDone)
		err := s.protocol.ReadLoop(s.ctx)
		if err != nil && s.State() == ServerStateReady {
			s.readErr = err
			s.setState(ServerStateFailed)
			slog.Error("clangd session failed", slog.Any("error", err))
		}
		s.protocol.Close()
	}()

	// Perform initialize handshake
	initCtx, cancel := context.WithTimeout(ctx, s.config.StartupTimeout)
	defer cancel()
	if err := s.initialize(initCtx); err != nil {
		_ = s.Shutdown(ctx)
		s.setState(ServerStateFailed)
		return fmt.Errorf("%w: %v", ErrInitializeFailed, err)
	}

	s.setState(ServerStateReady)

	slog.Info("clangd ready",
		slog.Bool("formatting", s.capabilities.HasDocumentFormattingProvider()),
	)

	return nil
}

// initialize performs the LSP initialize handshake.
func (s *Server) initialize(ctx context.Context) error {
	params := InitializeParams{
		ProcessID: os.Getpid(),
		RootURI:   PathToURI(s.rootPath),
		Capabilities: ClientCapabilities{
			TextDocument: TextDocumentClientCapabilities{
				PublishDiagnostics: &PublishDiagnosticsClientCapabilities{
					VersionSupport:         true,
					CodeDescriptionSupport: true,
				},
				Formatting: &DocumentFormattingClientCapabilities{},
			},
		},
		WorkspaceFolders: []WorkspaceFolder{
			{
				URI:  PathToURI(s.rootPath),
				Name: "workspace",
			},
		},
	}

	resp, err := s.protocol.SendRequest(ctx, "initialize", params)
	if err != nil {
		return fmt.Errorf("initialize request: %w", err)
	}

	var result InitializeResult
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		return fmt.Errorf("parse initialize result: %w", err)
	}

	s.capabilities = result.Capabilities

	// Send initialized notification
	if err := s.protocol.SendNotification("initialized", struct{}{}); err != nil {
		return fmt.Errorf("initialized notification: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the session.
//
// Description:
//
//	Sends shutdown and exit messages to clangd, then waits for the
//	process to terminate. If the process doesn't exit within a grace
//	period it is killed. Cleanup runs on every exit path.
//
// Inputs:
//
//	ctx - Context for cancellation and timeout
//
// Outputs:
//
//	error - Non-nil if shutdown encountered errors (server is still stopped)
//
// Thread Safety:
//
//	Safe for concurrent use. Multiple calls are idempotent.
func (s *Server) Shutdown(ctx context.Context) error {
	s.stateMu.Lock()
	if s.state == ServerStateStopped || s.state == ServerStateStopping {
		s.stateMu.Unlock()
		return nil
	}
	failed := s.state == ServerStateFailed
	s.state = ServerStateStopping
	s.stateMu.Unlock()

	slog.Info("Shutting down clangd")

	defer s.cleanup(failed)

	// Try graceful shutdown
	if s.protocol != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		// Send shutdown request (ignoring errors)
		_, _ = s.protocol.SendRequest(shutdownCtx, "shutdown", nil)

		// Send exit notification
		_ = s.protocol.SendNotification("exit", nil)

		// Mark protocol as closed
		s.protocol.Close()
	}

	// Close stdin to signal EOF to server
	if s.stdin != nil {
		_ = s.stdin.Close()
	}

	// Wait for process with timeout
	if s.cmd != nil && s.cmd.Process != nil {
		done := make(chan error, 1)
		go func() { done <- s.cmd.Wait() }()

		select {
		case <-time.After(5 * time.Second):
			// Force kill
			_ = s.cmd.Process.Kill()
			<-done
		case <-done:
		}
	}

	// Wait for read loop to finish
	if s.cancel != nil {
		s.cancel()
	}

	select {
	case <-s.readDone:
	case <-time.After(time.Second):
	}

	return nil
}

// fail records a startup failure and releases resources.
func (s *Server) fail(err error) {
	s.readErr = err
	s.cleanup(true)
}

// cleanup releases resources and sets the terminal state.
func (s *Server) cleanup(failed bool) {
	if s.cancel != nil {
		s.cancel()
	}
	if s.stdin != nil {
		_ = s.stdin.Close()
	}
	if s.stdout != nil {
		_ = s.stdout.Close()
	}
	if failed {
		s.setState(ServerStateFailed)
	} else {
		s.setState(ServerStateStopped)
	}
}

// =============================================================================
// ACCESSORS
// =============================================================================

// State returns the current session state.
//
// Thread Safety:
//
//	Safe for concurrent use.
func (s *Server) State() ServerState {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.state
}

// RootPath returns the workspace root path.
func (s *Server) RootPath() string {
	return s.rootPath
}

// Capabilities returns the capabilities reported by clangd during
// initialization. Zero value before Start.
func (s *Server) Capabilities() ServerCapabilities {
	return s.capabilities
}

// Done returns a channel closed when the read loop exits, i.e. when no
// further server messages can arrive.
func (s *Server) Done() <-chan struct{} {
	return s.readDone
}

// Err returns the error that terminated the session, nil after a clean
// shutdown. Valid once Done() is closed or State() is Failed.
func (s *Server) Err() error {
	return s.readErr
}

// =============================================================================
// RAW REQUEST METHODS
// =============================================================================

// Request sends an LSP request and waits for the response.
//
// Inputs:
//
//	ctx - Context for cancellation and timeout
//	method - The LSP method to invoke
//	params - Method parameters
//
// Outputs:
//
//	*Response - The server's response
//	error - Non-nil if server not ready, send failed, or timeout
//
// Thread Safety:
//
//	Safe for concurrent use.
func (s *Server) Request(ctx context.Context, method string, params interface{}) (*Response, error) {
	if ctx == nil {
		return nil, fmt.Errorf("ctx must not be nil")
	}
	if s.State() != ServerStateReady {
		return nil, ErrServerNotRunning
	}
	start := time.Now()
	resp, err := s.protocol.SendRequest(ctx, method, params)
	recordRequest(ctx, method, time.Since(start), err == nil)
	return resp, err
}

// Notify sends an LSP notification.
//
// Thread Safety:
//
//	Safe for concurrent use.
func (s *Server) Notify(method string, params interface{}) error {
	if s.State() != ServerStateReady {
		return ErrServerNotRunning
	}
	return s.protocol.SendNotification(method, params)
}

// SetNotificationHandler registers the handler for server-pushed
// notifications. May be called before Start; the handler is applied as
// soon as the transport exists. Must be set before documents are opened
// or pushed diagnostics may be dropped.
func (s *Server) SetNotificationHandler(h NotificationHandler) {
	s.handler = h
	if s.protocol != nil {
		s.protocol.SetNotificationHandler(h)
	}
}

// =============================================================================
// INTERNAL HELPERS
// =============================================================================

func (s *Server) setState(state ServerState) {
	s.stateMu.Lock()
	// Failed is absorbing
	if s.state != ServerStateFailed || state == ServerStateFailed {
		s.state = state
	}
	s.stateMu.Unlock()
}
