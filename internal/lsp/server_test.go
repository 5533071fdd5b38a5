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
	"errors"
	"strings"
	"testing"
)

func TestServerState_String(t *testing.T) {
	cases := map[ServerState]string{
		ServerStateUninitialized: "uninitialized",
		ServerStateStarting:      "starting",
		ServerStateReady:         "ready",
		ServerStateStopping:      "stopping",
		ServerStateStopped:       "stopped",
		ServerStateFailed:        "failed",
		ServerState(99):          "unknown",
	}
	for state, want := range cases {
		if got := state.String(); got != want {
			t.Errorf("State(%d).String() = %q, want %q", state, got, want)
		}
	}
}

func TestConfig_Args(t *testing.T) {
	args := DefaultConfig().args()
	joined := strings.Join(args, " ")

	for _, want := range []string{
		"--compile-commands-dir=build",
		"--clang-tidy",
		"--j=1",
		"--pch-storage=memory",
		"--enable-config",
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("args missing %q: %v", want, args)
		}
	}
}

func TestServer_Start(t *testing.T) {
	t.Run("returns error for nil context", func(t *testing.T) {
		s := NewServer(DefaultConfig(), t.TempDir())
		if err := s.Start(nil); err == nil { //nolint:staticcheck
			t.Error("expected error for nil context")
		}
	})

	t.Run("returns ErrServerNotInstalled for missing binary", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Executable = "clangd-binary-that-does-not-exist"
		s := NewServer(cfg, t.TempDir())

		err := s.Start(context.Background())
		if !errors.Is(err, ErrServerNotInstalled) {
			t.Errorf("expected ErrServerNotInstalled, got %v", err)
		}
		if s.State() != ServerStateFailed {
			t.Errorf("state = %v, want failed", s.State())
		}
	})

	t.Run("rejects a second start", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Executable = "clangd-binary-that-does-not-exist"
		s := NewServer(cfg, t.TempDir())

		_ = s.Start(context.Background())
		err := s.Start(context.Background())
		if !errors.Is(err, ErrServerAlreadyStarted) {
			t.Errorf("expected ErrServerAlreadyStarted, got %v", err)
		}
	})
}

func TestServer_Shutdown(t *testing.T) {
	t.Run("is safe before start", func(t *testing.T) {
		s := NewServer(DefaultConfig(), t.TempDir())
		if err := s.Shutdown(context.Background()); err != nil {
			t.Errorf("Shutdown: %v", err)
		}
	})

	t.Run("is idempotent", func(t *testing.T) {
		s := NewServer(DefaultConfig(), t.TempDir())
		_ = s.Shutdown(context.Background())
		if err := s.Shutdown(context.Background()); err != nil {
			t.Errorf("second Shutdown: %v", err)
		}
	})

	t.Run("failed state is absorbing", func(t *testing.T) {
		s := NewServer(DefaultConfig(), t.TempDir())
		s.setState(ServerStateFailed)
		s.setState(ServerStateReady)
		if s.State() != ServerStateFailed {
			t.Errorf("state = %v, want failed", s.State())
		}
	})
}
