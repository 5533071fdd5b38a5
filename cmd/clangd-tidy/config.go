// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// defaultConfigFile is looked up in the working directory when --config
// is not given. Its absence is not an error.
const defaultConfigFile = ".clangd-tidy.yaml"

// fileConfig mirrors the flag set; zero values mean "not configured".
type fileConfig struct {
	ClangdExecutable   string        `yaml:"clangd-executable"`
	CompileCommandsDir string        `yaml:"compile-commands-dir"`
	Jobs               int           `yaml:"jobs"`
	FailOnSeverity     string        `yaml:"fail-on-severity"`
	AllowExtensions    []string      `yaml:"allow-extensions"`
	Format             bool          `yaml:"format"`
	Compact            bool          `yaml:"compact"`
	Context            int           `yaml:"context"`
	Color              string        `yaml:"color"`
	Timeout            time.Duration `yaml:"timeout"`
}

// applyConfigFile overlays config-file values onto flags the user left
// at their defaults. Explicit flags always win over the file.
func applyConfigFile(cmd *cobra.Command) error {
	path := flagConfig
	explicit := path != ""
	if !explicit {
		path = defaultConfigFile
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) && !explicit {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	var cfg fileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	flags := cmd.Flags()
	set := func(name string, apply func()) {
		if !flags.Changed(name) {
			apply()
		}
	}
	if cfg.ClangdExecutable != "" {
		set("clangd-executable", func() { flagClangd = cfg.ClangdExecutable })
	}
	if cfg.CompileCommandsDir != "" {
		set("compile-commands-dir", func() { flagCompileDir = cfg.CompileCommandsDir })
	}
	if cfg.Jobs > 0 {
		set("jobs", func() { flagJobs = cfg.Jobs })
	}
	if cfg.FailOnSeverity != "" {
		set("fail-on-severity", func() { flagFailOnSeverity = cfg.FailOnSeverity })
	}
	if len(cfg.AllowExtensions) > 0 {
		set("allow-extensions", func() { flagAllowExtensions = cfg.AllowExtensions })
	}
	if cfg.Format {
		set("format", func() { flagFormat = true })
	}
	if cfg.Compact {
		set("compact", func() { flagCompact = true })
	}
	if cfg.Context > 0 {
		set("context", func() { flagContext = cfg.Context })
	}
	if cfg.Color != "" {
		set("color", func() { flagColor = cfg.Color })
	}
	if cfg.Timeout > 0 {
		set("timeout", func() { flagTimeout = cfg.Timeout })
	}
	return nil
}
