// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command clangd-tidy harvests clang-tidy diagnostics through a clangd
// session instead of invoking clang-tidy directly, which amortizes
// header parsing across files and cuts wall time by an order of
// magnitude on header-heavy codebases.
//
// Usage:
//
//	clangd-tidy -p build/ src/*.cc
//	clangd-tidy --fail-on-severity=warn --github $(git diff --name-only HEAD)
//
// Exit status is 0 when the analysis ran clean, 1 when a diagnostic at
// or above --fail-on-severity was found, and 2 when the session itself
// failed (clangd missing, crashed, or never initialized).
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"clangd-tidy/internal/linefilter"
	"clangd-tidy/internal/outfmt"
	"clangd-tidy/internal/tidy"
)

// version is stamped by the release build.
var version = "dev"

var (
	flagAllowExtensions []string
	flagFailOnSeverity  string
	flagFormat          bool
	flagOutput          string
	flagGitHub          bool
	flagGitRoot         string
	flagCompact         bool
	flagContext         int
	flagColor           string
	flagCompileDir      string
	flagJobs            int
	flagClangd          string
	flagLineFilter      string
	flagVerbose         bool
	flagTimeout         time.Duration
	flagConfig          string
)

// thresholdMet distinguishes "analysis found problems" (exit 1) from
// fatal errors (exit 2) after Execute returns.
var thresholdMet bool

var rootCmd = &cobra.Command{
	Use:   "clangd-tidy [flags] FILE...",
	Short: "Run clang-tidy and clang-format checks through a clangd session",
	Long: `clangd-tidy analyzes C/C++/CUDA sources by driving a clangd
subprocess over LSP and collecting the diagnostics it pushes. Reusing one
server process across files makes it much faster than invoking clang-tidy
per translation unit, at the cost of not supporting automatic fixes.`,
	Args:              cobra.MinimumNArgs(1),
	Version:           version,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	RunE:              run,
}

func init() {
	f := rootCmd.Flags()
	f.StringSliceVar(&flagAllowExtensions, "allow-extensions", tidy.DefaultExtensions,
		"file extensions to analyze; others are silently skipped")
	f.StringVar(&flagFailOnSeverity, "fail-on-severity", "hint",
		"lowest severity that fails the run (error, warn, info, hint)")
	f.BoolVarP(&flagFormat, "format", "f", false,
		"also check clang-format conformance")
	f.StringVarP(&flagOutput, "output", "o", "",
		"write the report to a file instead of stdout")
	f.BoolVar(&flagGitHub, "github", false,
		"append GitHub Actions workflow commands to the report")
	f.StringVar(&flagGitRoot, "git-root", "",
		"repository root for GitHub annotation paths (default: working directory)")
	f.BoolVarP(&flagCompact, "compact", "c", false,
		"use the compact rendering instead of the fancy one")
	f.IntVar(&flagContext, "context", 2,
		"source lines of context around each finding (fancy rendering)")
	f.StringVar(&flagColor, "color", "auto",
		"colorize output: auto, always, or never")
	f.StringVarP(&flagCompileDir, "compile-commands-dir", "p", "build",
		"directory containing compile_commands.json")
	f.IntVarP(&flagJobs, "jobs", "j", 1,
		"number of files analyzed concurrently")
	f.StringVar(&flagClangd, "clangd-executable", "clangd",
		"clangd binary name or path")
	f.StringVar(&flagLineFilter, "line-filter", "",
		"clang-tidy style JSON line filter restricting reported lines")
	f.BoolVarP(&flagVerbose, "verbose", "v", false,
		"debug logging plus clangd's own stderr")
	f.DurationVar(&flagTimeout, "timeout", 2*time.Minute,
		"per-file wait for diagnostics before the file is marked degraded")
	f.StringVar(&flagConfig, "config", "",
		"config file (default: .clangd-tidy.yaml in the working directory)")
}

// setup configures logging and overlays config-file values onto flags
// the user did not set explicitly.
func setup(cmd *cobra.Command, _ []string) error {
	level := slog.LevelWarn
	if flagVerbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))

	return applyConfigFile(cmd)
}

func run(cmd *cobra.Command, args []string) error {
	threshold, err := tidy.ParseSeverity(flagFailOnSeverity)
	if err != nil {
		return err
	}

	var filter *linefilter.Filter
	if flagLineFilter != "" {
		filter, err = linefilter.ParseClangTidy(flagLineFilter)
		if err != nil {
			return err
		}
	}

	out := io.Writer(os.Stdout)
	if flagOutput != "" {
		file, err := os.Create(flagOutput)
		if err != nil {
			return fmt.Errorf("open output file: %w", err)
		}
		defer file.Close()
		out = file
	}

	files := tidy.SelectFiles(args, flagAllowExtensions)
	if len(files) == 0 {
		slog.Warn("no analyzable files among the arguments")
		return nil
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	results, err := tidy.Run(ctx, tidy.Options{
		Executable:         flagClangd,
		CompileCommandsDir: flagCompileDir,
		Jobs:               flagJobs,
		PerFileTimeout:     flagTimeout,
		CheckFormat:        flagFormat,
		Verbose:            flagVerbose,
		Filter:             filter,
	}, files)
	if err != nil {
		return err
	}

	if err := render(out, results); err != nil {
		return err
	}

	worst := tidy.WorstSeverity(results)
	if tidy.MeetsThreshold(worst, threshold) {
		thresholdMet = true
		fmt.Fprintf(os.Stderr, "found diagnostics at or above severity %q\n", flagFailOnSeverity)
	}
	// With -f a formatting violation fails the run regardless of the
	// severity threshold.
	if flagFormat && tidy.HasFormatViolation(results) {
		thresholdMet = true
	}
	return nil
}

// render writes the chosen rendering, plus GitHub annotations when
// requested. The annotations always go to stdout regardless of -o; the
// runner consumes them from the job log.
func render(out io.Writer, results []tidy.FileResult) error {
	var formatter outfmt.Formatter
	if flagCompact {
		formatter = outfmt.Compact{}
	} else {
		formatter = outfmt.NewFancy(flagContext, colorEnabled())
	}
	if err := formatter.Format(out, results); err != nil {
		return err
	}

	if flagGitHub {
		root := flagGitRoot
		if root == "" {
			wd, err := os.Getwd()
			if err != nil {
				return err
			}
			root = wd
		}
		gh := outfmt.GitHub{GitRoot: root}
		if err := gh.Format(os.Stdout, results); err != nil {
			return err
		}
	}
	return nil
}

func colorEnabled() bool {
	switch flagColor {
	case "always":
		return true
	case "never":
		return false
	}
	if flagOutput != "" {
		return false
	}
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}

func main() {
	err := rootCmd.ExecuteContext(context.Background())
	switch {
	case err == nil && !thresholdMet:
	case err == nil:
		os.Exit(1)
	default:
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(2)
	}
}
