// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command clangd-tidy-diff analyzes only the files and lines touched by
// a unified diff read from stdin. It is the incremental-review entry
// point:
//
//	git diff -U0 origin/main... | clangd-tidy-diff -p build/
//
// Run it from the repository root so the paths in the diff resolve.
// Exit codes match clangd-tidy: 0 clean, 1 threshold met, 2 fatal.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"clangd-tidy/internal/outfmt"
	"clangd-tidy/internal/tidy"
)

var version = "dev"

var (
	flagAllowExtensions []string
	flagFailOnSeverity  string
	flagFormat          bool
	flagGitHub          bool
	flagGitRoot         string
	flagCompact         bool
	flagContext         int
	flagColor           string
	flagCompileDir      string
	flagJobs            int
	flagClangd          string
	flagVerbose         bool
	flagTimeout         time.Duration
)

var thresholdMet bool

var rootCmd = &cobra.Command{
	Use:   "clangd-tidy-diff [flags] < diff",
	Short: "Run clang-tidy checks on the lines changed by a unified diff",
	Long: `clangd-tidy-diff reads a unified diff from stdin, analyzes the
files it touches through a clangd session, and reports only diagnostics on
changed lines. Pair it with git diff -U0 in CI to keep reviews focused on
new findings.`,
	Args:          cobra.NoArgs,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	f := rootCmd.Flags()
	f.StringSliceVar(&flagAllowExtensions, "allow-extensions", tidy.DefaultExtensions,
		"file extensions to analyze; others are silently skipped")
	f.StringVar(&flagFailOnSeverity, "fail-on-severity", "hint",
		"lowest severity that fails the run (error, warn, info, hint)")
	f.BoolVarP(&flagFormat, "format", "f", false,
		"also check clang-format conformance")
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
	f.BoolVarP(&flagVerbose, "verbose", "v", false,
		"debug logging plus clangd's own stderr")
	f.DurationVar(&flagTimeout, "timeout", 2*time.Minute,
		"per-file wait for diagnostics before the file is marked degraded")
}

func run(cmd *cobra.Command, _ []string) error {
	level := slog.LevelWarn
	if flagVerbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))

	threshold, err := tidy.ParseSeverity(flagFailOnSeverity)
	if err != nil {
		return err
	}

	filter, changed, err := linefilterFromStdin()
	if err != nil {
		return err
	}

	files := tidy.SelectFiles(changed, flagAllowExtensions)
	if len(files) == 0 {
		fmt.Println("No relevant changes found.")
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

	var formatter outfmt.Formatter
	if flagCompact {
		formatter = outfmt.Compact{}
	} else {
		enable := flagColor == "always" ||
			(flagColor == "auto" && (isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())))
		formatter = outfmt.NewFancy(flagContext, enable)
	}
	if err := formatter.Format(os.Stdout, results); err != nil {
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
		if err := (outfmt.GitHub{GitRoot: root}).Format(os.Stdout, results); err != nil {
			return err
		}
	}

	if tidy.MeetsThreshold(tidy.WorstSeverity(results), threshold) {
		thresholdMet = true
		fmt.Fprintf(os.Stderr, "found diagnostics at or above severity %q\n", flagFailOnSeverity)
	}
	if flagFormat && tidy.HasFormatViolation(results) {
		thresholdMet = true
	}
	return nil
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
