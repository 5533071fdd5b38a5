// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package outfmt

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"clangd-tidy/internal/lsp"
	"clangd-tidy/internal/tidy"
)

// noteLocation matches the "path:line:col:" prefix clang-tidy uses when
// it folds note locations into the diagnostic message.
var noteLocation = regexp.MustCompile(`.*:(\d+):(\d+):.*`)

// Fancy renders diagnostics the way clang does on a terminal: a
// location header, the offending source lines with line numbers, and a
// caret underline beneath the flagged range. Notes embedded in the
// message get their own mini-context.
type Fancy struct {
	// Context is how many extra source lines to show around the range.
	Context int

	severity map[lsp.DiagnosticSeverity]*color.Color
	note     *color.Color
	caret    *color.Color
}

// NewFancy creates the terminal renderer. Color output is forced on or
// off rather than auto-detected; the caller decides based on its
// --color flag and isatty.
func NewFancy(context int, enableColor bool) *Fancy {
	mk := func(attrs ...color.Attribute) *color.Color {
		c := color.New(attrs...)
		if enableColor {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		return c
	}
	return &Fancy{
		Context: context,
		severity: map[lsp.DiagnosticSeverity]*color.Color{
			lsp.SeverityError:       mk(color.FgHiRed),
			lsp.SeverityWarning:     mk(color.FgHiYellow),
			lsp.SeverityInformation: mk(color.FgHiCyan),
			lsp.SeverityHint:        mk(color.FgHiBlue),
		},
		note:  mk(color.FgHiBlack),
		caret: mk(color.FgHiGreen),
	}
}

// Format writes the fancy rendering. Diagnostics without a code are
// skipped; they carry no actionable identity for a human reader.
func (f *Fancy) Format(w io.Writer, results []tidy.FileResult) error {
	var blocks []string
	for _, fr := range sortByPath(results) {
		for _, d := range fr.Diagnostics {
			if d.Code == "" {
				continue
			}
			blocks = append(blocks, f.renderDiagnostic(fr.Path, d))
		}
	}
	if len(blocks) == 0 {
		return nil
	}
	_, err := fmt.Fprintln(w, strings.Join(blocks, "\n"))
	return err
}

func (f *Fancy) renderDiagnostic(path string, d tidy.Diagnostic) string {
	rel := displayPath(path)

	message := strings.ReplaceAll(d.Message, " (fix available)", "")
	var parts []string
	for _, line := range strings.Split(message, "\n") {
		if strings.TrimSpace(line) != "" {
			parts = append(parts, line)
		}
	}
	main, notes := "", parts
	if len(parts) > 0 {
		main, notes = parts[0], parts[1:]
	}

	severity := ""
	if c, ok := f.severity[d.Severity]; ok {
		severity = c.Sprint(d.Severity.String())
	} else if d.Severity != 0 {
		severity = d.Severity.String()
	}

	context := f.codeContext(path, d.Range.Start.Line, d.Range.End.Line,
		d.Range.Start.Character, d.Range.End.Character, f.Context)

	out := fmt.Sprintf("%s:%d:%d: %s: %s [%s]\n%s",
		rel, d.Range.Start.Line+1, d.Range.Start.Character+1, severity, main, d.Code, context)

	for _, note := range notes {
		m := noteLocation.FindStringSubmatch(note)
		if m == nil {
			continue
		}
		line, _ := strconv.Atoi(m[1])
		col, _ := strconv.Atoi(m[2])
		line--
		col--
		fields := strings.Split(note, " ")
		text := ""
		if len(fields) > 2 {
			text = strings.Join(fields[2:], " ")
		}
		noteContext := f.codeContext(path, line, line, col, col+1, 0)
		out += fmt.Sprintf("%s:%d:%d: %s: %s \n%s",
			rel, line+1, col+1, f.note.Sprint("Note"), text, noteContext)
	}
	return out
}

// codeContext returns the numbered source excerpt with underline rows.
// Lines and columns are 0-indexed on input. An unreadable file yields
// an empty context rather than an error; the header line alone still
// locates the finding.
func (f *Fancy) codeContext(path string, lineStart, lineEnd, colStart, colEnd, extra int) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	content := strings.Split(string(data), "\n")

	first := max(0, lineStart-extra)
	last := min(len(content), lineEnd+extra+1)

	var b strings.Builder
	for lino := first; lino < last; lino++ {
		line := content[lino]
		writeNumbered(&b, line, lino)

		if lino < lineStart || lino > lineEnd {
			continue
		}
		start := colStart
		if lino != lineStart {
			start = len(line) - len(strings.TrimLeft(line, " \t"))
		}
		end := colEnd
		if lino != lineEnd {
			end = len(strings.TrimRight(line, " \t"))
		}
		head := "~"
		if lino == lineStart {
			head = "^"
		}
		indicator := strings.Repeat(" ", start) + head
		if end > start+1 {
			indicator += strings.Repeat("~", end-start-1)
		}
		writeNumbered(&b, f.caret.Sprint(indicator), -1)
	}
	return b.String()
}

// writeNumbered emits one gutter-prefixed line; lino < 0 renders an
// empty gutter for indicator rows.
func writeNumbered(b *strings.Builder, line string, lino int) {
	num := ""
	if lino >= 0 {
		num = fmt.Sprintf("%d", lino+1)
	}
	fmt.Fprintf(b, "%-5s |  %s\n", num, strings.TrimRight(line, " \t\r"))
}
