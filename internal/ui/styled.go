package ui

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/NiceneNerd/hypostasis"
)

const timeLayout = "2006-01-02 15:04:05"

// styled renders human-readable output. Without color it uses the ASCII
// profile, so the same layout prints as plain text.
type styled struct {
	output io.Writer
	opts   Options

	header lipgloss.Style
	ok     lipgloss.Style
	warn   lipgloss.Style
	fail   lipgloss.Style
	dim    lipgloss.Style
}

func newStyled(output io.Writer, opts Options, color bool) *styled {
	r := lipgloss.NewRenderer(output)
	if !color {
		r.SetColorProfile(termenv.Ascii)
	} else if r.ColorProfile() == termenv.Ascii {
		r.SetColorProfile(termenv.ANSI256)
	}
	return &styled{
		output: output,
		opts:   opts,
		header: r.NewStyle().Bold(true),
		ok:     r.NewStyle().Foreground(lipgloss.Color("2")),
		warn:   r.NewStyle().Foreground(lipgloss.Color("3")),
		fail:   r.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		dim:    r.NewStyle().Foreground(lipgloss.Color("8")),
	}
}

func (s *styled) statusStyle(status hypostasis.FileStatus) lipgloss.Style {
	switch status {
	case hypostasis.StatusRemapped, hypostasis.StatusRestored:
		return s.ok
	case hypostasis.StatusFailed:
		return s.fail
	case hypostasis.StatusCancelled, hypostasis.StatusDryRun:
		return s.warn
	default:
		return s.dim
	}
}

func (s *styled) rel(path string) string {
	if s.opts.Root == "" {
		return path
	}
	rel, err := filepath.Rel(s.opts.Root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}

func (s *styled) RenderReport(rep *hypostasis.Report) error {
	var b strings.Builder

	if rep.RunID != "" {
		title := "Run " + rep.RunID
		if rep.DryRun {
			title += " (dry run)"
		}
		b.WriteString(s.header.Render(title) + "\n")
	}

	for _, f := range rep.Files {
		status := s.statusStyle(f.Status).Render(fmt.Sprintf("%-9s", f.Status))
		line := fmt.Sprintf("  %s %s", status, s.rel(f.Path))
		if n := len(f.Pairs); n > 0 {
			line += s.dim.Render(fmt.Sprintf(" (%d ids)", n))
		}
		b.WriteString(line + "\n")
	}

	if failures := rep.Failures; len(failures) > 0 {
		b.WriteString("\n" + s.fail.Render("Failures") + "\n")
		for _, fe := range failures {
			cause := fe.Cause()
			if fe.Stage != "" {
				cause = string(fe.Stage) + ": " + cause
			}
			fmt.Fprintf(&b, "  %s\n    %s\n", s.rel(fe.Path), cause)
		}
	}

	if rep.Collisions() > 0 {
		b.WriteString("\n" + s.warn.Render("Collisions") + "\n")
		for _, f := range rep.Files {
			for _, c := range f.Collisions {
				fmt.Fprintf(&b, "  %s: %s\n", s.rel(f.Path), c)
			}
		}
	}

	if s.opts.Pairs {
		if pairs := rep.Pairs(); len(pairs) > 0 {
			b.WriteString("\n" + s.header.Render("Remapped ids") + "\n")
			for _, p := range pairs {
				fmt.Fprintf(&b, "  %s\n", p)
			}
		}
	}

	counts := summary(rep)
	parts := make([]string, 0, len(statusOrder))
	for _, status := range statusOrder {
		if n := counts[status]; n > 0 {
			parts = append(parts, s.statusStyle(status).Render(fmt.Sprintf("%d %s", n, status)))
		}
	}
	fmt.Fprintf(&b, "\n%s", s.header.Render(fmt.Sprintf("%d files", len(rep.Files))))
	if len(parts) > 0 {
		b.WriteString(": " + strings.Join(parts, ", "))
	}
	b.WriteString("\n")

	_, err := io.WriteString(s.output, b.String())
	return err
}

func (s *styled) runLine(run hypostasis.RunRecord) string {
	started := run.Started.Local().Format(timeLayout)
	line := fmt.Sprintf("%s  %s  %d files, %d remapped, %d skipped, %s",
		s.header.Render(run.ID), s.dim.Render(started),
		run.Files, run.Remapped, run.Skipped, s.failCount(run.Failed))
	if run.DryRun {
		line += s.warn.Render(" (dry run)")
	}
	if run.Finished.IsZero() {
		line += s.warn.Render(" (unfinished)")
	}
	return line
}

func (s *styled) failCount(n int) string {
	text := fmt.Sprintf("%d failed", n)
	if n > 0 {
		return s.fail.Render(text)
	}
	return text
}

func (s *styled) RenderHistory(runs []hypostasis.RunRecord) error {
	if len(runs) == 0 {
		return s.RenderMessage("No runs recorded")
	}
	var b strings.Builder
	for _, run := range runs {
		b.WriteString(s.runLine(run) + "\n")
		if run.Root != "" {
			fmt.Fprintf(&b, "  %s\n", s.dim.Render(run.Root))
		}
	}
	_, err := io.WriteString(s.output, b.String())
	return err
}

func (s *styled) RenderRun(run hypostasis.RunRecord, files []hypostasis.FileRecord) error {
	var b strings.Builder
	b.WriteString(s.runLine(run) + "\n")
	if run.Root != "" {
		fmt.Fprintf(&b, "  root: %s\n", run.Root)
	}
	fmt.Fprintf(&b, "  reference set: %016x\n", run.RefsFingerprint)
	if !run.Finished.IsZero() {
		fmt.Fprintf(&b, "  took: %s\n", run.Finished.Sub(run.Started).Round(time.Millisecond))
	}
	b.WriteString("\n")
	for _, f := range files {
		status := s.statusStyle(f.Status).Render(fmt.Sprintf("%-9s", f.Status))
		line := fmt.Sprintf("  %s %s", status, s.rel(f.Path))
		if f.Error != "" {
			line += "\n    " + f.Error
		}
		b.WriteString(line + "\n")
		if s.opts.Pairs {
			for _, p := range f.Pairs {
				fmt.Fprintf(&b, "    %s\n", p)
			}
		}
	}
	_, err := io.WriteString(s.output, b.String())
	return err
}

func (s *styled) RenderStats(stats hypostasis.LedgerStats) error {
	_, err := fmt.Fprintf(s.output, "%s\n  runs: %d\n  files: %d (%d records)\n  size: %d bytes\n",
		s.header.Render("Ledger"), stats.Runs, stats.Paths, stats.FileRecords, stats.TotalSize())
	return err
}

func (s *styled) RenderError(err error) error {
	_, werr := fmt.Fprintf(s.output, "%s %v\n", s.fail.Render("Error:"), err)
	return werr
}

func (s *styled) RenderMessage(msg string) error {
	_, err := fmt.Fprintln(s.output, msg)
	return err
}
