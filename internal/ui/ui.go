// Package ui renders remap reports and ledger history for the command line,
// either as styled text or as JSON or YAML documents.
package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/NiceneNerd/hypostasis"
)

// Renderer is implemented by every output format.
type Renderer interface {
	RenderReport(rep *hypostasis.Report) error
	// RenderHistory lists runs, newest first.
	RenderHistory(runs []hypostasis.RunRecord) error
	// RenderRun shows one run with its per-file records.
	RenderRun(run hypostasis.RunRecord, files []hypostasis.FileRecord) error
	RenderStats(stats hypostasis.LedgerStats) error
	RenderError(err error) error
	RenderMessage(msg string) error
}

type Options struct {
	// Root makes file paths relative to it in text output.
	Root string
	// Pairs lists every (old, new) identifier pair in text output.
	Pairs bool
}

// NewRenderer creates a renderer for format writing to output.
func NewRenderer(format Format, output io.Writer, opts Options) (Renderer, error) {
	switch format {
	case FormatAuto:
		if file, ok := output.(*os.File); ok {
			return NewRenderer(DetectFormat(file), output, opts)
		}
		return NewRenderer(FormatText, output, opts)
	case FormatTerminal:
		return newStyled(output, opts, true), nil
	case FormatText:
		return newStyled(output, opts, false), nil
	case FormatJSON, FormatYAML:
		return &structured{output: output, format: format}, nil
	default:
		return nil, fmt.Errorf("unknown format: %v", format)
	}
}

// statusOrder is the order in which summaries list status counts.
var statusOrder = []hypostasis.FileStatus{
	hypostasis.StatusRemapped,
	hypostasis.StatusRestored,
	hypostasis.StatusDryRun,
	hypostasis.StatusUnchanged,
	hypostasis.StatusSkipped,
	hypostasis.StatusCancelled,
	hypostasis.StatusFailed,
}

func summary(rep *hypostasis.Report) map[hypostasis.FileStatus]int {
	counts := make(map[hypostasis.FileStatus]int)
	for _, f := range rep.Files {
		counts[f.Status]++
	}
	return counts
}
