package ui

import (
	"encoding/json"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/NiceneNerd/hypostasis"
)

// structured renders machine-readable JSON or YAML documents.
type structured struct {
	output io.Writer
	format Format
}

func (s *structured) encode(v any) error {
	if s.format == FormatYAML {
		enc := yaml.NewEncoder(s.output)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	enc := json.NewEncoder(s.output)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

type reportView struct {
	RunID    string                        `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	Started  time.Time                     `json:"started" yaml:"started"`
	Finished time.Time                     `json:"finished" yaml:"finished"`
	DryRun   bool                          `json:"dry_run,omitempty" yaml:"dry_run,omitempty"`
	Summary  map[hypostasis.FileStatus]int `json:"summary" yaml:"summary"`
	Pairs    []hypostasis.Pair             `json:"pairs" yaml:"pairs"`
	Files    []hypostasis.FileResult       `json:"files" yaml:"files"`
}

func (s *structured) RenderReport(rep *hypostasis.Report) error {
	pairs := rep.Pairs()
	if pairs == nil {
		pairs = []hypostasis.Pair{}
	}
	return s.encode(reportView{
		RunID:    rep.RunID,
		Started:  rep.Started,
		Finished: rep.Finished,
		DryRun:   rep.DryRun,
		Summary:  summary(rep),
		Pairs:    pairs,
		Files:    rep.Files,
	})
}

func (s *structured) RenderHistory(runs []hypostasis.RunRecord) error {
	if runs == nil {
		runs = []hypostasis.RunRecord{}
	}
	return s.encode(runs)
}

type runView struct {
	Run   hypostasis.RunRecord    `json:"run" yaml:"run"`
	Files []hypostasis.FileRecord `json:"files" yaml:"files"`
}

func (s *structured) RenderRun(run hypostasis.RunRecord, files []hypostasis.FileRecord) error {
	if files == nil {
		files = []hypostasis.FileRecord{}
	}
	return s.encode(runView{Run: run, Files: files})
}

func (s *structured) RenderStats(stats hypostasis.LedgerStats) error {
	return s.encode(stats)
}

func (s *structured) RenderError(err error) error {
	return s.encode(map[string]string{"error": err.Error()})
}

func (s *structured) RenderMessage(msg string) error {
	return s.encode(map[string]string{"message": msg})
}
