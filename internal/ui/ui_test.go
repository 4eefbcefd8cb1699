package ui

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/NiceneNerd/hypostasis"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatAuto, false},
		{"auto", FormatAuto, false},
		{"TERM", FormatTerminal, false},
		{"plain", FormatText, false},
		{"json", FormatJSON, false},
		{"yml", FormatYAML, false},
		{"xml", FormatAuto, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
	assert.Equal(t, "yaml", FormatYAML.String())
	assert.Equal(t, "unknown", Format(42).String())
}

func TestDetectFormat(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "out")
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, FormatText, DetectFormat(f), "regular files are not terminals")

	t.Setenv("NO_COLOR", "1")
	assert.Equal(t, FormatText, DetectFormat(os.Stdout))
}

func sampleReport(root string) *hypostasis.Report {
	fe := &hypostasis.FileError{
		Path:  filepath.Join(root, "A-2_Static.smubin"),
		Stage: hypostasis.StageParse,
		Err:   errors.New("bad magic"),
	}
	return &hypostasis.Report{
		RunID:    "run-1",
		Started:  time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
		Finished: time.Date(2024, 5, 1, 10, 0, 2, 0, time.UTC),
		Files: []hypostasis.FileResult{
			{
				Path:       filepath.Join(root, "A-1_Static.smubin"),
				Status:     hypostasis.StatusRemapped,
				Pairs:      []hypostasis.Pair{{Old: 1, New: 0xdeadbeef}, {Old: 2, New: 0xdeadbeef}},
				Collisions: []hypostasis.Collision{{New: 0xdeadbeef, Olds: []uint32{1, 2}}},
			},
			{Path: fe.Path, Status: hypostasis.StatusFailed, Stage: fe.Stage, Error: "bad magic", Err: fe},
			{Path: filepath.Join(root, "B-1_Static.smubin"), Status: hypostasis.StatusSkipped},
		},
		Failures: []*hypostasis.FileError{fe},
	}
}

func TestTextRenderer_Report(t *testing.T) {
	root := t.TempDir()
	var buf bytes.Buffer
	r, err := NewRenderer(FormatText, &buf, Options{Root: root, Pairs: true})
	require.NoError(t, err)
	require.NoError(t, r.RenderReport(sampleReport(root)))

	out := buf.String()
	assert.NotContains(t, out, "\x1b[", "text output carries no escape codes")
	assert.Contains(t, out, "Run run-1")
	assert.Contains(t, out, "remapped  A-1_Static.smubin (2 ids)")
	assert.Contains(t, out, "Failures\n  A-2_Static.smubin\n    parse: bad magic")
	assert.Contains(t, out, "Collisions\n  A-1_Static.smubin: 0xdeadbeef <- 2 ids")
	assert.Contains(t, out, "0x00000001 -> 0xdeadbeef")
	assert.Contains(t, out, "3 files: 1 remapped, 1 skipped, 1 failed")
}

func TestTextRenderer_History(t *testing.T) {
	var buf bytes.Buffer
	r, err := NewRenderer(FormatAuto, &buf, Options{})
	require.NoError(t, err)

	require.NoError(t, r.RenderHistory(nil))
	assert.Equal(t, "No runs recorded\n", buf.String())

	buf.Reset()
	started := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	run := hypostasis.RunRecord{ID: "run-1", Root: "/mods/x", Started: started, Files: 3, Remapped: 1, Failed: 1, DryRun: true}
	require.NoError(t, r.RenderHistory([]hypostasis.RunRecord{run}))
	out := buf.String()
	assert.Contains(t, out, "3 files, 1 remapped, 0 skipped, 1 failed")
	assert.Contains(t, out, "(dry run)")
	assert.Contains(t, out, "(unfinished)")
	assert.Contains(t, out, "/mods/x")

	buf.Reset()
	run.Finished = started.Add(1500 * time.Millisecond)
	files := []hypostasis.FileRecord{
		{Path: "/mods/x/A-1_Static.smubin", Status: hypostasis.StatusFailed, Error: "parse: bad magic"},
	}
	require.NoError(t, r.RenderRun(run, files))
	out = buf.String()
	assert.Contains(t, out, "took: 1.5s")
	assert.Contains(t, out, "failed    /mods/x/A-1_Static.smubin\n    parse: bad magic")
}

func TestRenderStats(t *testing.T) {
	stats := hypostasis.LedgerStats{Runs: 2, Paths: 3, FileRecords: 4, RunSize: 10, FileSize: 20}

	var buf bytes.Buffer
	r, err := NewRenderer(FormatText, &buf, Options{})
	require.NoError(t, err)
	require.NoError(t, r.RenderStats(stats))
	assert.Equal(t, "Ledger\n  runs: 2\n  files: 3 (4 records)\n  size: 30 bytes\n", buf.String())

	buf.Reset()
	r, err = NewRenderer(FormatJSON, &buf, Options{})
	require.NoError(t, err)
	require.NoError(t, r.RenderStats(stats))
	assert.JSONEq(t, `{"runs":2,"paths":3,"file_records":4,"run_size":10,"file_size":20}`, buf.String())
}

func TestTerminalRenderer(t *testing.T) {
	var buf bytes.Buffer
	r, err := NewRenderer(FormatTerminal, &buf, Options{})
	require.NoError(t, err)
	require.NoError(t, r.RenderError(errors.New("boom")))
	assert.Contains(t, buf.String(), "\x1b[")
	assert.Contains(t, buf.String(), "boom")
}

func TestJSONRenderer(t *testing.T) {
	var buf bytes.Buffer
	r, err := NewRenderer(FormatJSON, &buf, Options{})
	require.NoError(t, err)
	require.NoError(t, r.RenderReport(sampleReport("/root")))

	var got struct {
		RunID   string         `json:"run_id"`
		Summary map[string]int `json:"summary"`
		Pairs   []struct {
			Old uint32 `json:"old"`
			New uint32 `json:"new"`
		} `json:"pairs"`
		Files []map[string]any `json:"files"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "run-1", got.RunID)
	assert.Equal(t, map[string]int{"remapped": 1, "failed": 1, "skipped": 1}, got.Summary)
	require.Len(t, got.Pairs, 2)
	assert.Equal(t, uint32(0xdeadbeef), got.Pairs[1].New)
	require.Len(t, got.Files, 3)
	assert.Equal(t, "parse", got.Files[1]["stage"])

	buf.Reset()
	require.NoError(t, r.RenderHistory(nil))
	assert.JSONEq(t, "[]", buf.String())

	buf.Reset()
	require.NoError(t, r.RenderError(errors.New("boom")))
	assert.JSONEq(t, `{"error":"boom"}`, buf.String())
}

func TestYAMLRenderer(t *testing.T) {
	var buf bytes.Buffer
	r, err := NewRenderer(FormatYAML, &buf, Options{})
	require.NoError(t, err)

	run := hypostasis.RunRecord{ID: "run-1", Files: 1}
	files := []hypostasis.FileRecord{{RunID: "run-1", Path: "/a", Status: hypostasis.StatusRemapped, Pairs: []hypostasis.Pair{{Old: 1, New: 2}}}}
	require.NoError(t, r.RenderRun(run, files))

	var got map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "run-1", got["run"].(map[string]any)["id"])
	file := got["files"].([]any)[0].(map[string]any)
	assert.Equal(t, "remapped", file["status"])
	assert.Equal(t, []any{map[string]any{"old": 1, "new": 2}}, file["pairs"])
}
