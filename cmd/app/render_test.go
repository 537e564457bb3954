package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ExoVista/internal/domain/models"
	"ExoVista/internal/services/disposition"
)

func TestRenderReportPlain(t *testing.T) {
	obs := models.Observation{Period: 3, Duration: 3, TransitDepth: 0.3, PlanetRadius: 10, StellarRadius: 1}
	r := disposition.NewClassifier().ClassifyWithSeed(obs, 1)
	out := renderReport(&r, false)

	for _, want := range []string{"Disposition:", "Confidence:", "Key features:", "Follow-up:", "band 1, seed 1"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Fatalf("plain output contains escape codes")
	}
	if colored := renderReport(&r, true); !strings.Contains(colored, "\x1b[") {
		t.Fatalf("colored output has no escape codes")
	}
}

func TestBatchCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "koi.csv")
	csv := "Period,Transit Depth,Planet Radius\n3,0.3,10\nabc,0.3,10\n"
	if err := os.WriteFile(path, []byte(csv), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs([]string{"batch", path})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("batch: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 rows, got %d: %s", len(lines), stdout.String())
	}
	var row models.BatchRow
	if err := json.Unmarshal([]byte(lines[0]), &row); err != nil || row.Report == nil {
		t.Fatalf("first row not classified: %v %s", err, lines[0])
	}
	if !strings.Contains(stderr.String(), "2 rows, 1 failed") {
		t.Fatalf("unexpected summary %q", stderr.String())
	}
}
