package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func scoreFixtures(t *testing.T) (input, profiles string) {
	t.Helper()
	dir := t.TempDir()
	input = writeFile(t, dir, "txns.jsonl", strings.Join([]string{
		`{"account_key":"ACC-1","party_key":"P-1","amount":500,"currency":"USD","timestamp":"2025-03-04T02:15:00Z"}`,
		`{"account_key":"ACC-2","party_key":"P-2","amount":25,"currency":"USD","timestamp":"yesterday"}`,
		`{broken`,
	}, "\n"))
	profiles = writeFile(t, dir, "profiles.csv", "ACCOUNT_KEY,mean_amt,std_amt,typical_currency\nACC-1,100,10,USD\n")
	return input, profiles
}

func TestRunScore_JSONLines(t *testing.T) {
	input, profiles := scoreFixtures(t)

	var stdout, stderr bytes.Buffer
	err := runScore(context.Background(), []string{"-input", input, "-profiles", profiles}, &stdout, &stderr)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	require.Len(t, lines, 1)

	var row map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &row))
	assert.Equal(t, "ACC-1", row["account_key"])
	assert.Equal(t, 30.0, row["raw_score"])
	assert.Equal(t, "LOW", row["risk_band"])
	assert.ElementsMatch(t, []any{"KI01", "KI18"}, row["signals"])

	logs := stderr.String()
	assert.Contains(t, logs, "skipping undecodable line")
	assert.Contains(t, logs, "transaction rejected")
}

func TestRunScore_CSVToFile(t *testing.T) {
	input, profiles := scoreFixtures(t)
	output := filepath.Join(t.TempDir(), "scores.csv")

	var stdout, stderr bytes.Buffer
	err := runScore(context.Background(), []string{
		"-input", input, "-profiles", profiles, "-output", output, "-format", "csv",
	}, &stdout, &stderr)
	require.NoError(t, err)
	assert.Empty(t, stdout.String())

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	rows := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, rows, 2)
	assert.True(t, strings.HasPrefix(rows[0], "account_key,party_key,timestamp"))
	assert.True(t, strings.HasPrefix(rows[1], "ACC-1,P-1,"))
}

func TestRunScore_InvalidArguments(t *testing.T) {
	input, _ := scoreFixtures(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "missing input", args: nil, want: "-input is required"},
		{name: "unknown format", args: []string{"-input", input, "-format", "xml"}, want: "unsupported format"},
		{name: "missing input file", args: []string{"-input", filepath.Join(t.TempDir(), "none.jsonl")}, want: "failed to open input"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			err := runScore(context.Background(), tt.args, &stdout, &stderr)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestRunScore_InvalidScoringConfig(t *testing.T) {
	input, _ := scoreFixtures(t)
	cfg := writeFile(t, t.TempDir(), "scoring.yaml", "weights:\n  KI99: 1\n")

	var stdout, stderr bytes.Buffer
	err := runScore(context.Background(), []string{"-input", input, "-config", cfg}, &stdout, &stderr)
	require.Error(t, err)
}

func TestRunScore_OutputWriteFailure(t *testing.T) {
	if _, err := os.Stat("/dev/full"); err != nil {
		t.Skip("/dev/full not available")
	}
	input, profiles := scoreFixtures(t)

	var stdout, stderr bytes.Buffer
	err := runScore(context.Background(), []string{
		"-input", input, "-profiles", profiles, "-output", "/dev/full",
	}, &stdout, &stderr)
	require.Error(t, err)
	assert.NotContains(t, stderr.String(), "results written")
}

func TestWriteResultsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scores.jsonl")
	require.NoError(t, writeResultsFile(path, "jsonl", nil))

	_, err := os.Stat(path)
	require.NoError(t, err)

	err = writeResultsFile(filepath.Join(t.TempDir(), "missing", "scores.jsonl"), "jsonl", nil)
	assert.ErrorContains(t, err, "failed to create output file")
}

func TestRunMigrate_RequiresDatabase(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	err := runMigrate(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}
