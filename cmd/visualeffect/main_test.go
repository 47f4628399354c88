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

	"github.com/aristath/visualeffect/internal/catalog"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	dir := t.TempDir()
	full := append([]string{
		"visualeffect",
		"--no-log",
		"--global-config", filepath.Join(dir, "global.json"),
		"--project-config", filepath.Join(dir, "project.json"),
	}, args...)

	var stdout, stderr bytes.Buffer
	err := Run(context.Background(), full, strings.NewReader(""), &stdout, &stderr)
	return stdout.String(), err
}

func TestListPrintsEveryExample(t *testing.T) {
	out, err := runCLI(t, "list")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "SECTION"))
	for _, m := range catalog.Manifest() {
		assert.Contains(t, out, m.ID)
	}
}

func TestListJSONFiltersBySection(t *testing.T) {
	out, err := runCLI(t, "list", "--section", "scope", "--format", "json")
	require.NoError(t, err)

	var items []struct {
		ID      string   `json:"id"`
		Section string   `json:"section"`
		Options []string `json:"options"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &items))
	require.Len(t, items, len(catalog.InSection(catalog.SectionScope)))
	for _, item := range items {
		assert.Equal(t, "scope", item.Section)
	}
}

func TestRunPrintsTransitionsAndResult(t *testing.T) {
	out, err := runCLI(t, "--speed", "100", "run", "effect-succeed")
	require.NoError(t, err)

	assert.Contains(t, out, "task value: idle -> running")
	assert.Contains(t, out, "task value: running -> completed")
	assert.True(t, strings.HasSuffix(out, "result: completed 42\n"), out)
}

func TestRunPrintsFailures(t *testing.T) {
	out, err := runCLI(t, "--speed", "100", "run", "effect-fail")
	require.NoError(t, err)

	assert.Contains(t, out, "result: failed: Kaboom!")
}

func TestRunWaitsForScopeRelease(t *testing.T) {
	out, err := runCLI(t, "--speed", "100", "run", "effect-acquire-release", "--format", "json")
	require.NoError(t, err)

	var finalizers []string
	var last map[string]string
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		var r map[string]string
		require.NoError(t, json.Unmarshal([]byte(line), &r), line)
		if r["kind"] == "scope.finalizer" && r["to"] == "completed" {
			finalizers = append(finalizers, r["message"])
		}
		last = r
	}

	assert.Equal(t, []string{"Close log file", "Flush cache", "Close database"}, finalizers)
	assert.Equal(t, "result", last["kind"])
	assert.Equal(t, "completed", last["to"])
	assert.Equal(t, "Work completed!", last["value"])
}

func TestRunOption(t *testing.T) {
	out, err := runCLI(t, "--speed", "100", "run", "effect-add-finalizer", "--option", "fail")
	require.NoError(t, err)

	assert.Contains(t, out, "result: failed")
}

func TestRunErrors(t *testing.T) {
	tests := map[string]struct {
		args   []string
		expErr string
	}{
		"An unknown example should fail.": {
			args:   []string{"run", "effect-nope"},
			expErr: "unknown example",
		},
		"An unknown option should fail.": {
			args:   []string{"run", "effect-all", "--option", "sideways"},
			expErr: `has no option "sideways"`,
		},
		"A missing example argument should fail.": {
			args:   []string{"run"},
			expErr: "invalid command configuration",
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := runCLI(t, test.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), test.expErr)
		})
	}
}

func TestInvalidConfigFails(t *testing.T) {
	dir := t.TempDir()
	project := filepath.Join(dir, "project.json")
	require.NoError(t, os.WriteFile(project, []byte(`{"display":{"theme":"neon"}}`), 0o644))

	var stdout, stderr bytes.Buffer
	err := Run(context.Background(), []string{
		"visualeffect", "--no-log",
		"--global-config", filepath.Join(dir, "global.json"),
		"--project-config", project,
		"list",
	}, strings.NewReader(""), &stdout, &stderr)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "could not load config")
}

func TestLogFile(t *testing.T) {
	dir := t.TempDir()
	logFile := filepath.Join(dir, "visualeffect.log")

	var stdout, stderr bytes.Buffer
	err := Run(context.Background(), []string{
		"visualeffect", "--debug",
		"--log-file", logFile,
		"--global-config", filepath.Join(dir, "global.json"),
		"--project-config", filepath.Join(dir, "project.json"),
		"--speed", "100",
		"run", "effect-succeed",
	}, strings.NewReader(""), &stdout, &stderr)
	require.NoError(t, err)

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "running Effect.succeed")
	assert.Empty(t, stderr.String())
}

func TestTraceFile(t *testing.T) {
	dir := t.TempDir()
	traceFile := filepath.Join(dir, "spans.json")

	out, err := runCLI(t, "--speed", "100", "--trace-file", traceFile, "run", "effect-fail")
	require.NoError(t, err)
	assert.Contains(t, out, "result: failed")

	data, err := os.ReadFile(traceFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"Name":"task error"`)
	assert.Contains(t, string(data), `"Key":"task.outcome"`)
	assert.Contains(t, string(data), `"Value":"failed"`)
	assert.Contains(t, string(data), `"Code":"Error"`)
}
