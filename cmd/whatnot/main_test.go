package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// --- helpers ---

const flowSource = `process Fetch:
    input: Request
    output: Raw
process Clean:
    input: Raw
    output: Tidy
`

func writeSource(t *testing.T, dir, name, src string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

func runCmd(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	err := run(context.Background(), &out, &errOut, args)
	return out.String(), errOut.String(), err
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

// --- check ---

func TestCheck_CleanModel(t *testing.T) {
	path := writeSource(t, t.TempDir(), "flow.what", flowSource)

	out, errOut, err := runCmd(t, "check", path)

	require.NoError(t, err)
	assert.Empty(t, errOut)
	assert.Contains(t, out, "0 groups, 2 processes, 3 data objects (3 undefined)")
	assert.Contains(t, out, "diagram flow.mmd (mermaid, 2 processes)")
}

func TestCheck_ErrorsExitOne(t *testing.T) {
	path := writeSource(t, t.TempDir(), "bad.what", "process A:\n\tinput: X\n")

	_, errOut, err := runCmd(t, "check", path)

	var exitErr *ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, 1, exitErr.Code)
	assert.Contains(t, errOut, path+":2: [input: X] -> Don't use tab characters. Use plain spaces.")
}

func TestCheck_WarningsDoNotFail(t *testing.T) {
	path := writeSource(t, t.TempDir(), "warn.what", "group g:\n    implements: Missing\n")

	_, errOut, err := runCmd(t, "check", path)

	require.NoError(t, err)
	assert.Contains(t, errOut, "Implemented process 'Missing' is not defined. (warning)")
}

func TestCheck_MissingFile(t *testing.T) {
	_, _, err := runCmd(t, "check", filepath.Join(t.TempDir(), "nope.what"))

	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestCheck_DataKeywordsFlag(t *testing.T) {
	path := writeSource(t, t.TempDir(), "data.what", "data Orders\nprocess A:\n    input: Orders\n")

	_, _, err := runCmd(t, "check", path)
	require.Error(t, err)

	out, _, err := runCmd(t, "check", "--data-keywords", "data,file", path)
	require.NoError(t, err)
	assert.Contains(t, out, "1 data objects (0 undefined)")
}

func TestCheck_UnknownCollisionPolicy(t *testing.T) {
	path := writeSource(t, t.TempDir(), "flow.what", flowSource)

	_, _, err := runCmd(t, "check", "--collision-policy", "merge", path)

	assert.ErrorContains(t, err, `unknown collision policy "merge"`)
}

// --- render ---

func TestRender_WritesMermaidDefinition(t *testing.T) {
	dir := t.TempDir()
	outDir := filepath.Join(dir, "out")
	path := writeSource(t, dir, "flow.what", flowSource)

	out, _, err := runCmd(t, "render", "--no-render", "--out-dir", outDir, path)

	require.NoError(t, err)
	def := filepath.Join(outDir, "flow.mmd")
	assert.Equal(t, def+"\n", out)
	assert.True(t, strings.HasPrefix(readFile(t, def), "graph TB\n"))
}

func TestRender_ToolOverrideAndMultipleFiles(t *testing.T) {
	dir := t.TempDir()
	a := writeSource(t, dir, "a.what", flowSource)
	b := writeSource(t, dir, "b.what", flowSource)

	out, _, err := runCmd(t, "render", "--no-render", "--tool", "d2", a, b)

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "a.d2")+"\n"+filepath.Join(dir, "b.d2")+"\n", out)
	assert.Contains(t, readFile(t, filepath.Join(dir, "b.d2")), "direction: down\n")
}

func TestRender_RejectsUnknownTool(t *testing.T) {
	path := writeSource(t, t.TempDir(), "flow.what", flowSource)

	_, _, err := runCmd(t, "render", "--tool", "dot", path)

	assert.ErrorContains(t, err, "Tool needs to be either 'mermaid', or 'd2'")
}

func TestRender_RecursiveDiagrams(t *testing.T) {
	dir := t.TempDir()
	path := writeSource(t, dir, "sys.what", `options:
    recurse: true
process Ingest:
    input: Files
group ingest:
    implements: Ingest
    process Read:
        input: Files
`)

	out, _, err := runCmd(t, "render", "--no-render", path)

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "sys.mmd")+"\n"+filepath.Join(dir, "sys_ingest.mmd")+"\n", out)
	assert.Contains(t, readFile(t, filepath.Join(dir, "sys_ingest.mmd")), "title: ingest")
}

func TestRender_StrictFailsOnErrors(t *testing.T) {
	path := writeSource(t, t.TempDir(), "bad.what", "process A\n")

	_, errOut, err := runCmd(t, "render", "--no-render", path)
	require.NoError(t, err)
	assert.Contains(t, errOut, path+":1:")

	_, _, err = runCmd(t, "render", "--no-render", "--strict", path)
	var exitErr *ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, 1, exitErr.Code)
}

func TestRender_RunsConfiguredRenderer(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts not supported on windows")
	}
	dir := t.TempDir()
	tool := filepath.Join(dir, "fake-mmdc")
	require.NoError(t, os.WriteFile(tool, []byte("#!/bin/sh\ncp \"$2\" \"$4\"\n"), 0o755))
	path := writeSource(t, dir, "flow.what", flowSource)
	t.Setenv("WHATNOT_MMDC_PATH", tool)

	out, _, err := runCmd(t, "render", path)

	require.NoError(t, err)
	svg := filepath.Join(dir, "flow.svg")
	assert.Equal(t, filepath.Join(dir, "flow.mmd")+"\n"+svg+"\n", out)
	assert.True(t, strings.HasPrefix(readFile(t, svg), "graph TB\n"))
}

func TestRender_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfg := writeSource(t, dir, "whatnot.yaml", "tool: d2\nno_render: true\n")
	path := writeSource(t, dir, "flow.what", flowSource)

	out, _, err := runCmd(t, "render", "--config", cfg, path)

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "flow.d2")+"\n", out)
}

func TestRender_MissingConfigFile(t *testing.T) {
	path := writeSource(t, t.TempDir(), "flow.what", flowSource)

	_, _, err := runCmd(t, "render", "--config", filepath.Join(t.TempDir(), "none.yaml"), path)

	assert.ErrorContains(t, err, "reading config")
}

// --- export ---

func TestExport_YAML(t *testing.T) {
	path := writeSource(t, t.TempDir(), "flow.what", flowSource)

	out, _, err := runCmd(t, "export", path)
	require.NoError(t, err)

	var doc struct {
		Source string `yaml:"source"`
		Root   struct {
			Processes []struct {
				Name   string `yaml:"name"`
				Inputs []struct {
					Name string `yaml:"name"`
				} `yaml:"inputs"`
			} `yaml:"processes"`
		} `yaml:"root"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(out), &doc))
	assert.Equal(t, path, doc.Source)
	require.Len(t, doc.Root.Processes, 2)
	assert.Equal(t, "Clean", doc.Root.Processes[1].Name)
	assert.Equal(t, "Raw", doc.Root.Processes[1].Inputs[0].Name)
}

func TestExport_JSONToFile(t *testing.T) {
	dir := t.TempDir()
	path := writeSource(t, dir, "bad.what", "process A\n")
	dest := filepath.Join(dir, "model.json")

	out, _, err := runCmd(t, "export", "--format", "json", "-o", dest, path)
	require.NoError(t, err)
	assert.Empty(t, out)

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(readFile(t, dest)), &doc))
	diags, ok := doc["diagnostics"].([]any)
	require.True(t, ok)
	require.Len(t, diags, 1)
	assert.Equal(t, "ERROR", diags[0].(map[string]any)["severity"])
}

func TestExport_UnknownFormat(t *testing.T) {
	path := writeSource(t, t.TempDir(), "flow.what", flowSource)

	_, _, err := runCmd(t, "export", "--format", "toml", path)

	assert.ErrorContains(t, err, `unknown export format "toml"`)
}

// --- watch ---

func TestAffects(t *testing.T) {
	path := filepath.Join(string(filepath.Separator), "src", "flow.what")

	assert.True(t, affects(fsnotify.Event{Name: path, Op: fsnotify.Write}, path))
	assert.True(t, affects(fsnotify.Event{Name: path, Op: fsnotify.Create}, path))
	assert.False(t, affects(fsnotify.Event{Name: path, Op: fsnotify.Chmod}, path))
	assert.False(t, affects(fsnotify.Event{Name: path + ".swp", Op: fsnotify.Write}, path))
}

func TestWatch_RebuildsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := writeSource(t, dir, "flow.what", flowSource)
	def := filepath.Join(dir, "flow.mmd")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		var out, errOut bytes.Buffer
		done <- run(ctx, &out, &errOut, []string{"watch", "--no-render", path})
	}()

	require.Eventually(t, func() bool {
		data, err := os.ReadFile(def)
		return err == nil && strings.Contains(string(data), `"Clean"`)
	}, 5*time.Second, 20*time.Millisecond)

	require.NoError(t, os.WriteFile(path, []byte(flowSource+"process Publish:\n    input: Tidy\n"), 0o644))

	require.Eventually(t, func() bool {
		data, err := os.ReadFile(def)
		return err == nil && strings.Contains(string(data), `"Publish"`)
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop after cancel")
	}
}

// --- logger ---

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger("info", "json", &buf)
	log.Debug("hidden")
	log.Info("shown", "k", "v")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "shown", rec["msg"])
	assert.Equal(t, "v", rec["k"])

	buf.Reset()
	newLogger("bogus", "text", &buf).Info("dropped")
	assert.Empty(t, buf.String())
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"data", "file", "concept"}, splitList([]string{"data,file", "concept"}))
	assert.Empty(t, splitList(nil))
}
