package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return runWith(t, filepath.Join(t.TempDir(), "config.yaml"), args...)
}

// runWith executes the CLI against the config at configFile, so the command
// history is shared between calls.
func runWith(t *testing.T, configFile string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--config", configFile}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func TestPlanDemo(t *testing.T) {
	out, err := run(t, "plan")
	require.NoError(t, err)
	assert.Contains(t, out, "WORKER")
	assert.Contains(t, out, "FDW-RS")
	assert.Regexp(t, `sec Tx:[0-9]+B`, out)
}

func TestDemoThenLayout(t *testing.T) {
	dir := t.TempDir()
	ws := filepath.Join(dir, "demo.ovm")
	_, err := run(t, "demo", ws)
	require.NoError(t, err)

	dxfPath := filepath.Join(dir, "demo.dxf")
	_, err = run(t, "layout", ws, dxfPath)
	require.NoError(t, err)
	assert.FileExists(t, dxfPath)

	out, err := run(t, "list", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "demo.ovm")
}

func TestMacrosImport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "macros.csv")
	require.NoError(t, os.WriteFile(path, []byte("wtype;memo;seq\nTB;Nudge;250b-20\n"), 0644))

	out, err := run(t, "macros", "import", path)
	require.NoError(t, err)
	assert.Contains(t, out, "1 of 1 entries")
}

func TestStepThrough(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.SetIn(strings.NewReader("\ns\nq\n"))
	var out bytes.Buffer
	cmd.SetOut(&out)

	sent, skipped := 0, 0
	err := stepThrough(cmd, 5,
		func() (bool, error) { sent++; return true, nil },
		func() bool { skipped++; return true },
		func() int { return sent + skipped })
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.Equal(t, 1, skipped)
	assert.Contains(t, out.String(), "[3/5] send?")
}

func TestMacrosSendDropMemo(t *testing.T) {
	config := filepath.Join(t.TempDir(), "config.yaml")

	out, err := runWith(t, config, "macros", "send", "--dry-run", "TB", "250b-20, 300a10")
	require.NoError(t, err)
	assert.Contains(t, out, "sent e250b-20,300a10 to TB at FFFFFFFF")
	_, err = runWith(t, config, "macros", "send", "--dry-run", "TB", "250b-20,300a10")
	require.NoError(t, err)

	out, err = runWith(t, config, "macros", "list", "TB")
	require.NoError(t, err)
	assert.Regexp(t, `TB\s+2\s+250b-20,300a10`, out)

	_, err = runWith(t, config, "macros", "memo", "TB", "250b-20,300a10", "Nudge")
	require.NoError(t, err)
	out, err = runWith(t, config, "macros", "list", "TB")
	require.NoError(t, err)
	assert.Regexp(t, `TB\s+Nudge\s+2\s+250b-20,300a10`, out)

	_, err = runWith(t, config, "macros", "drop", "TB", "250b-20,300a10")
	require.NoError(t, err)
	out, err = runWith(t, config, "macros", "list", "TB")
	require.NoError(t, err)
	assert.NotContains(t, out, "250b-20,300a10")
}

func TestMacrosSendRejects(t *testing.T) {
	_, err := run(t, "macros", "send", "--dry-run", "TB", "xyz")
	assert.Error(t, err)

	_, err = run(t, "macros", "send", "--dry-run=false", "--port", filepath.Join(t.TempDir(), "ttyNONE"), "TB", "250b-20")
	assert.Error(t, err)
}
