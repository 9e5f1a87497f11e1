package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/specialistvlad/socgrid/internal/builderr"
	"github.com/specialistvlad/socgrid/internal/cli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_LoadError(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	// An HCL file with a syntax error fails while the app is loading.
	invalidHCL := `
		system "iob_soc" {
			template = "core.v"
		// Missing closing brace here
	`
	tempDir := t.TempDir()
	filePath := filepath.Join(tempDir, "main.hcl")
	err := os.WriteFile(filePath, []byte(invalidHCL), 0600)
	require.NoError(t, err, "failed to set up test file")

	args := []string{"-modules-path", "", filePath}
	out := &bytes.Buffer{}

	// --- Act ---
	runErr := run(context.Background(), out, args)

	// --- Assert ---
	require.Error(t, runErr, "run() should have returned an error for a malformed system file")
	assert.ErrorIs(t, runErr, builderr.ErrMalformedDeclaration)
	assert.Contains(t, runErr.Error(), "failed to load configuration")
	assert.Contains(t, runErr.Error(), "main.hcl")
}

func TestRun_ShouldExit(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	// The "-h" (help) flag should cause cli.Parse to return `shouldExit=true`.
	args := []string{"-h"}
	out := &bytes.Buffer{}

	// --- Act ---
	err := run(context.Background(), out, args)

	// --- Assert ---
	require.NoError(t, err, "run() should return a nil error when shouldExit is true")
	require.Contains(t, out.String(), "Usage:", "Expected help text to be printed to the output buffer")
}

func TestRun_ParseError(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	// Providing an unknown flag will cause cli.Parse to return an error.
	args := []string{"--this-is-not-a-valid-flag"}
	out := &bytes.Buffer{}

	// --- Act ---
	err := run(context.Background(), out, args)

	// --- Assert ---
	require.Error(t, err, "run() should return an error when argument parsing fails")
	var exitErr *cli.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.Code)
	require.Contains(t, err.Error(), "flag provided but not defined: -this-is-not-a-valid-flag")
}

func TestRun_PrintBuildDir(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	tempDir := t.TempDir()
	systemHCL := `
system "iob_soc" {
  template   = "core.v"
  output_dir = "hw_build"
}
`
	filePath := filepath.Join(tempDir, "soc.hcl")
	require.NoError(t, os.WriteFile(filePath, []byte(systemHCL), 0600))
	out := &bytes.Buffer{}

	// --- Act ---
	err := run(context.Background(), out, []string{"-log-level", "error", "-modules-path", "", filePath, "print-build-dir"})

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(tempDir, "hw_build")+"\n", out.String())
}
