package cli

import (
	"bytes"
	"testing"

	"github.com/specialistvlad/socgrid/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	var out bytes.Buffer

	// --- Act ---
	cfg, exit, err := Parse([]string{"soc/iob_soc.hcl"}, &out)

	// --- Assert ---
	require.NoError(t, err)
	assert.False(t, exit)
	assert.Equal(t, "soc/iob_soc.hcl", cfg.SystemPath)
	assert.Equal(t, "modules", cfg.ModulesPath)
	assert.Equal(t, []string{"all"}, cfg.Targets)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 2, cfg.Jobs)
	assert.Positive(t, cfg.WorkerCount)
	assert.Equal(t, config.DefaultBuild(), cfg.Build)
}

func TestParse_FlagsAndTargets(t *testing.T) {
	t.Parallel()

	cfg, exit, err := Parse([]string{
		"-s", "soc",
		"-freq", "50000000",
		"-baud", "3000000",
		"-use-ddr",
		"-ddr-addr-w", "28",
		"-jobs", "4",
		"-log-level", "DEBUG",
		"-target", "sw-clean, hex",
		"system",
	}, &bytes.Buffer{})

	require.NoError(t, err)
	assert.False(t, exit)
	assert.Equal(t, "soc", cfg.SystemPath)
	assert.Equal(t, []string{"system", "sw-clean", "hex"}, cfg.Targets)
	assert.Equal(t, config.Build{Freq: 50000000, Baud: 3000000, UseDDR: true, DDRAddrW: 28}, cfg.Build)
	assert.Equal(t, 4, cfg.Jobs)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestParse_PositionalPathThenTargets(t *testing.T) {
	t.Parallel()

	cfg, _, err := Parse([]string{"soc", "clean", "all", "verify"}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, "soc", cfg.SystemPath)
	assert.Equal(t, []string{"clean", "all", "verify"}, cfg.Targets)
}

func TestParse_HelpAndNoPath(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	cfg, exit, err := Parse([]string{"-h"}, &out)
	require.NoError(t, err)
	assert.True(t, exit)
	assert.Nil(t, cfg)
	assert.Contains(t, out.String(), "Usage:")

	out.Reset()
	_, exit, err = Parse(nil, &out)
	require.NoError(t, err)
	assert.True(t, exit)
	assert.Contains(t, out.String(), "print-build-dir")
}

func TestParse_UsageErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown flag", []string{"--nope"}, "flag provided but not defined"},
		{"bad log format", []string{"-log-format", "xml", "soc"}, "invalid log-format"},
		{"bad log level", []string{"-log-level", "loud", "soc"}, "invalid log-level"},
		{"unknown target", []string{"soc", "sim"}, `unknown target "sim"`},
		{"bad baud", []string{"-baud", "0", "soc"}, "baud must be positive"},
		{"no jobs", []string{"-jobs", "0", "soc"}, "jobs must be positive"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, exit, err := Parse(tt.args, &bytes.Buffer{})
			require.Error(t, err)
			assert.False(t, exit)

			var exitErr *ExitError
			require.ErrorAs(t, err, &exitErr)
			assert.Equal(t, 2, exitErr.Code)
			assert.Contains(t, exitErr.Message, tt.want)
		})
	}
}
