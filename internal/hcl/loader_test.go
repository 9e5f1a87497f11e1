package hcl

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/specialistvlad/socgrid/internal/builderr"
	"github.com/specialistvlad/socgrid/internal/config"
	"github.com/specialistvlad/socgrid/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func load(t *testing.T, build config.Build, files map[string]string, paths ...string) (*config.Model, string, error) {
	t.Helper()
	root := testutil.WriteTree(t, t.TempDir(), files)
	abs := make([]string, len(paths))
	for i, p := range paths {
		abs[i] = filepath.Join(root, p)
	}
	model, err := NewLoader().Load(context.Background(), build, abs...)
	return model, root, err
}

func TestLoad_ModulesAndSystem(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	files := map[string]string{
		"lib/uart/uart.hcl": `
module "iob_uart" {
  category   = "peripheral"
  submodules = ["iob_reg"]
  headers    = ["include/iob_uart_swreg_def.vh"]
  instance   = "include/inst.vh"
  sources    = ["hardware/src", "hardware/simulation/src/uart_tb.v"]
}
`,
		"lib/shared.hcl": `
module "iob_reg" {
  root    = "/opt/ip/iob_reg"
  purpose = "fpga"
}
`,
		"soc/soc.hcl": `
system "iob_soc" {
  template   = "hw/core.v"
  output_dir = "out"
  lanes      = 2

  peripheral "UART0" { module = "iob_uart" }

  software "firmware" {
    dir    = "sw/fw"
    addr_w = var.use_ddr ? var.ddr_addr_w : 15
  }
  software "console" {
    dir     = "sw/console"
    image   = false
    command = ["go", "build", "-o", "console"]
  }
}
`,
	}

	// --- Act ---
	model, root, err := load(t, config.DefaultBuild(), files, "soc", "lib")

	// --- Assert ---
	require.NoError(t, err)
	require.Len(t, model.Modules, 2)

	byName := map[string]*config.ModuleDef{}
	for _, m := range model.Modules {
		byName[m.Name] = m
	}
	uart := byName["iob_uart"]
	require.NotNil(t, uart)
	assert.Equal(t, filepath.Join(root, "lib", "uart"), uart.Root)
	assert.Equal(t, []string{"iob_reg"}, uart.Submodules)
	assert.Equal(t, "peripheral", uart.Category)
	assert.Equal(t, filepath.Join(root, "lib", "uart", "uart.hcl"), uart.Source)
	assert.Equal(t, []string{"hardware/src", "hardware/simulation/src/uart_tb.v"}, uart.Sources)
	assert.Empty(t, uart.Purpose)
	assert.Equal(t, "/opt/ip/iob_reg", byName["iob_reg"].Root)
	assert.Equal(t, "fpga", byName["iob_reg"].Purpose)

	sys := model.System
	require.NotNil(t, sys)
	assert.Equal(t, "iob_soc", sys.Name)
	assert.Equal(t, filepath.Join(root, "soc", "hw", "core.v"), sys.Template)
	assert.Equal(t, filepath.Join(root, "soc", "out"), sys.OutputDir)
	assert.Equal(t, []string{"iob_soc"}, sys.Claimed)
	assert.Equal(t, 4, sys.WordBytes)
	assert.Equal(t, 2, sys.Lanes)
	assert.Equal(t, []*config.Peripheral{{Name: "UART0", Module: "iob_uart"}}, sys.Peripherals)

	require.Len(t, sys.Software, 2)
	fw := sys.Software[0]
	assert.Equal(t, filepath.Join(root, "soc", "sw", "fw"), fw.Dir)
	assert.Equal(t, 15, fw.AddrW)
	assert.True(t, fw.Image)
	assert.Equal(t, []string{"firmware.bin"}, fw.Outputs)

	console := sys.Software[1]
	assert.False(t, console.Image)
	assert.Empty(t, console.Outputs)
	assert.Equal(t, []string{"go", "build", "-o", "console"}, console.Command)
}

func TestLoad_BuildParametersDriveExpressions(t *testing.T) {
	t.Parallel()

	files := map[string]string{
		"soc.hcl": `
module "iob_soc" {
  submodules = concat(["iob_uart"], var.use_ddr ? ["iob_cache"] : [])
}

system "iob_soc" {
  template = "core.v"
  software "firmware" {
    dir    = "fw"
    addr_w = var.use_ddr ? var.ddr_addr_w : 15
  }
}
`,
	}
	build := config.DefaultBuild()
	build.UseDDR = true
	build.DDRAddrW = 28

	model, _, err := load(t, build, files, "soc.hcl")
	require.NoError(t, err)
	assert.Equal(t, []string{"iob_uart", "iob_cache"}, model.Modules[0].Submodules)
	assert.Equal(t, 28, model.System.Software[0].AddrW)
}

func TestLoad_MissingPathsAreSkipped(t *testing.T) {
	t.Parallel()

	files := map[string]string{"soc.hcl": `system "s" { template = "core.v" }`}
	model, _, err := load(t, config.DefaultBuild(), files, "soc.hcl", "does-not-exist")
	require.NoError(t, err)
	assert.Equal(t, "s", model.System.Name)
	assert.Equal(t, []string{"s"}, model.System.Claimed)
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		files map[string]string
		want  string
	}{
		{
			name:  "syntax error",
			files: map[string]string{"a.hcl": "module \"x\" {\n"},
			want:  "a.hcl",
		},
		{
			name:  "unknown attribute",
			files: map[string]string{"a.hcl": "module \"x\" {\n  colour = \"red\"\n}\n"},
			want:  "colour",
		},
		{
			name:  "no system",
			files: map[string]string{"a.hcl": "module \"x\" {}\n"},
			want:  "no system block",
		},
		{
			name: "two systems",
			files: map[string]string{
				"a.hcl": `system "a" { template = "a.v" }`,
				"b.hcl": `system "b" { template = "b.v" }`,
			},
			want: "already declared",
		},
		{
			name:  "image without address width",
			files: map[string]string{"a.hcl": "system \"a\" {\n  template = \"a.v\"\n  software \"fw\" { dir = \"fw\" }\n}\n"},
			want:  "declares no addr_w",
		},
		{
			name:  "bad word width",
			files: map[string]string{"a.hcl": "system \"a\" {\n  template = \"a.v\"\n  word_bytes = 9\n}\n"},
			want:  "word_bytes must be in 1..8",
		},
		{
			name: "duplicate peripheral",
			files: map[string]string{"a.hcl": `
system "a" {
  template = "a.v"
  peripheral "U" { module = "m" }
  peripheral "U" { module = "m" }
}
`},
			want: `peripheral "U" declared twice`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, _, err := load(t, config.DefaultBuild(), tt.files, ".")
			require.Error(t, err)
			assert.ErrorIs(t, err, builderr.ErrMalformedDeclaration)
			assert.ErrorIs(t, err, builderr.ErrConfiguration)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

// Not parallel: the test changes the working directory.
func TestLoad_RelativePathsBecomeAbsolute(t *testing.T) {
	// --- Arrange ---
	root := testutil.WriteTree(t, t.TempDir(), map[string]string{
		"soc/soc.hcl": `
system "iob_soc" {
  template = "core.v"
  software "firmware" {
    dir    = "sw/fw"
    addr_w = 4
  }
}
`,
		"soc/sw/fw/Makefile": "all:\n",
	})
	t.Chdir(root)

	// --- Act ---
	model, err := NewLoader().Load(context.Background(), config.DefaultBuild(), "soc")

	// --- Assert ---
	require.NoError(t, err)
	fw := model.System.Software[0]
	assert.True(t, filepath.IsAbs(fw.Dir), "dir %q", fw.Dir)
	assert.True(t, strings.HasSuffix(fw.Dir, filepath.Join("soc", "sw", "fw")), "dir %q", fw.Dir)
	assert.FileExists(t, filepath.Join(fw.Dir, "Makefile"))
	assert.True(t, filepath.IsAbs(model.System.Template))
	assert.True(t, filepath.IsAbs(model.System.OutputDir))
}
