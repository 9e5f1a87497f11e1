package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"strings"

	"github.com/specialistvlad/socgrid/internal/app"
	"github.com/specialistvlad/socgrid/internal/config"
	"github.com/specialistvlad/socgrid/internal/orchestrator"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("socgrid", flag.ContinueOnError)
	flagSet.SetOutput(output)

	// Custom usage/help text function
	flagSet.Usage = func() {
		fmt.Fprintf(output, `
SocGrid - Assembles a system-on-chip from declarative module manifests.

Usage:
  socgrid [options] [SYSTEM_PATH] [TARGET...]

Arguments:
  SYSTEM_PATH
    Path to the system .hcl file or a directory containing it.
  TARGET
    One or more of: %s. Defaults to %q.

Options:
`, strings.Join(orchestrator.Targets(), ", "), orchestrator.DefaultTarget)
		flagSet.PrintDefaults()
	}

	defaults := config.DefaultBuild()
	systemFlag := flagSet.String("system", "", "Path to the system file or directory.")
	sFlag := flagSet.String("s", "", "Path to the system file or directory (shorthand).")
	modulesPathFlag := flagSet.String("modules-path", "modules", "Path to the directory containing module manifests.")
	targetFlag := flagSet.String("target", "", "Comma-separated list of targets to build.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	workersFlag := flagSet.Int("workers", runtime.NumCPU(), "Number of concurrent workers for the task executor.")
	jobsFlag := flagSet.Int("jobs", 2, "Maximum number of delegated software builds running at once.")
	freqFlag := flagSet.Int("freq", defaults.Freq, "System clock frequency in Hz.")
	baudFlag := flagSet.Int("baud", defaults.Baud, "UART baud rate.")
	useDDRFlag := flagSet.Bool("use-ddr", defaults.UseDDR, "Run firmware from external DDR memory.")
	ddrAddrWFlag := flagSet.Int("ddr-addr-w", defaults.DDRAddrW, "Address width of the external DDR memory.")
	notifyURLFlag := flagSet.String("notify-url", "", "socket.io endpoint that receives build progress events. Empty is disabled.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	positional := flagSet.Args()
	path := ""
	if *systemFlag != "" {
		path = *systemFlag
	} else if *sFlag != "" {
		path = *sFlag
	} else if len(positional) > 0 {
		path = positional[0]
		positional = positional[1:]
	}
	slog.Debug("System path determined.", "path", path)

	if path == "" {
		slog.Debug("No system path provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	targets := positional
	if *targetFlag != "" {
		for _, t := range strings.Split(*targetFlag, ",") {
			if t = strings.TrimSpace(t); t != "" {
				targets = append(targets, t)
			}
		}
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}
	slog.Debug("CLI parameter validation complete.")

	cfg, err := app.NewConfig(app.Config{
		SystemPath:  path,
		ModulesPath: *modulesPathFlag,
		Targets:     targets,
		LogFormat:   logFormat,
		LogLevel:    logLevel,
		WorkerCount: *workersFlag,
		Jobs:        *jobsFlag,
		NotifyURL:   *notifyURLFlag,
		Build: config.Build{
			Freq:     *freqFlag,
			Baud:     *baudFlag,
			UseDDR:   *useDDRFlag,
			DDRAddrW: *ddrAddrWFlag,
		},
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", cfg)
	return cfg, false, nil
}
