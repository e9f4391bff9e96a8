package tagctl

import (
	"fmt"
	"io"
	"os"

	"github.com/okian/pitchtag/pkg/logger"
)

const logFilePermission = 0600

// SetupLogging points the global logger at stderr and, when logFile is
// set, at that file too. The returned func closes the file.
func SetupLogging(logFile string, verbose bool) (func(), error) {
	level := "info"
	if verbose {
		level = "debug"
	}

	var w io.Writer = os.Stderr
	closeFn := func() {}
	if logFile != "" {
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		w = io.MultiWriter(os.Stderr, file)
		closeFn = func() { _ = file.Close() }
	}

	if err := logger.InitWithOptions(logger.WithWriter(w), logger.WithLevel(level), logger.WithSource(false)); err != nil {
		closeFn()
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return closeFn, nil
}

// ShowHelp prints usage information.
func ShowHelp(w io.Writer) {
	_, _ = io.WriteString(w, `pitchtag tag converter
======================

Converts externally produced percent-space tags into template meters,
enriches them and prints a team/action summary.

Usage:
  tagctl -sport gaa -in tags.json [options]

Options:
  -sport string
        Sport template to convert into (default "soccer")
  -in string
        Input JSON file: an array of tags or {"tags": [...]}; "-" reads stdin
  -out string
        Output JSON file; "-" writes stdout (default "-")
  -log string
        Also write logs to this file
  -verbose
        Log every rejected and clamped entry
  -help
        Show this help message

Examples:
  tagctl -sport gaa -in match.json -out enriched.json
  cat match.json | tagctl -sport soccer -in - > enriched.json
`)
}
