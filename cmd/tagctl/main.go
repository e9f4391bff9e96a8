package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/okian/pitchtag/internal/domain/pitch"
	"github.com/okian/pitchtag/internal/tagctl"
)

func main() {
	var (
		sport   = flag.String("sport", pitch.Soccer, "Sport template to convert into")
		in      = flag.String("in", "", "Input JSON file, - for stdin")
		out     = flag.String("out", "-", "Output JSON file, - for stdout")
		logFile = flag.String("log", "", "Also write logs to this file")
		verbose = flag.Bool("verbose", false, "Log every rejected and clamped entry")
		help    = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		tagctl.ShowHelp(os.Stdout)
		return
	}

	closeLog, err := tagctl.SetupLogging(*logFile, *verbose)
	if err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := &tagctl.Config{
		Sport:   *sport,
		In:      *in,
		Out:     *out,
		LogFile: *logFile,
		Verbose: *verbose,
	}

	// The summary shares stdout only when the JSON goes to a file.
	summary := os.Stdout
	if cfg.Out == "-" {
		summary = os.Stderr
	}
	if _, err := tagctl.Run(ctx, cfg, os.Stdin, os.Stdout, summary); err != nil {
		os.Stderr.WriteString("tagctl failed: " + err.Error() + "\n")
		closeLog()
		os.Exit(1) //nolint:gocritic // log file closed above
	}
}
