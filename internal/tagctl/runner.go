// Package tagctl converts files of externally produced tags offline. It
// runs the same ingestion, enrichment and aggregation as the service but
// without sessions or publishing.
package tagctl

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/okian/pitchtag/internal/domain/aggregate"
	"github.com/okian/pitchtag/internal/domain/classify"
	"github.com/okian/pitchtag/internal/domain/dedupe"
	"github.com/okian/pitchtag/internal/domain/enrich"
	"github.com/okian/pitchtag/internal/domain/ingest"
	"github.com/okian/pitchtag/internal/domain/pitch"
	"github.com/okian/pitchtag/pkg/logger"
)

const (
	directoryPermission = 0750
	stdio               = "-"
	// dedupeScope namespaces keys of a single file run.
	dedupeScope = "file"
)

// Run converts cfg.In, writes the Output document to cfg.Out and prints
// the summary table to summary. stdin and stdout back the "-" paths.
func Run(ctx context.Context, cfg *Config, stdin io.Reader, stdout, summary io.Writer) (*Output, error) {
	log := logger.Named("tagctl")
	if cfg.In == "" {
		return nil, ErrNoInput
	}
	if cfg.Out == "" {
		return nil, ErrNoOutput
	}

	registry, err := pitch.NewRegistry(ctx)
	if err != nil {
		return nil, err
	}
	tpl, err := registry.Get(ctx, cfg.Sport)
	if err != nil {
		return nil, err
	}

	raws, err := readInput(cfg.In, stdin)
	if err != nil {
		return nil, err
	}
	log.Info(ctx, "converting tags",
		logger.String("sport", tpl.Sport),
		logger.String("in", cfg.In),
		logger.Int("entries", len(raws)))

	out := convert(ctx, log, cfg, tpl, raws)

	if err := writeOutput(cfg.Out, stdout, out); err != nil {
		return nil, err
	}
	if summary != nil {
		if err := PrintSummary(summary, out); err != nil {
			return nil, err
		}
	}

	log.Info(ctx, "conversion finished",
		logger.Int("tags", len(out.Tags)),
		logger.Int("rejected", len(out.Rejected)),
		logger.Int("duplicates", out.Duplicates),
		logger.Int("clamped", out.Clamped),
		logger.Int("passthrough", out.Passthrough))
	return out, nil
}

func convert(ctx context.Context, log logger.Logger, cfg *Config, tpl pitch.Template, raws []ingest.RawTag) *Output {
	in := ingest.New(tpl)
	seen := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(0))
	out := &Output{Sport: tpl.Sport}

	for i, raw := range raws {
		var key string
		if raw.ID != "" {
			key = dedupe.Key(dedupeScope, raw.ID)
			if seen.SeenAndRecord(ctx, key) {
				out.Duplicates++
				if cfg.Verbose {
					log.Debug(ctx, "duplicate entry", logger.Int("index", i), logger.String("id", raw.ID))
				}
				continue
			}
		}

		tag, clamped, err := in.Convert(raw)
		if err != nil {
			if key != "" {
				seen.Unrecord(ctx, key)
			}
			out.Rejected = append(out.Rejected, ingest.Rejection{Index: i, ID: raw.ID, Reason: err.Error()})
			if cfg.Verbose {
				log.Warn(ctx, "rejected entry", logger.Int("index", i), logger.Error(err))
			}
			continue
		}
		if clamped {
			out.Clamped++
			if cfg.Verbose {
				log.Debug(ctx, "clamped entry", logger.Int("index", i), logger.String("id", tag.ID))
			}
		}
		out.Tags = append(out.Tags, tag)
	}

	out.Tags, out.Passthrough = enrich.New(tpl, classify.New()).EnrichAll(out.Tags)
	out.Summary = aggregate.Aggregate(out.Tags)
	out.Rows = out.Summary.Rows()
	return out
}

func readInput(path string, stdin io.Reader) ([]ingest.RawTag, error) {
	if path == stdio {
		return ingest.Decode(stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input: %w", err)
	}
	defer func() { _ = f.Close() }()
	return ingest.Decode(f)
}

func writeOutput(path string, stdout io.Writer, out *Output) error {
	if path == stdio {
		return encode(stdout, out)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	if err := encode(f, out); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func encode(w io.Writer, out *Output) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// PrintSummary writes the team/action counts as an aligned table.
func PrintSummary(w io.Writer, out *Output) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "TEAM\tACTION\tCOUNT")
	for _, r := range out.Rows {
		team := r.Team
		if team == "" {
			team = "-"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%d\n", team, r.Action, r.Count)
	}
	_, _ = fmt.Fprintf(tw, "TOTAL\t\t%d\n", out.Summary.Total())
	return tw.Flush()
}
