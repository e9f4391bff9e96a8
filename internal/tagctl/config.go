package tagctl

import (
	"github.com/okian/pitchtag/internal/domain/aggregate"
	"github.com/okian/pitchtag/internal/domain/ingest"
	"github.com/okian/pitchtag/internal/domain/model"
)

// Config holds the options of one tagctl run.
type Config struct {
	Sport   string // Sport whose template the tags are converted into
	In      string // Input file, "-" for stdin
	Out     string // Output file, "-" for stdout
	LogFile string // Log file, empty for stderr only
	Verbose bool   // Log every rejected and clamped entry
}

// Output is the document written to Config.Out.
type Output struct {
	Sport       string             `json:"sport"`
	Tags        []model.Tag        `json:"tags"`
	Rejected    []ingest.Rejection `json:"rejected,omitempty"`
	Duplicates  int                `json:"duplicates"`
	Clamped     int                `json:"clamped"`
	Passthrough int                `json:"passthrough"`
	Summary     aggregate.Summary  `json:"summary"`
	Rows        []aggregate.Row    `json:"rows"`
}
