package tagctl

import "errors"

var (
	ErrNoInput  = errors.New("no input file")
	ErrNoOutput = errors.New("no output file")
)
