package ingest

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/okian/pitchtag/internal/domain/geometry"
	"github.com/okian/pitchtag/internal/domain/model"
	"github.com/okian/pitchtag/internal/domain/pitch"
)

// Ingester converts RawTags for one pitch template.
type Ingester struct {
	tpl   pitch.Template
	space geometry.Space
	newID func() string
}

// Option applies a configuration option to the Ingester.
type Option func(*Ingester)

// WithSpace sets the coordinate space of incoming points. Defaults to
// percent. Pixel space has no canvas here and every point is rejected.
func WithSpace(s geometry.Space) Option {
	return func(in *Ingester) {
		in.space = s
	}
}

// WithIDGenerator sets the ID source for tags that arrive without one.
func WithIDGenerator(fn func() string) Option {
	return func(in *Ingester) {
		if fn != nil {
			in.newID = fn
		}
	}
}

// New creates an ingester for tpl.
func New(tpl pitch.Template, opts ...Option) *Ingester {
	in := &Ingester{tpl: tpl, space: geometry.SpacePercent, newID: uuid.NewString}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// Convert validates raw and maps its points into template meters. The bool
// result reports whether any point was clamped.
func (in *Ingester) Convert(raw RawTag) (model.Tag, bool, error) {
	tag := model.Tag{
		ID:     raw.ID,
		Action: raw.Action,
		Metadata: model.Metadata{
			Team:       raw.Team,
			PlayerName: raw.PlayerName,
			Player:     string(raw.Player),
			Position:   string(raw.Position),
			Pressure:   raw.Pressure,
			Foot:       raw.Foot,
			Minute:     int(raw.Minute),
			Type:       raw.Type,
		},
	}
	if tag.Action == "" {
		return model.Tag{}, false, fmt.Errorf("%w: missing action", model.ErrMalformedTag)
	}

	hasXY := raw.X != nil || raw.Y != nil
	hasLine := raw.From != nil || raw.To != nil
	switch {
	case hasXY && hasLine:
		return model.Tag{}, false, fmt.Errorf("%w: both (x,y) and (from,to) present", model.ErrMalformedTag)
	case hasXY:
		if raw.X == nil || raw.Y == nil {
			return model.Tag{}, false, fmt.Errorf("%w: incomplete (x,y)", model.ErrMalformedTag)
		}
	case hasLine:
		if raw.From == nil || raw.To == nil {
			return model.Tag{}, false, fmt.Errorf("%w: incomplete (from,to)", model.ErrMalformedTag)
		}
	default:
		return model.Tag{}, false, fmt.Errorf("%w: no point", model.ErrMalformedTag)
	}

	var clamped bool
	convert := func(p model.Point) (*model.Point, error) {
		out, c, err := geometry.Normalize(p, in.space, in.tpl, geometry.Canvas{})
		if err != nil {
			return nil, fmt.Errorf("%w: %v", model.ErrMalformedTag, err)
		}
		clamped = clamped || c
		return &out, nil
	}

	var err error
	if hasXY {
		if tag.Point, err = convert(model.Point{X: *raw.X, Y: *raw.Y}); err != nil {
			return model.Tag{}, false, err
		}
	} else {
		if tag.From, err = convert(*raw.From); err != nil {
			return model.Tag{}, false, err
		}
		if tag.To, err = convert(*raw.To); err != nil {
			return model.Tag{}, false, err
		}
	}
	if tag.ID == "" {
		tag.ID = in.newID()
	}
	return tag, clamped, nil
}

// Rejection records why one entry of a batch was refused.
type Rejection struct {
	Index  int    `json:"index"`
	ID     string `json:"id,omitempty"`
	Reason string `json:"reason"`
	err    error
}

// Err returns the underlying error.
func (r Rejection) Err() error { return r.err }

// Batch is the result of converting many tags.
type Batch struct {
	Tags     []model.Tag `json:"tags"`
	Rejected []Rejection `json:"rejected,omitempty"`
	Clamped  int         `json:"clamped"`
}

// ConvertAll converts raws in order. Malformed entries are collected in
// Rejected and do not stop the batch.
func (in *Ingester) ConvertAll(raws []RawTag) Batch {
	b := Batch{Tags: make([]model.Tag, 0, len(raws))}
	for i, raw := range raws {
		tag, clamped, err := in.Convert(raw)
		if err != nil {
			b.Rejected = append(b.Rejected, Rejection{Index: i, ID: raw.ID, Reason: err.Error(), err: err})
			continue
		}
		if clamped {
			b.Clamped++
		}
		b.Tags = append(b.Tags, tag)
	}
	return b
}

// Template returns the template points are converted into.
func (in *Ingester) Template() pitch.Template { return in.tpl }
