// Package model contains domain models passed between layers.
package model

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// InteractionType tells how many points an action captures.
type InteractionType string

const (
	// InteractionMarker captures a single point, e.g. a shot.
	InteractionMarker InteractionType = "marker"
	// InteractionLine captures a from/to pair over two clicks, e.g. a pass.
	InteractionLine InteractionType = "line"
)

// Valid reports whether t is a known interaction type.
func (t InteractionType) Valid() bool {
	return t == InteractionMarker || t == InteractionLine
}

// Point is a coordinate. Units depend on the stage: canvas pixels, percent
// or template meters.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Finite reports whether both coordinates are real numbers.
func (p Point) Finite() bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) && !math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}

// ActionDefinition is a selectable event type.
type ActionDefinition struct {
	Label       string          `json:"label"`
	Value       string          `json:"value"`
	Color       string          `json:"color"`
	Interaction InteractionType `json:"interactionType"`
}

// Metadata is the detail a user fills in before a tag is submitted.
type Metadata struct {
	Team       string `json:"team"`
	PlayerName string `json:"playerName"`
	Player     string `json:"player"`
	Position   string `json:"position"`
	Pressure   string `json:"pressure"`
	Foot       string `json:"foot"`
	Minute     int    `json:"minute"`
	Type       string `json:"type"`
}

// Enrichment holds fields derived downstream of tag creation.
type Enrichment struct {
	Side                 string   `json:"side,omitempty"`
	DistanceToGoalMeters *float64 `json:"distanceToGoalMeters,omitempty"`
	RenderCategory       string   `json:"renderCategory,omitempty"`
}

// Tag is one recorded event. Exactly one of Point or From/To is set.
type Tag struct {
	ID     string
	Action string
	Metadata

	Point *Point
	From  *Point
	To    *Point

	Enrichment
}

// Interaction derives the interaction type from the populated point branch.
// The second result is false when the tag is malformed.
func (t *Tag) Interaction() (InteractionType, bool) {
	marker := t.Point != nil
	line := t.From != nil || t.To != nil
	switch {
	case marker && !line:
		return InteractionMarker, true
	case line && !marker && t.From != nil && t.To != nil:
		return InteractionLine, true
	default:
		return "", false
	}
}

// Validate checks the point-branch invariant and coordinate sanity.
func (t *Tag) Validate() error {
	it, ok := t.Interaction()
	if !ok {
		return fmt.Errorf("%w: exactly one of (x,y) or (from,to) is required", ErrMalformedTag)
	}
	if t.Action == "" {
		return fmt.Errorf("%w: missing action", ErrMalformedTag)
	}
	switch it {
	case InteractionMarker:
		if !t.Point.Finite() {
			return fmt.Errorf("%w: non-finite point", ErrMalformedTag)
		}
	case InteractionLine:
		if !t.From.Finite() || !t.To.Finite() {
			return fmt.Errorf("%w: non-finite line endpoint", ErrMalformedTag)
		}
	}
	return nil
}

// ValidateFor checks the tag against the interaction type of its action.
func (t *Tag) ValidateFor(want InteractionType) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if got, _ := t.Interaction(); got != want {
		return fmt.Errorf("%w: tag is %s, action is %s", ErrInteractionMismatch, got, want)
	}
	return nil
}

// Clone returns a deep copy.
func (t Tag) Clone() Tag {
	c := t
	c.Point = clonePoint(t.Point)
	c.From = clonePoint(t.From)
	c.To = clonePoint(t.To)
	if t.DistanceToGoalMeters != nil {
		d := *t.DistanceToGoalMeters
		c.DistanceToGoalMeters = &d
	}
	return c
}

func clonePoint(p *Point) *Point {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}

// tagWire is the JSON shape handed to persistence and display collaborators.
type tagWire struct {
	ID         string   `json:"id,omitempty"`
	Action     string   `json:"action"`
	Team       string   `json:"team"`
	PlayerName string   `json:"playerName"`
	Player     string   `json:"player"`
	Position   string   `json:"position"`
	Pressure   string   `json:"pressure"`
	Foot       string   `json:"foot"`
	Minute     int      `json:"minute"`
	Type       string   `json:"type"`
	X          *float64 `json:"x,omitempty"`
	Y          *float64 `json:"y,omitempty"`
	From       *Point   `json:"from,omitempty"`
	To         *Point   `json:"to,omitempty"`
	Enrichment
}

// MarshalJSON flattens the marker point into top-level x/y keys.
func (t Tag) MarshalJSON() ([]byte, error) {
	w := tagWire{
		ID:         t.ID,
		Action:     t.Action,
		Team:       t.Team,
		PlayerName: t.PlayerName,
		Player:     t.Player,
		Position:   t.Position,
		Pressure:   t.Pressure,
		Foot:       t.Foot,
		Minute:     t.Minute,
		Type:       t.Type,
		From:       t.From,
		To:         t.To,
		Enrichment: t.Enrichment,
	}
	if t.Point != nil {
		x, y := t.Point.X, t.Point.Y
		w.X, w.Y = &x, &y
	}
	return json.Marshal(w)
}

// UnmarshalJSON reads the flat wire shape. It does not validate; callers
// ingesting foreign data go through the ingest package.
func (t *Tag) UnmarshalJSON(b []byte) error {
	var w tagWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*t = Tag{
		ID:     w.ID,
		Action: w.Action,
		Metadata: Metadata{
			Team:       w.Team,
			PlayerName: w.PlayerName,
			Player:     w.Player,
			Position:   w.Position,
			Pressure:   w.Pressure,
			Foot:       w.Foot,
			Minute:     w.Minute,
			Type:       w.Type,
		},
		From:       w.From,
		To:         w.To,
		Enrichment: w.Enrichment,
	}
	if w.X != nil && w.Y != nil {
		t.Point = &Point{X: *w.X, Y: *w.Y}
	}
	return nil
}

// TagOp names the collection change a TagRecord describes.
type TagOp string

const (
	OpRecorded TagOp = "recorded"
	OpIngested TagOp = "ingested"
	OpEdited   TagOp = "edited"
)

// TagRecord is what flows to persistence collaborators.
type TagRecord struct {
	SessionID  string    `json:"sessionId"`
	Sport      string    `json:"sport"`
	Op         TagOp     `json:"op"`
	Tag        Tag       `json:"tag"`
	RecordedAt time.Time `json:"recordedAt"`
}
