// Package tagging turns pointer clicks into tag records.
//
// The Machine is synchronous and deterministic: every public method feeds
// one input into reduce and returns the resulting Outcome. Expected
// conditions (clicking with nothing armed, submitting with nothing
// captured) are reported as advisories, never as errors.
package tagging

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/okian/pitchtag/internal/domain/geometry"
	"github.com/okian/pitchtag/internal/domain/model"
	"github.com/okian/pitchtag/internal/domain/pitch"
)

// State of the interaction machine.
type State int

const (
	Idle State = iota
	ArmedMarker
	ArmedLineAwaitingFirstPoint
	ArmedLineAwaitingSecondPoint
	DetailPending
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case ArmedMarker:
		return "armed_marker"
	case ArmedLineAwaitingFirstPoint:
		return "armed_line_awaiting_first_point"
	case ArmedLineAwaitingSecondPoint:
		return "armed_line_awaiting_second_point"
	case DetailPending:
		return "detail_pending"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// MarshalText renders the state name in JSON.
func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Advisory is a non-fatal notice for the host UI.
type Advisory string

const (
	AdvisoryNone            Advisory = ""
	AdvisoryNoActionArmed   Advisory = "no_action_armed"
	AdvisoryDetailPending   Advisory = "detail_pending"
	AdvisoryNothingToSubmit Advisory = "nothing_to_submit"
	AdvisoryNothingToCancel Advisory = "nothing_to_cancel"
	AdvisoryInvalidPoint    Advisory = "invalid_point"
	AdvisoryInvalidAction   Advisory = "invalid_action"
)

// Outcome is the result of one input.
type Outcome struct {
	State    State      `json:"state"`
	Advisory Advisory   `json:"advisory,omitempty"`
	Clamped  bool       `json:"clamped,omitempty"`
	Tag      *model.Tag `json:"tag,omitempty"`
}

// Capture is the in-progress point data.
type Capture struct {
	Action string       `json:"action,omitempty"`
	Point  *model.Point `json:"point,omitempty"`
	From   *model.Point `json:"from,omitempty"`
	To     *model.Point `json:"to,omitempty"`
}

type inputKind int

const (
	inputArm inputKind = iota
	inputSwitch
	inputDisarm
	inputClick
	inputSubmit
	inputCancel
)

type input struct {
	kind  inputKind
	def   model.ActionDefinition
	point model.Point
	meta  model.Metadata
}

// Machine is the interaction state machine for one pitch and canvas.
type Machine struct {
	tpl    pitch.Template
	canvas geometry.Canvas
	newID  func() string

	state State
	armed *model.ActionDefinition
	// captured is the action the pending points belong to; it survives a
	// disarm while detail is pending.
	captured *model.ActionDefinition
	point    *model.Point
	from     *model.Point
	to       *model.Point
}

// MachineOption applies a configuration option to the Machine.
type MachineOption func(*Machine)

// WithIDGenerator sets the tag ID source.
func WithIDGenerator(fn func() string) MachineOption {
	return func(m *Machine) {
		if fn != nil {
			m.newID = fn
		}
	}
}

// NewMachine creates an idle machine.
func NewMachine(tpl pitch.Template, canvas geometry.Canvas, opts ...MachineOption) (*Machine, error) {
	if err := tpl.Validate(); err != nil {
		return nil, err
	}
	if !canvas.Valid() {
		return nil, fmt.Errorf("%w: %gx%g", geometry.ErrInvalidCanvas, canvas.Width, canvas.Height)
	}
	m := &Machine{tpl: tpl, canvas: canvas, newID: uuid.NewString}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Arm selects def as the active action and discards captured points.
func (m *Machine) Arm(def model.ActionDefinition) Outcome {
	return m.reduce(input{kind: inputArm, def: def})
}

// SwitchAction arms def, discarding any half-captured line.
func (m *Machine) SwitchAction(def model.ActionDefinition) Outcome {
	return m.reduce(input{kind: inputSwitch, def: def})
}

// Disarm clears the active action. Pending detail is kept so it can still
// be submitted.
func (m *Machine) Disarm() Outcome {
	return m.reduce(input{kind: inputDisarm})
}

// Click feeds a canvas pixel coordinate.
func (m *Machine) Click(raw model.Point) Outcome {
	return m.reduce(input{kind: inputClick, point: raw})
}

// Submit completes the pending capture with meta and emits a tag.
func (m *Machine) Submit(meta model.Metadata) Outcome {
	return m.reduce(input{kind: inputSubmit, meta: meta})
}

// Cancel discards captured points.
func (m *Machine) Cancel() Outcome {
	return m.reduce(input{kind: inputCancel})
}

// Resize updates the canvas used for subsequent clicks.
func (m *Machine) Resize(canvas geometry.Canvas) error {
	if !canvas.Valid() {
		return fmt.Errorf("%w: %gx%g", geometry.ErrInvalidCanvas, canvas.Width, canvas.Height)
	}
	m.canvas = canvas
	return nil
}

// State returns the current state.
func (m *Machine) State() State { return m.state }

// Armed returns the active action, if any.
func (m *Machine) Armed() (model.ActionDefinition, bool) {
	if m.armed == nil {
		return model.ActionDefinition{}, false
	}
	return *m.armed, true
}

// Capture returns a copy of the in-progress points.
func (m *Machine) Capture() Capture {
	var c Capture
	if m.captured != nil {
		c.Action = m.captured.Value
	}
	c.Point, c.From, c.To = copyPoint(m.point), copyPoint(m.from), copyPoint(m.to)
	return c
}

// Canvas returns the current canvas size.
func (m *Machine) Canvas() geometry.Canvas { return m.canvas }

func (m *Machine) reduce(in input) Outcome {
	switch in.kind {
	case inputArm, inputSwitch:
		if !in.def.Interaction.Valid() || in.def.Value == "" {
			return m.advise(AdvisoryInvalidAction)
		}
		def := in.def
		m.armed = &def
		m.discard()
		m.state = m.restState()
		return m.outcome()

	case inputDisarm:
		m.armed = nil
		if m.state != DetailPending {
			m.discard()
			m.state = Idle
		}
		return m.outcome()

	case inputClick:
		switch m.state {
		case Idle:
			return m.advise(AdvisoryNoActionArmed)
		case DetailPending:
			return m.advise(AdvisoryDetailPending)
		}
		p, clamped, err := geometry.Normalize(in.point, geometry.SpacePixel, m.tpl, m.canvas)
		if err != nil {
			return m.advise(AdvisoryInvalidPoint)
		}
		switch m.state {
		case ArmedMarker:
			m.captured = m.armed
			m.point = &p
			m.state = DetailPending
		case ArmedLineAwaitingFirstPoint:
			m.captured = m.armed
			m.from = &p
			m.state = ArmedLineAwaitingSecondPoint
		case ArmedLineAwaitingSecondPoint:
			m.to = &p
			m.state = DetailPending
		}
		out := m.outcome()
		out.Clamped = clamped
		return out

	case inputSubmit:
		if m.state != DetailPending {
			return m.advise(AdvisoryNothingToSubmit)
		}
		tag := model.Tag{
			ID:       m.newID(),
			Action:   m.captured.Value,
			Metadata: in.meta,
			Point:    m.point,
			From:     m.from,
			To:       m.to,
		}
		m.discard()
		m.state = m.restState()
		out := m.outcome()
		out.Tag = &tag
		return out

	case inputCancel:
		if m.state != DetailPending && m.state != ArmedLineAwaitingSecondPoint {
			return m.advise(AdvisoryNothingToCancel)
		}
		m.discard()
		m.state = m.restState()
		return m.outcome()
	}
	return m.outcome()
}

// restState is the armed-but-unpointed state for the active action.
func (m *Machine) restState() State {
	if m.armed == nil {
		return Idle
	}
	if m.armed.Interaction == model.InteractionLine {
		return ArmedLineAwaitingFirstPoint
	}
	return ArmedMarker
}

func (m *Machine) discard() {
	m.captured, m.point, m.from, m.to = nil, nil, nil, nil
}

func (m *Machine) outcome() Outcome {
	return Outcome{State: m.state}
}

func (m *Machine) advise(a Advisory) Outcome {
	return Outcome{State: m.state, Advisory: a}
}

func copyPoint(p *model.Point) *model.Point {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}
