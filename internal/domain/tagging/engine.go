package tagging

import (
	"fmt"
	"strings"

	"github.com/okian/pitchtag/internal/domain/actions"
	"github.com/okian/pitchtag/internal/domain/aggregate"
	"github.com/okian/pitchtag/internal/domain/classify"
	"github.com/okian/pitchtag/internal/domain/enrich"
	"github.com/okian/pitchtag/internal/domain/geometry"
	"github.com/okian/pitchtag/internal/domain/model"
	"github.com/okian/pitchtag/internal/domain/pitch"
)

// Engine is one tagging session: a machine, its action vocabulary and the
// tag collection, parameterized by a pitch template. It is not safe for
// concurrent use.
type Engine struct {
	tpl      pitch.Template
	catalog  *actions.Catalog
	machine  *Machine
	tags     *Collection
	enricher *enrich.Enricher
}

type engineConfig struct {
	defs       []model.ActionDefinition
	defsSet    bool
	classifier *classify.Classifier
	machine    []MachineOption
}

// EngineOption applies a configuration option to the Engine.
type EngineOption func(*engineConfig)

// WithActions seeds the vocabulary instead of the sport defaults.
func WithActions(defs ...model.ActionDefinition) EngineOption {
	return func(c *engineConfig) {
		c.defs = defs
		c.defsSet = true
	}
}

// WithClassifier sets the classifier used for enrichment.
func WithClassifier(cl *classify.Classifier) EngineOption {
	return func(c *engineConfig) {
		if cl != nil {
			c.classifier = cl
		}
	}
}

// WithMachineOptions passes options through to the Machine.
func WithMachineOptions(opts ...MachineOption) EngineOption {
	return func(c *engineConfig) {
		c.machine = append(c.machine, opts...)
	}
}

// NewEngine creates an engine for tpl rendered on canvas.
func NewEngine(tpl pitch.Template, canvas geometry.Canvas, opts ...EngineOption) (*Engine, error) {
	cfg := &engineConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	if !cfg.defsSet {
		cfg.defs = actions.Defaults(tpl.Sport)
	}
	m, err := NewMachine(tpl, canvas, cfg.machine...)
	if err != nil {
		return nil, err
	}
	return &Engine{
		tpl:      tpl,
		catalog:  actions.NewCatalog(cfg.defs...),
		machine:  m,
		tags:     &Collection{},
		enricher: enrich.New(tpl, cfg.classifier),
	}, nil
}

// Arm selects the action with value from the vocabulary.
func (e *Engine) Arm(value string) (Outcome, error) {
	def, ok := e.catalog.Lookup(value)
	if !ok {
		return Outcome{State: e.machine.State()}, fmt.Errorf("%w: %q", ErrUnknownAction, value)
	}
	if e.capturingLine() {
		return e.machine.SwitchAction(def), nil
	}
	return e.machine.Arm(def), nil
}

// Disarm clears the active action.
func (e *Engine) Disarm() Outcome { return e.machine.Disarm() }

// Click feeds a canvas pixel coordinate.
func (e *Engine) Click(raw model.Point) Outcome { return e.machine.Click(raw) }

// Submit completes the pending capture and stores the tag.
func (e *Engine) Submit(meta model.Metadata) Outcome {
	out := e.machine.Submit(meta)
	if out.Tag != nil {
		e.tags.Append(*out.Tag)
	}
	return out
}

// Cancel discards captured points.
func (e *Engine) Cancel() Outcome { return e.machine.Cancel() }

// Resize updates the canvas size for subsequent clicks.
func (e *Engine) Resize(c geometry.Canvas) error { return e.machine.Resize(c) }

// Append stores an externally produced tag that is already in meters. When
// the action is in the vocabulary its interaction type must match.
func (e *Engine) Append(t model.Tag) error {
	if def, ok := e.catalog.Lookup(t.Action); ok {
		if err := t.ValidateFor(def.Interaction); err != nil {
			return err
		}
	} else if err := t.Validate(); err != nil {
		return err
	}
	e.tags.Append(t)
	return nil
}

// Undo removes the last tag.
func (e *Engine) Undo() (model.Tag, bool) { return e.tags.Undo() }

// Delete removes the tag at index i.
func (e *Engine) Delete(i int) (model.Tag, error) { return e.tags.Delete(i) }

// Clear removes all tags.
func (e *Engine) Clear() int { return e.tags.Clear() }

// Edit overwrites fields of the tag at index i. A new action must be a
// non-empty vocabulary value with the tag's interaction type.
func (e *Engine) Edit(i int, p Patch) (model.Tag, error) {
	if p.Action != nil {
		if strings.TrimSpace(*p.Action) == "" {
			return model.Tag{}, fmt.Errorf("%w: missing action", model.ErrMalformedTag)
		}
		def, ok := e.catalog.Lookup(*p.Action)
		if !ok {
			return model.Tag{}, fmt.Errorf("%w: %q", ErrUnknownAction, *p.Action)
		}
		cur, err := e.tags.Get(i)
		if err != nil {
			return model.Tag{}, err
		}
		if got, _ := cur.Interaction(); got != def.Interaction {
			return model.Tag{}, fmt.Errorf("%w: tag is %s, %q is %s", model.ErrInteractionMismatch, got, def.Value, def.Interaction)
		}
	}
	return e.tags.Edit(i, p)
}

// AddAction extends the vocabulary. Duplicate values are ignored.
func (e *Engine) AddAction(def model.ActionDefinition) (bool, error) {
	return e.catalog.Add(def)
}

// RemoveAction removes value from the vocabulary, disarming it if armed.
func (e *Engine) RemoveAction(value string) (bool, Outcome) {
	if !e.catalog.Remove(value) {
		return false, Outcome{State: e.machine.State()}
	}
	if armed, ok := e.machine.Armed(); ok && armed.Value == value {
		return true, e.machine.Disarm()
	}
	return true, Outcome{State: e.machine.State()}
}

// Actions lists the vocabulary.
func (e *Engine) Actions() []model.ActionDefinition { return e.catalog.List() }

// Tags returns a snapshot of the collection.
func (e *Engine) Tags() []model.Tag { return e.tags.All() }

// Tag returns the tag at index i.
func (e *Engine) Tag(i int) (model.Tag, error) { return e.tags.Get(i) }

// Len returns the number of stored tags.
func (e *Engine) Len() int { return e.tags.Len() }

// EnrichedTags returns enriched copies and the number of classifier passthroughs.
func (e *Engine) EnrichedTags() ([]model.Tag, int) {
	return e.enricher.EnrichAll(e.tags.All())
}

// Enrich enriches a single tag against this engine's template.
func (e *Engine) Enrich(t model.Tag) model.Tag {
	out, _ := e.enricher.Enrich(t)
	return out
}

// Summary aggregates the collection.
func (e *Engine) Summary() aggregate.Summary {
	return aggregate.Aggregate(e.tags.tags)
}

// Snapshot describes the interaction state for display.
type Snapshot struct {
	State   State                   `json:"state"`
	Armed   *model.ActionDefinition `json:"armed,omitempty"`
	Capture Capture                 `json:"capture"`
	Canvas  geometry.Canvas         `json:"canvas"`
	Tags    int                     `json:"tagCount"`
}

// Snapshot returns the current interaction state.
func (e *Engine) Snapshot() Snapshot {
	s := Snapshot{
		State:   e.machine.State(),
		Capture: e.machine.Capture(),
		Canvas:  e.machine.Canvas(),
		Tags:    e.tags.Len(),
	}
	if def, ok := e.machine.Armed(); ok {
		s.Armed = &def
	}
	return s
}

// Template returns the pitch template.
func (e *Engine) Template() pitch.Template { return e.tpl }

func (e *Engine) capturingLine() bool {
	return e.machine.State() == ArmedLineAwaitingSecondPoint
}
