// Package pitch holds the physical dimensions of each sport's playing surface.
package pitch

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/okian/pitchtag/internal/domain/model"
)

// Built-in sport keys.
const (
	Soccer     = "soccer"
	GAA        = "gaa"
	Basketball = "basketball"
	Gridiron   = "gridiron"
)

// Goals holds the target positions at each end of the surface.
type Goals struct {
	Left  model.Point `json:"left" koanf:"left"`
	Right model.Point `json:"right" koanf:"right"`
}

// Template describes one sport's playing surface in meters.
type Template struct {
	Sport        string  `json:"sport"`
	WidthMeters  float64 `json:"widthMeters"`
	HeightMeters float64 `json:"heightMeters"`
	Goals        Goals   `json:"goalPositions"`
}

// Validate checks that dimensions are positive and goals lie on the surface.
func (t Template) Validate() error {
	if strings.TrimSpace(t.Sport) == "" {
		return fmt.Errorf("%w: missing sport", ErrInvalidTemplate)
	}
	if !(t.WidthMeters > 0) || !(t.HeightMeters > 0) {
		return fmt.Errorf("%w: %s dimensions must be positive", ErrInvalidTemplate, t.Sport)
	}
	for _, g := range []model.Point{t.Goals.Left, t.Goals.Right} {
		if g.X < 0 || g.X > t.WidthMeters || g.Y < 0 || g.Y > t.HeightMeters {
			return fmt.Errorf("%w: %s goal (%g,%g) is off the surface", ErrInvalidTemplate, t.Sport, g.X, g.Y)
		}
	}
	return nil
}

// Defaults returns the built-in templates.
func Defaults() []Template {
	return []Template{
		{Sport: Soccer, WidthMeters: 105, HeightMeters: 68, Goals: Goals{Left: model.Point{X: 0, Y: 34}, Right: model.Point{X: 105, Y: 34}}},
		{Sport: GAA, WidthMeters: 145, HeightMeters: 88, Goals: Goals{Left: model.Point{X: 0, Y: 44}, Right: model.Point{X: 145, Y: 44}}},
		{Sport: Basketball, WidthMeters: 28, HeightMeters: 15, Goals: Goals{Left: model.Point{X: 1.575, Y: 7.5}, Right: model.Point{X: 26.425, Y: 7.5}}},
		{Sport: Gridiron, WidthMeters: 109.7, HeightMeters: 48.8, Goals: Goals{Left: model.Point{X: 0, Y: 24.4}, Right: model.Point{X: 109.7, Y: 24.4}}},
	}
}

// Registry maps sport keys to templates. Safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	templates map[string]Template
}

// Option applies a configuration option to the Registry.
type Option func(*Registry) error

// WithTemplates registers extra templates, overriding built-ins with the same key.
func WithTemplates(tpls ...Template) Option {
	return func(r *Registry) error {
		for _, t := range tpls {
			if err := r.put(t); err != nil {
				return err
			}
		}
		return nil
	}
}

// NewRegistry creates a registry seeded with the built-in templates.
func NewRegistry(_ context.Context, opts ...Option) (*Registry, error) {
	r := &Registry{templates: make(map[string]Template)}
	for _, t := range Defaults() {
		r.templates[t.Sport] = t
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) put(t Template) error {
	t.Sport = Key(t.Sport)
	if err := t.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	r.templates[t.Sport] = t
	r.mu.Unlock()
	return nil
}

// Register adds or replaces a template.
func (r *Registry) Register(_ context.Context, t Template) error {
	return r.put(t)
}

// Get returns the template for sport.
func (r *Registry) Get(_ context.Context, sport string) (Template, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.templates[Key(sport)]
	if !ok {
		return Template{}, fmt.Errorf("%w: %q", ErrUnknownSport, sport)
	}
	return t, nil
}

// Sports lists registered sport keys in sorted order.
func (r *Registry) Sports(_ context.Context) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.templates))
	for k := range r.templates {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Key canonicalizes a sport name.
func Key(sport string) string {
	return strings.ToLower(strings.TrimSpace(sport))
}
