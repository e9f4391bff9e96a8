// Package geometry maps raw coordinates into template meters and derives
// positional features from them.
package geometry

import (
	"fmt"
	"math"

	"github.com/okian/pitchtag/internal/domain/model"
	"github.com/okian/pitchtag/internal/domain/pitch"
)

// Space identifies the coordinate system a raw point is expressed in.
type Space int

const (
	// SpacePixel is canvas-relative pixels.
	SpacePixel Space = iota
	// SpacePercent is 0–100 along each axis, used by externally produced tags.
	SpacePercent
	// SpaceMeters is already in template units; only clamping applies.
	SpaceMeters
)

const percentScale = 100.0

func (s Space) String() string {
	switch s {
	case SpacePixel:
		return "pixel"
	case SpacePercent:
		return "percent"
	case SpaceMeters:
		return "meters"
	default:
		return fmt.Sprintf("space(%d)", int(s))
	}
}

// Canvas is the rendered size of the pitch in pixels.
type Canvas struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Valid reports whether both dimensions are positive and finite.
func (c Canvas) Valid() bool {
	return c.Width > 0 && c.Height > 0 && !math.IsInf(c.Width, 0) && !math.IsInf(c.Height, 0)
}

// Normalize converts raw into template meters, clamped to the surface.
// The bool result reports whether clamping moved the point. The canvas is
// only consulted for SpacePixel.
func Normalize(raw model.Point, space Space, tpl pitch.Template, canvas Canvas) (model.Point, bool, error) {
	if !raw.Finite() {
		return model.Point{}, false, ErrNonFinite
	}
	var p model.Point
	switch space {
	case SpacePixel:
		if !canvas.Valid() {
			return model.Point{}, false, fmt.Errorf("%w: %gx%g", ErrInvalidCanvas, canvas.Width, canvas.Height)
		}
		p = model.Point{
			X: raw.X * tpl.WidthMeters / canvas.Width,
			Y: raw.Y * tpl.HeightMeters / canvas.Height,
		}
	case SpacePercent:
		p = model.Point{
			X: raw.X / percentScale * tpl.WidthMeters,
			Y: raw.Y / percentScale * tpl.HeightMeters,
		}
	case SpaceMeters:
		p = raw
	default:
		return model.Point{}, false, fmt.Errorf("%w: %s", ErrUnknownSpace, space)
	}
	c := Clamp(p, tpl)
	return c, c != p, nil
}

// Clamp limits p to [0,width]x[0,height].
func Clamp(p model.Point, tpl pitch.Template) model.Point {
	return model.Point{
		X: math.Min(math.Max(p.X, 0), tpl.WidthMeters),
		Y: math.Min(math.Max(p.Y, 0), tpl.HeightMeters),
	}
}
