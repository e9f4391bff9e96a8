package geometry

import (
	"math"

	"github.com/okian/pitchtag/internal/domain/model"
	"github.com/okian/pitchtag/internal/domain/pitch"
)

// Side of the halfway line.
const (
	SideLeft  = "Left"
	SideRight = "Right"
)

// Feature is the positional context of a marker point.
type Feature struct {
	Side                 string  `json:"side"`
	DistanceToGoalMeters float64 `json:"distanceToGoalMeters"`
}

// Features derives the side of the pitch and the distance to the goal on
// that side. A point exactly on the halfway line is Left.
func Features(p model.Point, tpl pitch.Template) Feature {
	side, goal := SideLeft, tpl.Goals.Left
	if p.X > tpl.WidthMeters/2 {
		side, goal = SideRight, tpl.Goals.Right
	}
	return Feature{
		Side:                 side,
		DistanceToGoalMeters: math.Hypot(p.X-goal.X, p.Y-goal.Y),
	}
}
