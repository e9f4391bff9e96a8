package actions

import (
	"github.com/okian/pitchtag/internal/domain/model"
	"github.com/okian/pitchtag/internal/domain/pitch"
)

func marker(label, value, color string) model.ActionDefinition {
	return model.ActionDefinition{Label: label, Value: value, Color: color, Interaction: model.InteractionMarker}
}

func line(label, value, color string) model.ActionDefinition {
	return model.ActionDefinition{Label: label, Value: value, Color: color, Interaction: model.InteractionLine}
}

var defaults = map[string][]model.ActionDefinition{
	pitch.Soccer: {
		marker("Goal", "goal", "#2e7d32"),
		marker("Shot", "shot", "#1565c0"),
		marker("Shot Wide", "shot wide", "#ef6c00"),
		marker("Shot Blocked", "shot blocked", "#6d4c41"),
		marker("Penalty Goal", "penalty goal", "#1b5e20"),
		marker("Free Kick", "free", "#00838f"),
		marker("Tackle", "tackle", "#ad1457"),
		marker("Foul", "foul", "#c62828"),
		marker("Corner Kick", "corner kick", "#5e35b1"),
		line("Pass", "pass", "#0277bd"),
		line("Carry", "carry", "#558b2f"),
		line("Cross", "cross", "#f9a825"),
	},
	pitch.GAA: {
		marker("Goal", "goal", "#2e7d32"),
		marker("Point", "point", "#43a047"),
		marker("Two Pointer", "two pointer", "#66bb6a"),
		marker("Wide", "wide", "#ef6c00"),
		marker("Short", "short", "#ffa726"),
		marker("Blocked", "blocked", "#6d4c41"),
		marker("Free", "free", "#00838f"),
		marker("Free Wide", "free wide", "#f57c00"),
		marker("Free Short", "free short", "#fb8c00"),
		marker("Fortyfive", "fortyfive", "#00695c"),
		marker("Fortyfive Wide", "fortyfive wide", "#e65100"),
		marker("Offensive Mark", "offensive mark", "#283593"),
		marker("Offensive Mark Wide", "offensive mark wide", "#bf360c"),
		marker("Tackle", "tackle", "#ad1457"),
		marker("Turnover", "turnover", "#8e24aa"),
		line("Kickout", "kickout", "#0277bd"),
		line("Hand Pass", "hand pass", "#558b2f"),
		line("Kick Pass", "kick pass", "#f9a825"),
	},
	pitch.Basketball: {
		marker("Two Pointer", "two pointer", "#2e7d32"),
		marker("Three Pointer", "three pointer", "#1b5e20"),
		marker("Missed Shot", "missed shot", "#ef6c00"),
		marker("Blocked Shot", "blocked shot", "#6d4c41"),
		marker("Free Throw", "free throw", "#00838f"),
		marker("Rebound", "rebound", "#5e35b1"),
		marker("Steal", "steal", "#ad1457"),
		marker("Turnover", "turnover", "#8e24aa"),
		line("Pass", "pass", "#0277bd"),
		line("Drive", "drive", "#558b2f"),
	},
	pitch.Gridiron: {
		marker("Touchdown", "touchdown", "#2e7d32"),
		marker("Field Goal", "field goal", "#43a047"),
		marker("Field Goal Wide", "field goal wide", "#ef6c00"),
		marker("Field Goal Short", "field goal short", "#fb8c00"),
		marker("Tackle", "tackle", "#ad1457"),
		marker("Sack", "sack", "#c62828"),
		marker("Interception", "interception", "#5e35b1"),
		marker("Fumble", "fumble", "#8e24aa"),
		line("Pass", "pass", "#0277bd"),
		line("Run", "run", "#558b2f"),
		line("Kick Return", "kick return", "#f9a825"),
	},
}

// Defaults returns a copy of the default vocabulary for sport. Sports
// without a seeded vocabulary get an empty list.
func Defaults(sport string) []model.ActionDefinition {
	src := defaults[pitch.Key(sport)]
	out := make([]model.ActionDefinition, len(src))
	copy(out, src)
	return out
}
