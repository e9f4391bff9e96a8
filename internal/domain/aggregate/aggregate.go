// Package aggregate tallies tags per team and action for summary display.
package aggregate

import (
	"sort"

	"github.com/okian/pitchtag/internal/domain/model"
)

// Summary maps team -> action -> count.
type Summary map[string]map[string]int

// Row is one flattened summary cell.
type Row struct {
	Team   string `json:"team"`
	Action string `json:"action"`
	Count  int    `json:"count"`
}

// Aggregate counts tags in a single pass.
func Aggregate(tags []model.Tag) Summary {
	s := make(Summary)
	for i := range tags {
		byAction, ok := s[tags[i].Team]
		if !ok {
			byAction = make(map[string]int)
			s[tags[i].Team] = byAction
		}
		byAction[tags[i].Action]++
	}
	return s
}

// Total returns the number of tags counted.
func (s Summary) Total() int {
	n := 0
	for _, byAction := range s {
		for _, c := range byAction {
			n += c
		}
	}
	return n
}

// Rows flattens the summary sorted by team then action.
func (s Summary) Rows() []Row {
	rows := make([]Row, 0, len(s))
	for team, byAction := range s {
		for action, c := range byAction {
			rows = append(rows, Row{Team: team, Action: action, Count: c})
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Team != rows[j].Team {
			return rows[i].Team < rows[j].Team
		}
		return rows[i].Action < rows[j].Action
	})
	return rows
}
