// Package classify buckets free-text action labels into render categories
// using an ordered rule table. The first matching rule wins.
package classify

import (
	"sort"
	"strings"
)

// Categories produced by the default rules. Score labels map to themselves.
const (
	CategorySetplayScore = "setplay-score"
	CategorySetplayMiss  = "setplay-miss"
	CategoryBlocked      = "blocked"
	CategoryMiss         = "miss"
)

// Rule names of the default table, in evaluation order.
const (
	RuleScore        = "score"
	RuleSetplayScore = "setplay-score"
	RuleSetplayMiss  = "setplay-miss"
	RuleBlocked      = "blocked"
	RuleMiss         = "miss"
)

// Rule pairs a predicate with the category it assigns. Both receive the
// normalized label.
type Rule struct {
	Name     string
	Match    func(label string) bool
	Category func(label string) string
}

// Result explains a classification.
type Result struct {
	Category    string `json:"category"`
	Rule        string `json:"rule,omitempty"`
	Passthrough bool   `json:"passthrough"`
}

var (
	scoreLabels      = set("goal", "point", "penalty goal", "penalty point", "two pointer")
	setPieceLabels   = set("free", "fortyfive", "45", "offensive mark", "mark", "sideline", "penalty")
	missQualifiers   = []string{"miss", "wide", "short"}
	setPieceFamilies = longestFirst(keys(setPieceLabels))
)

// DefaultRules returns the built-in rule table.
func DefaultRules() []Rule {
	return []Rule{
		{Name: RuleScore, Match: in(scoreLabels), Category: identity},
		{Name: RuleSetplayScore, Match: in(setPieceLabels), Category: constant(CategorySetplayScore)},
		{
			Name: RuleSetplayMiss,
			Match: func(l string) bool {
				return setPieceFamily(l) != "" && containsAny(l, missQualifiers)
			},
			Category: constant(CategorySetplayMiss),
		},
		{Name: RuleBlocked, Match: func(l string) bool { return strings.Contains(l, "block") }, Category: constant(CategoryBlocked)},
		{Name: RuleMiss, Match: func(l string) bool { return containsAny(l, missQualifiers) }, Category: constant(CategoryMiss)},
	}
}

// Classifier evaluates a rule table.
type Classifier struct {
	rules []Rule
}

// Option applies a configuration option to the Classifier.
type Option func(*Classifier)

// WithRules replaces the rule table.
func WithRules(rules ...Rule) Option {
	return func(c *Classifier) {
		c.rules = append([]Rule(nil), rules...)
	}
}

// New creates a classifier with the default rules unless overridden.
func New(opts ...Option) *Classifier {
	c := &Classifier{rules: DefaultRules()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Explain classifies raw and reports which rule fired.
func (c *Classifier) Explain(raw string) Result {
	label := Normalize(raw)
	for _, r := range c.rules {
		if r.Match(label) {
			return Result{Category: r.Category(label), Rule: r.Name}
		}
	}
	return Result{Category: label, Passthrough: true}
}

// Classify returns the category for raw. Unknown labels pass through normalized.
func (c *Classifier) Classify(raw string) string {
	return c.Explain(raw).Category
}

// Rules returns rule names in evaluation order.
func (c *Classifier) Rules() []string {
	out := make([]string, len(c.rules))
	for i, r := range c.rules {
		out[i] = r.Name
	}
	return out
}

// Normalize lower-cases raw, trims it and collapses inner whitespace.
func Normalize(raw string) string {
	return strings.Join(strings.Fields(strings.ToLower(raw)), " ")
}

// setPieceFamily returns the longest set-piece term that label starts with
// as a whole word, or "".
func setPieceFamily(label string) string {
	for _, term := range setPieceFamilies {
		if label == term || strings.HasPrefix(label, term+" ") {
			return term
		}
	}
	return ""
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func in(m map[string]struct{}) func(string) bool {
	return func(l string) bool {
		_, ok := m[l]
		return ok
	}
}

func identity(l string) string { return l }

func constant(c string) func(string) string {
	return func(string) string { return c }
}

func set(items ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(items))
	for _, it := range items {
		m[it] = struct{}{}
	}
	return m
}

func keys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func longestFirst(terms []string) []string {
	sort.Slice(terms, func(i, j int) bool {
		if len(terms[i]) != len(terms[j]) {
			return len(terms[i]) > len(terms[j])
		}
		return terms[i] < terms[j]
	})
	return terms
}
