// Package enrich adds derived analysis fields to tags.
package enrich

import (
	"github.com/okian/pitchtag/internal/domain/classify"
	"github.com/okian/pitchtag/internal/domain/geometry"
	"github.com/okian/pitchtag/internal/domain/model"
	"github.com/okian/pitchtag/internal/domain/pitch"
)

// Enricher computes side, distance-to-goal and render category.
type Enricher struct {
	tpl        pitch.Template
	classifier *classify.Classifier
}

// New creates an enricher for tpl. A nil classifier uses the defaults.
func New(tpl pitch.Template, c *classify.Classifier) *Enricher {
	if c == nil {
		c = classify.New()
	}
	return &Enricher{tpl: tpl, classifier: c}
}

// Enrich returns a copy of tag with enrichment fields set. Side and
// distance are only derived for marker tags. The bool reports whether the
// action label fell through the classifier unmatched.
func (e *Enricher) Enrich(tag model.Tag) (model.Tag, bool) {
	out := tag.Clone()
	out.Enrichment = model.Enrichment{}
	if out.Point != nil {
		f := geometry.Features(*out.Point, e.tpl)
		d := f.DistanceToGoalMeters
		out.Side = f.Side
		out.DistanceToGoalMeters = &d
	}
	r := e.classifier.Explain(out.Action)
	out.RenderCategory = r.Category
	return out, r.Passthrough
}

// EnrichAll enriches tags and counts classifier passthroughs.
func (e *Enricher) EnrichAll(tags []model.Tag) ([]model.Tag, int) {
	out := make([]model.Tag, len(tags))
	passthrough := 0
	for i := range tags {
		var pt bool
		out[i], pt = e.Enrich(tags[i])
		if pt {
			passthrough++
		}
	}
	return out, passthrough
}

// Template returns the template the enricher measures against.
func (e *Enricher) Template() pitch.Template { return e.tpl }
