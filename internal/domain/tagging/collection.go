package tagging

import (
	"fmt"

	"github.com/okian/pitchtag/internal/domain/model"
)

// Patch overwrites the non-nil metadata fields of a tag.
type Patch struct {
	Action     *string `json:"action,omitempty"`
	Team       *string `json:"team,omitempty"`
	PlayerName *string `json:"playerName,omitempty"`
	Player     *string `json:"player,omitempty"`
	Position   *string `json:"position,omitempty"`
	Pressure   *string `json:"pressure,omitempty"`
	Foot       *string `json:"foot,omitempty"`
	Minute     *int    `json:"minute,omitempty"`
	Type       *string `json:"type,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.Action == nil && p.Team == nil && p.PlayerName == nil && p.Player == nil &&
		p.Position == nil && p.Pressure == nil && p.Foot == nil && p.Minute == nil && p.Type == nil
}

func (p Patch) apply(t *model.Tag) {
	setString(&t.Action, p.Action)
	setString(&t.Team, p.Team)
	setString(&t.PlayerName, p.PlayerName)
	setString(&t.Player, p.Player)
	setString(&t.Position, p.Position)
	setString(&t.Pressure, p.Pressure)
	setString(&t.Foot, p.Foot)
	setString(&t.Type, p.Type)
	if p.Minute != nil {
		t.Minute = *p.Minute
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

// Collection is the ordered tag log of one session.
type Collection struct {
	tags []model.Tag
}

// Append adds a tag at the end.
func (c *Collection) Append(t model.Tag) {
	c.tags = append(c.tags, t.Clone())
}

// Undo removes the last tag.
func (c *Collection) Undo() (model.Tag, bool) {
	if len(c.tags) == 0 {
		return model.Tag{}, false
	}
	last := c.tags[len(c.tags)-1]
	c.tags = c.tags[:len(c.tags)-1]
	return last, true
}

// Delete removes the tag at index i.
func (c *Collection) Delete(i int) (model.Tag, error) {
	if err := c.check(i); err != nil {
		return model.Tag{}, err
	}
	removed := c.tags[i]
	c.tags = append(c.tags[:i], c.tags[i+1:]...)
	return removed, nil
}

// Clear removes every tag and returns how many were removed.
func (c *Collection) Clear() int {
	n := len(c.tags)
	c.tags = nil
	return n
}

// Edit overwrites fields of the tag at index i and returns the result. The
// stored tag is left untouched when the patched copy is malformed.
func (c *Collection) Edit(i int, p Patch) (model.Tag, error) {
	if err := c.check(i); err != nil {
		return model.Tag{}, err
	}
	edited := c.tags[i].Clone()
	p.apply(&edited)
	if err := edited.Validate(); err != nil {
		return model.Tag{}, err
	}
	c.tags[i] = edited
	return edited.Clone(), nil
}

// Get returns a copy of the tag at index i.
func (c *Collection) Get(i int) (model.Tag, error) {
	if err := c.check(i); err != nil {
		return model.Tag{}, err
	}
	return c.tags[i].Clone(), nil
}

// All returns a snapshot of the collection.
func (c *Collection) All() []model.Tag {
	out := make([]model.Tag, len(c.tags))
	for i := range c.tags {
		out[i] = c.tags[i].Clone()
	}
	return out
}

// Len returns the number of tags.
func (c *Collection) Len() int { return len(c.tags) }

func (c *Collection) check(i int) error {
	if i < 0 || i >= len(c.tags) {
		return fmt.Errorf("%w: %d (have %d)", ErrIndexOutOfRange, i, len(c.tags))
	}
	return nil
}
