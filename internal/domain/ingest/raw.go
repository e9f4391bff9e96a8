// Package ingest accepts externally produced tags and converts them into
// validated model.Tag values in template meters.
package ingest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/okian/pitchtag/internal/domain/model"
)

// RawTag is the loosely typed shape external producers send. Points are in
// percent space unless the Ingester is configured otherwise.
type RawTag struct {
	ID         string       `json:"id"`
	Action     string       `json:"action"`
	Team       string       `json:"team"`
	PlayerName string       `json:"playerName"`
	Player     Text         `json:"player"`
	Position   Label        `json:"position"`
	Pressure   string       `json:"pressure"`
	Foot       string       `json:"foot"`
	Minute     Number       `json:"minute"`
	Type       string       `json:"type"`
	X          *float64     `json:"x,omitempty"`
	Y          *float64     `json:"y,omitempty"`
	From       *model.Point `json:"from,omitempty"`
	To         *model.Point `json:"to,omitempty"`
}

// Text is a string that may arrive as a JSON string or number.
type Text string

// UnmarshalJSON accepts "10", 10 and null.
func (t *Text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*t = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = Text(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("%w: expected string or number, got %s", ErrFieldType, b)
	}
	*t = Text(n.String())
	return nil
}

// Label is a display string that may arrive as a plain string or as an
// object carrying one of label, name or value.
type Label string

// UnmarshalJSON accepts "Forward" and {"label":"Forward"}; label wins over
// name, name over value.
func (l *Label) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*l = ""
		return nil
	}
	switch b[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*l = Label(strings.TrimSpace(s))
		return nil
	case '{':
		var obj struct {
			Label Text `json:"label"`
			Name  Text `json:"name"`
			Value Text `json:"value"`
		}
		if err := json.Unmarshal(b, &obj); err != nil {
			return fmt.Errorf("%w: position object: %v", ErrFieldType, err)
		}
		for _, v := range []Text{obj.Label, obj.Name, obj.Value} {
			if v != "" {
				*l = Label(v)
				return nil
			}
		}
		*l = ""
		return nil
	default:
		return fmt.Errorf("%w: expected string or object, got %s", ErrFieldType, b)
	}
}

// Number is an integer that may arrive as a JSON number or numeric string.
type Number int

// UnmarshalJSON accepts 12, 12.0, "12" and null. Fractions are truncated;
// NaN, infinities and values outside the int32 range are rejected.
func (n *Number) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*n = 0
		return nil
	}
	s := string(b)
	if b[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*n = 0
			return nil
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("%w: expected integer, got %s", ErrFieldType, b)
	}
	if f > math.MaxInt32 || f < math.MinInt32 {
		return fmt.Errorf("%w: integer out of range, got %s", ErrFieldType, b)
	}
	*n = Number(int(f))
	return nil
}

// Decode reads either a JSON array of tags or an object with a "tags" array.
func Decode(r io.Reader) ([]RawTag, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, fmt.Errorf("%w: empty body", ErrDecode)
	}
	if body[0] == '[' {
		var tags []RawTag
		if err := json.Unmarshal(body, &tags); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDecode, err)
		}
		return tags, nil
	}
	var env struct {
		Tags []RawTag `json:"tags"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return env.Tags, nil
}
