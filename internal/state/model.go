package state

import (
	"errors"
	"math"
)

// MinStrokePoints is the smallest number of points a stroke needs to draw anything.
const MinStrokePoints = 2

var (
	ErrEmptyHistory  = errors.New("history is empty")
	ErrUnknownUser   = errors.New("unknown user")
	ErrInvalidStroke = errors.New("invalid stroke")
)

// UserID identifies one connection for its whole lifetime. Never reused.
type UserID string

// Point is a canvas coordinate in pixels at capture time.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Segment is a point of a stroke. Color and Width style the line ending at this point,
// so the first segment's style is a placeholder.
type Segment struct {
	Point
	Color ColorValue `json:"color"`
	Width float64    `json:"width"`
}

// Stroke is the atomic unit of drawing. Immutable once committed.
type Stroke struct {
	Points []Segment `json:"points"`
	UserID UserID    `json:"userId"`
}

type User struct {
	ID    UserID     `json:"id"`
	Color ColorValue `json:"color"`
	Name  string     `json:"name,omitempty"`
}

// Label is the display name used in user lists and cursor overlays.
func (u User) Label() string {
	if u.Name != "" {
		return u.Name
	}
	id := string(u.ID)
	if len(id) > 4 {
		id = id[:4]
	}
	return "User " + id
}

type Cursor struct {
	UserID   UserID     `json:"userId"`
	Position Point      `json:"position"`
	Color    ColorValue `json:"color"`
}

// Valid reports whether the stroke can be committed to a history.
func (s Stroke) Valid() bool {
	if len(s.Points) < MinStrokePoints {
		return false
	}
	for _, seg := range s.Points {
		if !finite(seg.X) || !finite(seg.Y) || !finite(seg.Width) || seg.Width < 0 {
			return false
		}
		if seg.Color != "" && !seg.Color.Valid() {
			return false
		}
	}
	return true
}

// Clone returns a stroke that shares no memory with s.
func (s Stroke) Clone() Stroke {
	points := make([]Segment, len(s.Points))
	copy(points, s.Points)
	return Stroke{Points: points, UserID: s.UserID}
}

// CloneStrokes deep-copies a stroke sequence. The result is never nil.
func CloneStrokes(strokes []Stroke) []Stroke {
	out := make([]Stroke, len(strokes))
	for i, s := range strokes {
		out[i] = s.Clone()
	}
	return out
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
