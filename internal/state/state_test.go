package state

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func line(user UserID, pts ...float64) Stroke {
	s := Stroke{UserID: user}
	for i := 0; i+1 < len(pts); i += 2 {
		s.Points = append(s.Points, Segment{Point: Point{X: pts[i], Y: pts[i+1]}, Color: Black, Width: 2})
	}
	return s
}

func TestHistoryAppendAndPop(t *testing.T) {
	h := NewHistory()
	h.Append(line("a", 0, 0, 1, 1))
	h.Append(line("b", 2, 2, 3, 3))
	require.Equal(t, 2, h.Len())

	last, err := h.PopLast()
	require.NoError(t, err)
	assert.Equal(t, UserID("b"), last.UserID)
	assert.Equal(t, 1, h.Len())

	_, err = h.PopLast()
	require.NoError(t, err)
	_, err = h.PopLast()
	assert.ErrorIs(t, err, ErrEmptyHistory)
}

func TestHistorySnapshotIsDetached(t *testing.T) {
	h := NewHistory()
	h.Append(line("a", 0, 0, 1, 1))

	snap := h.Snapshot()
	snap[0].Points[0].X = 99
	snap[0].UserID = "mutated"

	again := h.Snapshot()
	assert.Equal(t, 0.0, again[0].Points[0].X)
	assert.Equal(t, UserID("a"), again[0].UserID)
}

func TestHistoryReplaceAllAndClear(t *testing.T) {
	h := NewHistory()
	h.Append(line("a", 0, 0, 1, 1))

	input := []Stroke{line("x", 1, 1, 2, 2), line("y", 3, 3, 4, 4)}
	h.ReplaceAll(input)
	input[0].UserID = "changed"
	assert.Equal(t, []UserID{"x", "y"}, []UserID{h.Snapshot()[0].UserID, h.Snapshot()[1].UserID})

	h.Clear()
	assert.Equal(t, 0, h.Len())
	assert.NotNil(t, h.Snapshot())
	assert.Empty(t, h.Snapshot())
}

func TestPresenceUnregisterDropsCursor(t *testing.T) {
	p := NewPresence()
	u := User{ID: "u1", Color: "#123456"}
	p.Register(u)

	c, err := p.SetCursor(u.ID, Point{X: 4, Y: 5})
	require.NoError(t, err)
	assert.Equal(t, ColorValue("#123456"), c.Color)

	got, ok := p.GetCursor(u.ID)
	require.True(t, ok)
	assert.Equal(t, Point{X: 4, Y: 5}, got.Position)

	p.Unregister(u.ID)
	assert.NotContains(t, p.All(), u)
	_, ok = p.GetCursor(u.ID)
	assert.False(t, ok)
	_, ok = p.Get(u.ID)
	assert.False(t, ok)
}

func TestPresenceOrderAndUnknownUser(t *testing.T) {
	p := NewPresence()
	p.Register(User{ID: "a"})
	p.Register(User{ID: "b"})
	p.Register(User{ID: "c"})
	p.Unregister("b")
	p.Unregister("missing")

	ids := []UserID{}
	for _, u := range p.All() {
		ids = append(ids, u.ID)
	}
	assert.Equal(t, []UserID{"a", "c"}, ids)
	assert.Equal(t, 2, p.Len())

	_, err := p.SetCursor("b", Point{})
	assert.ErrorIs(t, err, ErrUnknownUser)

	p.Register(User{ID: "a", Name: "renamed"})
	assert.Equal(t, "renamed", p.All()[0].Name)
}

func TestStrokeValid(t *testing.T) {
	tests := []struct {
		name   string
		stroke Stroke
		want   bool
	}{
		{"two points", line("a", 0, 0, 1, 1), true},
		{"single point", line("a", 0, 0), false},
		{"empty", Stroke{}, false},
		{"nan coordinate", line("a", math.NaN(), 0, 1, 1), false},
		{"bad color", Stroke{Points: []Segment{{Color: "red"}, {Color: Black}}}, false},
		{"placeholder color", Stroke{Points: []Segment{{}, {Color: Black, Width: 1}}}, true},
		{"negative width", Stroke{Points: []Segment{{}, {Width: -1}}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.stroke.Valid())
		})
	}
}

func TestColors(t *testing.T) {
	for i := 0; i < 100; i++ {
		assert.True(t, RandomColor().Valid())
	}
	assert.Equal(t, uint8(0xab), ColorValue("#ab0000").NRGBA().R)
	assert.Equal(t, ColorValue("#ff0080"), FromColor(ColorValue("#ff0080").NRGBA()))
	assert.False(t, ColorValue("#12345").Valid())
	assert.False(t, ColorValue("#zzzzzz").Valid())
}

func TestIdentityIsUnique(t *testing.T) {
	seen := map[UserID]bool{}
	for i := 0; i < 50; i++ {
		id, c := RandomIdentity()
		assert.False(t, seen[id])
		assert.True(t, c.Valid())
		seen[id] = true
	}
}

func TestBounds(t *testing.T) {
	_, ok := Bounds(nil, 5)
	assert.False(t, ok)

	area, ok := Bounds([]Stroke{line("a", 10, 20, 30, 5), line("b", -4, 8, 2, 2)}, 1)
	require.True(t, ok)
	assert.Equal(t, Area{X: -5, Y: 1, Width: 36, Height: 20}, area)
}

func TestUserLabel(t *testing.T) {
	assert.Equal(t, "User abcd", User{ID: "abcdef"}.Label())
	assert.Equal(t, "Ann", User{ID: "abcdef", Name: "Ann"}.Label())
}
