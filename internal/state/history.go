package state

// History is the ordered log of committed strokes. It is not synchronized;
// its owner serializes access.
type History struct {
	strokes []Stroke
}

func NewHistory() *History {
	return &History{strokes: make([]Stroke, 0)}
}

// Append adds a stroke at the tail.
func (h *History) Append(s Stroke) {
	h.strokes = append(h.strokes, s.Clone())
}

// PopLast removes and returns the most recent stroke.
func (h *History) PopLast() (Stroke, error) {
	n := len(h.strokes)
	if n == 0 {
		return Stroke{}, ErrEmptyHistory
	}
	last := h.strokes[n-1]
	h.strokes[n-1] = Stroke{}
	h.strokes = h.strokes[:n-1]
	return last, nil
}

// ReplaceAll swaps the whole sequence for a copy of strokes.
func (h *History) ReplaceAll(strokes []Stroke) {
	h.strokes = CloneStrokes(strokes)
}

func (h *History) Clear() {
	h.strokes = make([]Stroke, 0)
}

// Snapshot returns a deep copy of the current sequence.
func (h *History) Snapshot() []Stroke {
	return CloneStrokes(h.strokes)
}

func (h *History) Len() int {
	return len(h.strokes)
}
