package state

// Area is an axis-aligned rectangle on the canvas.
type Area struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// Bounds computes the bounding box of every point in strokes, grown by padding on each side.
// ok is false when there are no points at all.
func Bounds(strokes []Stroke, padding float64) (area Area, ok bool) {
	var minX, minY, maxX, maxY float64
	for _, s := range strokes {
		for _, seg := range s.Points {
			if !ok {
				minX, maxX = seg.X, seg.X
				minY, maxY = seg.Y, seg.Y
				ok = true
				continue
			}
			if seg.X < minX {
				minX = seg.X
			}
			if seg.X > maxX {
				maxX = seg.X
			}
			if seg.Y < minY {
				minY = seg.Y
			}
			if seg.Y > maxY {
				maxY = seg.Y
			}
		}
	}
	if !ok {
		return Area{}, false
	}
	return Area{
		X:      minX - padding,
		Y:      minY - padding,
		Width:  maxX - minX + 2*padding,
		Height: maxY - minY + 2*padding,
	}, true
}
