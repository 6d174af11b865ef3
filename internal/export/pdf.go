package export

import (
	"fmt"
	"io"
	"math"

	"github.com/jung-kurt/gofpdf"

	"LocalBoard/internal/state"
)

const (
	pageMargin = 10.0     // mm
	pxToMM     = 0.264583 // one CSS pixel at 96 dpi
	padding    = 10.0     // px around the drawing
	minLine    = 0.1      // mm
)

// WritePDF renders strokes onto a single A4 landscape page. The drawing is scaled to fit
// the page but never enlarged beyond its on-screen size.
func WritePDF(w io.Writer, strokes []state.Stroke) error {
	p := gofpdf.New("L", "mm", "A4", "")
	p.SetTitle("LocalBoard export", true)
	p.SetCreator("LocalBoard", true)
	p.AddPage()
	p.SetLineCapStyle("round")
	p.SetLineJoinStyle("round")

	pageW, pageH := p.GetPageSize()
	p.SetFont("Helvetica", "", 8)
	p.SetTextColor(128, 128, 128)
	p.Text(pageMargin, pageMargin-3, fmt.Sprintf("LocalBoard export - %d strokes", len(strokes)))

	if area, ok := state.Bounds(strokes, padding); ok {
		scale := fit(area, pageW-2*pageMargin, pageH-2*pageMargin)
		for _, st := range strokes {
			drawStroke(p, st, area, scale)
		}
	}

	if err := p.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

func fit(area state.Area, width, height float64) float64 {
	scale := pxToMM
	if area.Width > 0 {
		scale = math.Min(scale, width/area.Width)
	}
	if area.Height > 0 {
		scale = math.Min(scale, height/area.Height)
	}
	return scale
}

func drawStroke(p *gofpdf.Fpdf, st state.Stroke, area state.Area, scale float64) {
	at := func(pt state.Point) (float64, float64) {
		return pageMargin + (pt.X-area.X)*scale, pageMargin + (pt.Y-area.Y)*scale
	}
	for i := 1; i < len(st.Points); i++ {
		seg := st.Points[i]
		c := seg.Color.NRGBA()
		p.SetDrawColor(int(c.R), int(c.G), int(c.B))
		p.SetLineWidth(math.Max(seg.Width*scale, minLine))

		x1, y1 := at(st.Points[i-1].Point)
		x2, y2 := at(seg.Point)
		p.Line(x1, y1, x2, y2)
	}
}
