package core

import "math"

// layoutTemplate places cells for one supported count. The inter-site
// distance passed in is already scenario-scaled.
type layoutTemplate func(isd, height float64) []Position

// cellLayouts maps the supported cell counts to their geometric
// templates. Any other count falls back to the nine-cell template;
// the fallback is a deliberate policy carried over from the original
// campaign (an unsupported count degrades instead of failing), even
// though rejecting it at validation time would arguably be safer.
var cellLayouts = map[int]layoutTemplate{
	1: layoutSingle,
	3: layoutTriangle,
	5: layoutCross,
	7: layoutHexagon,
	9: layoutRose,
}

// GenerateCellLayout returns the positions of numCells sites, centred
// on the origin. Deterministic: no randomness is consumed. Supported
// counts are 1, 3, 5, 7 and 9; everything else silently uses the
// nine-cell template.
func GenerateCellLayout(numCells int, isd, height float64, scenario ScenarioType) []Position {
	effectiveISD := isd * scenario.ISDScale()

	tmpl, ok := cellLayouts[numCells]
	if !ok {
		tmpl = layoutRose
	}
	return tmpl(effectiveISD, height)
}

func layoutSingle(_, height float64) []Position {
	return []Position{{X: 0, Y: 0, Z: height}}
}

// layoutTriangle is an equilateral triangle around the origin with
// circumradius 0.577·ISD.
func layoutTriangle(isd, height float64) []Position {
	r := isd * 0.577
	return []Position{
		{X: 0, Y: r, Z: height},
		{X: -r * 0.866, Y: -r * 0.5, Z: height},
		{X: r * 0.866, Y: -r * 0.5, Z: height},
	}
}

// layoutCross is a centre site plus four sites on the cardinal axes.
func layoutCross(isd, height float64) []Position {
	offset := isd * 0.7
	return []Position{
		{X: 0, Y: 0, Z: height},
		{X: offset, Y: 0, Z: height},
		{X: -offset, Y: 0, Z: height},
		{X: 0, Y: offset, Z: height},
		{X: 0, Y: -offset, Z: height},
	}
}

// layoutHexagon is a centre site plus a regular hexagon at 0.6·ISD,
// vertices at 60° steps starting from the positive X axis.
func layoutHexagon(isd, height float64) []Position {
	out := []Position{{X: 0, Y: 0, Z: height}}
	r := isd * 0.6
	for i := 0; i < 6; i++ {
		angle := float64(i) * math.Pi / 3.0
		out = append(out, Position{
			X: r * math.Cos(angle),
			Y: r * math.Sin(angle),
			Z: height,
		})
	}
	return out
}

// layoutRose is a centre site plus eight sites at 45° steps, radius
// 0.65·ISD. Also the fallback for unsupported counts.
func layoutRose(isd, height float64) []Position {
	out := []Position{{X: 0, Y: 0, Z: height}}
	r := isd * 0.65
	for i := 0; i < 8; i++ {
		angle := float64(i) * math.Pi / 4.0
		out = append(out, Position{
			X: r * math.Cos(angle),
			Y: r * math.Sin(angle),
			Z: height,
		})
	}
	return out
}
