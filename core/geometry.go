package core

import "math"

// Position is a site or terminal location on the local deployment
// plane, in metres. Z carries the antenna height.
type Position struct {
	X, Y, Z float64
}

// DistanceTo returns the straight-line distance between two points,
// including the height difference.
func (p Position) DistanceTo(other Position) float64 {
	dx := p.X - other.X
	dy := p.Y - other.Y
	dz := p.Z - other.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// NearestCell returns the index of the cell closest to p and the
// distance to it. Returns (-1, +Inf) for an empty layout; every run
// generates at least one cell before users attach.
func NearestCell(p Position, cells []Position) (int, float64) {
	closest := -1
	minDist := math.Inf(1)
	for i, c := range cells {
		if d := p.DistanceTo(c); d < minDist {
			minDist = d
			closest = i
		}
	}
	return closest, minDist
}
