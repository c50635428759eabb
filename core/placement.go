package core

import (
	"math"
	"math/rand"
)

// PlaceUsers samples one position per UE around the given cell layout.
// The run's single seeded stream supplies both the uniform and the
// exponential draws; the draw order is fixed (per placed UE: radius
// then angle; per leftover UE: x then y) so a given seed always yields
// the same layout.
//
// Per-cell quotas are the UE count split evenly with the remainder
// going to the first cells. In the dense scenario the quotas of cell 0
// and cell numCells/2 are inflated ×1.5 to model hotspots; the summed
// quotas can then exceed numUEs, in which case placement stops early
// and later-indexed cells receive fewer users than their nominal
// quota. Known quirk, preserved from the original campaign.
func PlaceUsers(numUEs int, cells []Position, scenario ScenarioType, isd, ueHeight float64, rng *rand.Rand) []Position {
	numCells := len(cells)
	if numUEs <= 0 || numCells == 0 {
		return nil
	}

	quotas := make([]int, numCells)
	base := numUEs / numCells
	remainder := numUEs % numCells
	for i := range quotas {
		quotas[i] = base
		if i < remainder {
			quotas[i]++
		}
		if scenario == ScenarioDenseUrban && (i == 0 || i == numCells/2) {
			quotas[i] = quotas[i] * 3 / 2 // truncating ×1.5
		}
	}

	// Coverage annulus around each site.
	var minRadius, maxRadius float64
	if scenario == ScenarioDenseUrban {
		minRadius, maxRadius = 10.0, isd*0.4
	} else {
		minRadius, maxRadius = 50.0, isd*0.8
	}

	positions := make([]Position, 0, numUEs)
	for cell := 0; cell < numCells && len(positions) < numUEs; cell++ {
		for j := 0; j < quotas[cell] && len(positions) < numUEs; j++ {
			var radius float64
			if scenario == ScenarioDenseUrban {
				// Exponential draw squeezed into the inner 30% of the
				// annulus width concentrates users near the site.
				radius = minRadius + rng.ExpFloat64()*(maxRadius-minRadius)*0.3
				radius = math.Min(radius, maxRadius)
			} else {
				radius = minRadius + rng.Float64()*(maxRadius-minRadius)
			}
			angle := rng.Float64() * 2 * math.Pi

			positions = append(positions, Position{
				X: cells[cell].X + radius*math.Cos(angle),
				Y: cells[cell].Y + radius*math.Sin(angle),
				Z: ueHeight,
			})
		}
	}

	// Quota skew can leave UEs unplaced once all cells are exhausted;
	// scatter them uniformly over a square of half-width 1.5·ISD
	// centred on the origin, ignoring cell association.
	half := isd * 1.5
	for len(positions) < numUEs {
		positions = append(positions, Position{
			X: -half + rng.Float64()*2*half,
			Y: -half + rng.Float64()*2*half,
			Z: ueHeight,
		})
	}

	return positions
}
