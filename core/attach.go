package core

// UEInfo records everything the statistics pass needs to know about
// one attached user. The IMSI is assigned by the radio engine at
// attach time and treated as an opaque key; the serving cell is the
// nearest site at attach time and stays fixed for the whole run, even
// if the engine later hands the UE over.
type UEInfo struct {
	Imsi        uint64
	Index       int
	Position    Position
	ServingCell int
	DistanceM   float64
	Class       TrafficClass
}

// AttachUsers computes the fixed UE→cell association for a placed
// population: nearest cell by straight-line distance, traffic class by
// prefix split. imsiOf maps a creation index to the engine-assigned
// subscriber identity.
func AttachUsers(users, cells []Position, embbRatio float64, imsiOf func(index int) uint64) []UEInfo {
	out := make([]UEInfo, len(users))
	for i, pos := range users {
		cell, dist := NearestCell(pos, cells)
		out[i] = UEInfo{
			Imsi:        imsiOf(i),
			Index:       i,
			Position:    pos,
			ServingCell: cell,
			DistanceM:   dist,
			Class:       ClassifyUE(i, len(users), embbRatio),
		}
	}
	return out
}

// CellUECounts folds a UE registry into per-cell population counts,
// indexed by cell. Cells with no attached users stay at zero.
func CellUECounts(ues []UEInfo, numCells int) []int {
	counts := make([]int, numCells)
	for _, ue := range ues {
		if ue.ServingCell >= 0 && ue.ServingCell < numCells {
			counts[ue.ServingCell]++
		}
	}
	return counts
}
