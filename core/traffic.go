package core

import "time"

// TrafficClass is the service category of a UE or flow.
type TrafficClass int

const (
	TrafficEmbb TrafficClass = iota
	TrafficUrllc
)

func (t TrafficClass) String() string {
	if t == TrafficEmbb {
		return "eMBB"
	}
	return "URLLC"
}

// Per-UE eMBB rate clamp and the default used when no eMBB users exist.
const (
	MinEmbbRateBps     = 5e6
	MaxEmbbRateBps     = 20e6
	DefaultEmbbRateBps = 10e6
)

// NumEmbbUEs is the size of the eMBB prefix of the UE population:
// floor(ratio × count). Classification is a strict prefix split by
// creation index, not a random assignment.
func NumEmbbUEs(numUEs int, embbRatio float64) int {
	return int(embbRatio * float64(numUEs))
}

// ClassifyUE returns the traffic class of the UE at the given creation
// index.
func ClassifyUE(index, numUEs int, embbRatio float64) TrafficClass {
	if index < NumEmbbUEs(numUEs, embbRatio) {
		return TrafficEmbb
	}
	return TrafficUrllc
}

// ClassForPort maps a flow's destination port to its traffic class.
// Flows on any other port do not belong to the experiment and are
// discarded by the statistics pass.
func ClassForPort(port uint16) (TrafficClass, bool) {
	switch port {
	case EmbbPort:
		return TrafficEmbb, true
	case UrllcPort:
		return TrafficUrllc, true
	default:
		return 0, false
	}
}

// AllocateEmbbRate splits the scenario traffic budget fairly across
// the eMBB users and clamps the share to [5, 20] Mb/s to avoid queue
// build-up and starvation. With no eMBB users it returns the fixed
// 10 Mb/s default.
func AllocateEmbbRate(totalBudgetBps float64, embbUeCount int) uint64 {
	if embbUeCount <= 0 {
		return uint64(DefaultEmbbRateBps)
	}
	fairShare := totalBudgetBps / float64(embbUeCount)
	if fairShare < MinEmbbRateBps {
		fairShare = MinEmbbRateBps
	}
	if fairShare > MaxEmbbRateBps {
		fairShare = MaxEmbbRateBps
	}
	return uint64(fairShare)
}

// AppProfile describes the offered traffic of one UE's application.
type AppProfile struct {
	Class           TrafficClass
	Port            uint16
	PacketSizeBytes int
	// RateBps is set for eMBB (constant-rate streaming); Interval is
	// set for URLLC (fixed-cadence control packets).
	RateBps  uint64
	Interval time.Duration
	// StartOffset staggers the application start past the common app
	// start time so all senders do not fire their first packet on the
	// same tick.
	StartOffset time.Duration
}

// EmbbProfile is the video-streaming style profile shared by all eMBB
// users at the allocated per-UE rate.
func EmbbProfile(rateBps uint64) AppProfile {
	return AppProfile{
		Class:           TrafficEmbb,
		Port:            EmbbPort,
		PacketSizeBytes: 1400,
		RateBps:         rateBps,
	}
}

// UrllcProfile is the critical-control profile; the dense scenario
// doubles the packet cadence to exploit the shorter slots of
// numerology 2.
func UrllcProfile(scenario ScenarioType) AppProfile {
	return AppProfile{
		Class:           TrafficUrllc,
		Port:            UrllcPort,
		PacketSizeBytes: 100,
		Interval:        scenario.UrllcInterval(),
	}
}
