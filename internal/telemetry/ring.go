package telemetry

// ring is a fixed-capacity FIFO buffer over float64 samples. When full,
// a push evicts the oldest sample in O(1). It backs the per-UE SINR
// history so a chatty radio engine cannot grow memory without bound.
type ring struct {
	buf  []float64
	head int // index of the oldest sample
	n    int
}

func newRing(capacity int) *ring {
	if capacity <= 0 {
		capacity = 1
	}
	return &ring{buf: make([]float64, capacity)}
}

// Push appends v, evicting the oldest sample if the buffer is full.
func (r *ring) Push(v float64) {
	tail := (r.head + r.n) % len(r.buf)
	r.buf[tail] = v
	if r.n < len(r.buf) {
		r.n++
		return
	}
	r.head = (r.head + 1) % len(r.buf)
}

// Len returns the number of stored samples.
func (r *ring) Len() int { return r.n }

// Values returns the stored samples oldest-first, as a fresh slice.
func (r *ring) Values() []float64 {
	out := make([]float64, r.n)
	for i := 0; i < r.n; i++ {
		out[i] = r.buf[(r.head+i)%len(r.buf)]
	}
	return out
}
