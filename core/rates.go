package core

// rateWindow is the number of one-second counter deltas averaged into a
// smoothed rate. A plain sliding window keeps the computation
// deterministic for a given counter sequence, which the conformance
// tests rely on.
const rateWindow = 5

// RateStats holds smoothed per-second rates derived from the cumulative
// interface counters by the periodic rate job.
type RateStats struct {
	PacketsTx uint64
	PacketsRx uint64
	BytesTx   uint64
	BytesRx   uint64
}

// movingAverage tracks one cumulative counter and produces the average
// of its last rateWindow deltas. Only the rate job touches it, on the
// single timer thread.
type movingAverage struct {
	last    uint64
	samples [rateWindow]uint64
	idx     int
	filled  int
}

// update feeds the current cumulative value and returns the smoothed
// per-interval rate.
func (a *movingAverage) update(current uint64) uint64 {
	delta := current - a.last
	a.last = current

	a.samples[a.idx] = delta
	a.idx = (a.idx + 1) % rateWindow
	if a.filled < rateWindow {
		a.filled++
	}

	var sum uint64
	for i := 0; i < a.filled; i++ {
		sum += a.samples[i]
	}
	return sum / uint64(a.filled)
}
