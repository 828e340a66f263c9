package vec

// Band is a one-dimensional interval [Start, End] used for falloff and
// clamping. A Band with Start == End is degenerate: Normalize then maps
// everything below Start to 0 and everything else to 1.
type Band struct {
	Start float64 `json:"start" toml:"start" yaml:"start"`
	End   float64 `json:"end" toml:"end" yaml:"end"`
}

// NewBand returns the band [start, end].
func NewBand(start, end float64) Band { return Band{Start: start, End: end} }

// Normalize maps v linearly so that Start → 0 and End → 1.
// Values outside the band map outside [0, 1].
func (b Band) Normalize(v float64) float64 {
	span := b.End - b.Start
	if span == 0 {
		if v < b.Start {
			return 0
		}
		return 1
	}
	return (v - b.Start) / span
}

// Clamp limits v to the band.
func (b Band) Clamp(v float64) float64 {
	lo, hi := b.Start, b.End
	if lo > hi {
		lo, hi = hi, lo
	}
	return min(max(v, lo), hi)
}

// Contains reports whether v lies within the band, bounds included.
func (b Band) Contains(v float64) bool {
	return v == b.Clamp(v)
}
