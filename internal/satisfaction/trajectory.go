package satisfaction

// Trend classifies the direction of a trajectory.
type Trend string

const (
	TrendImproving Trend = "improving"
	TrendDeclining Trend = "declining"
	TrendStable    Trend = "stable"
)

// Trajectory holds parallel arrays over a fixed time grid: minute offsets,
// point predictions, and confidence bands.
// Invariants: equal lengths; Lower[i] <= Values[i] <= Upper[i]; offsets
// ascend in a fixed step.
type Trajectory struct {
	Offsets []int     `json:"offsets"`
	Values  []float64 `json:"values"`
	Lower   []float64 `json:"lower"`
	Upper   []float64 `json:"upper"`
	Factors []string  `json:"factors,omitempty"`
}

// Trend compares the mean of the first two points against the mean of the
// last two: a rise above 0.1 is improving, a drop below -0.1 declining.
func (t *Trajectory) Trend() Trend {
	if len(t.Values) < 2 {
		return TrendStable
	}
	head := (t.Values[0] + t.Values[1]) / 2
	tail := (t.Values[len(t.Values)-1] + t.Values[len(t.Values)-2]) / 2
	switch delta := tail - head; {
	case delta > 0.1:
		return TrendImproving
	case delta < -0.1:
		return TrendDeclining
	default:
		return TrendStable
	}
}

// At linearly interpolates the predicted satisfaction at an arbitrary minute
// offset. Offsets outside the grid clamp to the nearest endpoint.
func (t *Trajectory) At(minutes float64) float64 {
	if len(t.Values) == 0 {
		return 0.5
	}
	if minutes <= float64(t.Offsets[0]) {
		return t.Values[0]
	}
	last := len(t.Offsets) - 1
	if minutes >= float64(t.Offsets[last]) {
		return t.Values[last]
	}
	for i := 1; i <= last; i++ {
		lo, hi := float64(t.Offsets[i-1]), float64(t.Offsets[i])
		if minutes <= hi {
			frac := (minutes - lo) / (hi - lo)
			return t.Values[i-1] + frac*(t.Values[i]-t.Values[i-1])
		}
	}
	return t.Values[last]
}
