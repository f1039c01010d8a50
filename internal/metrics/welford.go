package metrics

import "math"

// WelfordState holds running statistics using Welford's online algorithm,
// so mean and standard deviation are updated in O(1) without keeping samples.
type WelfordState struct {
	Count int
	Mean  float64
	M2    float64 // sum of squared differences from the mean
}

// Update adds one observation.
func (w *WelfordState) Update(value float64) {
	w.Count++
	delta := value - w.Mean
	w.Mean += delta / float64(w.Count)
	w.M2 += delta * (value - w.Mean)
}

// StdDev returns the population standard deviation, or 0 with fewer than 2 observations.
func (w *WelfordState) StdDev() float64 {
	if w.Count < 2 {
		return 0
	}
	return math.Sqrt(w.M2 / float64(w.Count))
}
