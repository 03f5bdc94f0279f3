package analysis

import (
	"github.com/san-kum/rockweather/internal/dynamo"
)

// Component extracts state variable idx from every recorded state of res.
// It returns nil when idx is out of range for the recorded states.
func Component(res *dynamo.Result, idx int) []float64 {
	if res == nil || len(res.States) == 0 || idx < 0 || idx >= len(res.States[0]) {
		return nil
	}
	out := make([]float64, len(res.States))
	for i, s := range res.States {
		out[i] = s[idx]
	}
	return out
}

// Downsample keeps at most n evenly spaced values of series, always including
// the first and last ones when n > 1.
func Downsample(series []float64, n int) []float64 {
	if n <= 0 || len(series) <= n {
		return series
	}
	if n == 1 {
		return series[len(series)-1:]
	}
	out := make([]float64, n)
	last := len(series) - 1
	for i := 0; i < n; i++ {
		out[i] = series[i*last/(n-1)]
	}
	return out
}
