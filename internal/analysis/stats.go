package analysis

import (
	"math"
	"sort"
)

// mean arithmetic mean; 0 for an empty slice
func mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range data {
		sum += v
	}
	return sum / float64(len(data))
}

// std sample standard deviation; 0 for fewer than two values
func std(data []float64) float64 {
	if len(data) <= 1 {
		return 0
	}
	m := mean(data)
	sumSquares := 0.0
	for _, v := range data {
		d := v - m
		sumSquares += d * d
	}
	return math.Sqrt(sumSquares / float64(len(data)-1))
}

// rmssd root mean square of successive differences; 0 for fewer than two values
func rmssd(data []float64) float64 {
	if len(data) <= 1 {
		return 0
	}
	sumSquares := 0.0
	for i := 1; i < len(data); i++ {
		d := data[i] - data[i-1]
		sumSquares += d * d
	}
	return math.Sqrt(sumSquares / float64(len(data)-1))
}

func minMax(data []float64) (float64, float64) {
	if len(data) == 0 {
		return 0, 0
	}
	lo, hi := data[0], data[0]
	for _, v := range data[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

// gradient numerical derivative with central differences inside and one-sided edges
func gradient(x []float64) []float64 {
	n := len(x)
	out := make([]float64, n)
	if n < 2 {
		return out
	}
	out[0] = x[1] - x[0]
	out[n-1] = x[n-1] - x[n-2]
	for i := 1; i < n-1; i++ {
		out[i] = (x[i+1] - x[i-1]) / 2
	}
	return out
}

// movingAverage centered box filter of the given width. Windows are truncated at the
// edges and averaged over the samples actually covered, so the output has len(x) values.
func movingAverage(x []float64, width int) []float64 {
	n := len(x)
	out := make([]float64, n)
	if n == 0 {
		return out
	}
	if width <= 1 {
		copy(out, x)
		return out
	}
	prefix := make([]float64, n+1)
	for i, v := range x {
		prefix[i+1] = prefix[i] + v
	}
	left := (width - 1) / 2
	right := width - 1 - left
	for i := 0; i < n; i++ {
		lo := i - left
		if lo < 0 {
			lo = 0
		}
		hi := i + right + 1
		if hi > n {
			hi = n
		}
		out[i] = (prefix[hi] - prefix[lo]) / float64(hi-lo)
	}
	return out
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// percentile linear-interpolated percentile p in [0, 100]; 0 for an empty slice
func percentile(data []float64, p float64) float64 {
	if len(data) == 0 {
		return 0
	}
	sorted := make([]float64, len(data))
	copy(sorted, data)
	sort.Float64s(sorted)

	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[len(sorted)-1]
	}
	index := p / 100 * float64(len(sorted)-1)
	lower := int(math.Floor(index))
	upper := int(math.Ceil(index))
	if lower == upper {
		return sorted[lower]
	}
	weight := index - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}
