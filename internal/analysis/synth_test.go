package analysis

import "math"

func gauss(x, mu, sigma float64) float64 {
	z := (x - mu) / sigma
	return math.Exp(-0.5 * z * z)
}

// syntheticECG builds a lead with a gaussian R wave every period samples starting at
// first, a small T wave after each R and slow baseline wander. It returns the samples and
// the R-wave centres.
func syntheticECG(fs float64, n, period, first int) ([]float64, []int) {
	x := make([]float64, n)
	var centres []int
	for c := first; c < n; c += period {
		centres = append(centres, c)
	}
	sigmaR := 0.01 * fs
	sigmaT := 0.06 * fs
	tOffset := 0.3 * float64(period)
	for i := range x {
		t := float64(i) / fs
		v := 0.2 * math.Sin(2*math.Pi*0.3*t)
		for _, c := range centres {
			d := float64(i - c)
			if math.Abs(d) < 8*sigmaR {
				v += gauss(float64(i), float64(c), sigmaR)
			}
			if math.Abs(d-tOffset) < 5*sigmaT {
				v += 0.1 * gauss(float64(i), float64(c)+tOffset, sigmaT)
			}
		}
		x[i] = v
	}
	return x, centres
}
