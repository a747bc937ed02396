package analysis

import (
	"math"

	"github.com/san-kum/qevolve/internal/linalg"
)

// ConvergenceOrder returns log2(e[k]/e[k+1]) for errors measured at step
// sizes h, h/2, h/4, ... Non-positive or non-finite errors give NaN entries.
func ConvergenceOrder(errs []float64) []float64 {
	if len(errs) < 2 {
		return nil
	}
	orders := make([]float64, len(errs)-1)
	for k := range orders {
		orders[k] = log2Ratio(errs[k], errs[k+1])
	}
	return orders
}

// Richardson estimates the order from solutions at h, h/2 and h/4 as
// log2(|coarse-mid| / |mid-fine|) in the max-entry norm.
func Richardson[M any](b linalg.Backend[M], coarse, mid, fine M) float64 {
	return log2Ratio(linalg.MaxAbsDiff(b, coarse, mid), linalg.MaxAbsDiff(b, mid, fine))
}

func log2Ratio(a, b float64) float64 {
	if !(a > 0) || !(b > 0) || math.IsInf(a, 0) || math.IsInf(b, 0) {
		return math.NaN()
	}
	return math.Log2(a / b)
}

// MeanOrder averages the finite entries of orders. It is NaN if there are none.
func MeanOrder(orders []float64) float64 {
	sum, n := 0.0, 0
	for _, p := range orders {
		if math.IsNaN(p) {
			continue
		}
		sum += p
		n++
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}
