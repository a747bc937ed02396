// Package analysis turns integrator output into numbers about the method.
//
//   - [ConvergenceOrder]: observed order from errors at halved step sizes
//   - [Richardson]: observed order from three solutions, no exact answer needed
//   - [Spectrum], [DominantFrequency]: frequency content of a sampled series
//
// # Order Estimation
//
// With e(h) ≈ C·h^p, halving h divides the error by 2^p:
//
//	orders := analysis.ConvergenceOrder([]float64{e1, e2, e3})
//	p := analysis.Richardson(b, uH, uH2, uH4)
package analysis
