// Package compute describes the host the integrators run on.
//
// Integrators are single-threaded; the only parallelism is running
// independent trajectories side by side. [Workers] sizes that pool:
//
//	g.SetLimit(compute.Workers(len(jobs)))
//
// [DetectFeatures] reports the SIMD extensions the BLAS kernels can use.
package compute
