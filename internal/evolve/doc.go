// Package evolve implements fixed-step integrators for dU/dt = -iH(t)U over
// complex square matrices.
//
// Six methods share one contract:
//
//   - [RK2], [RK4]: explicit Runge-Kutta, orders 2 and 4
//   - [RKN2], [RKN4]: Runge-Kutta with every stage renormalized by [NormU]
//   - [SRK2]: symplectic Runge-Kutta with a linear solve per stage
//   - [SV2]: Störmer-Verlet on the split state U = Un - iVn
//
// Each integrator advances U over ceil((tf-t0)/h) steps of exactly h. The
// last step is not clamped, so the final time may pass tf by less than h.
//
// # Example
//
//	b := linalg.NewCDense()
//	h, _ := b.FromRows([][]complex128{{1, 0}, {0, -1}})
//	rk := evolve.NewRK4(b, nil)
//	u, err := rk.Step(0, 1, b.Identity(2), 0.01, evolve.Constant(h))
//
// # Thread Safety
//
// Step keeps no state between calls, but observers attached to an
// integrator are shared. Use one integrator per goroutine when observers
// are attached.
package evolve
