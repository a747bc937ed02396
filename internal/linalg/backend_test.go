package linalg_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/qevolve/internal/linalg"
)

var _ = describeBackend[*mat.CDense](linalg.NewCDense())
var _ = describeBackend[*linalg.Pair](linalg.NewSplit())

func describeBackend[M any](b linalg.Backend[M]) bool {
	return Describe(b.Name()+" backend", func() {
		var (
			a, c M
		)

		mustRows := func(rows [][]complex128) M {
			m, err := b.FromRows(rows)
			Expect(err).NotTo(HaveOccurred())
			return m
		}

		BeforeEach(func() {
			a = mustRows([][]complex128{
				{1 + 2i, 2 + 3i},
				{3 + 4i, 4 + 5i},
			})
			c = mustRows([][]complex128{
				{0, 1i},
				{2, -1},
			})
		})

		It("round-trips rows", func() {
			Expect(b.ToRows(a)).To(Equal([][]complex128{
				{1 + 2i, 2 + 3i},
				{3 + 4i, 4 + 5i},
			}))
			r, cols := b.Dims(a)
			Expect(r).To(Equal(2))
			Expect(cols).To(Equal(2))
		})

		It("rejects ragged and empty rows", func() {
			_, err := b.FromRows([][]complex128{{1, 2}, {3}})
			Expect(err).To(MatchError(linalg.ErrShape))
			_, err = b.FromRows(nil)
			Expect(err).To(MatchError(linalg.ErrShape))
		})

		It("builds the identity", func() {
			Expect(b.ToRows(b.Identity(3))).To(Equal([][]complex128{
				{1, 0, 0},
				{0, 1, 0},
				{0, 0, 1},
			}))
		})

		It("adds, subtracts and scales without touching operands", func() {
			sum := b.Add(a, c)
			Expect(b.ToRows(sum)).To(Equal([][]complex128{
				{1 + 2i, 2 + 4i},
				{5 + 4i, 3 + 5i},
			}))
			diff := b.Sub(a, c)
			Expect(b.ToRows(diff)).To(Equal([][]complex128{
				{1 + 2i, 2 + 2i},
				{1 + 4i, 5 + 5i},
			}))
			scaled := b.Scale(1i, c)
			Expect(b.ToRows(scaled)).To(Equal([][]complex128{
				{0, -1},
				{2i, -1i},
			}))
			axpy := b.AddScaled(a, 2, c)
			Expect(b.ToRows(axpy)).To(Equal([][]complex128{
				{1 + 2i, 2 + 5i},
				{7 + 4i, 2 + 5i},
			}))
			Expect(b.ToRows(c)).To(Equal([][]complex128{
				{0, 1i},
				{2, -1},
			}))
		})

		It("multiplies", func() {
			p, err := b.Mul(a, c)
			Expect(err).NotTo(HaveOccurred())
			// [1+2i 2+3i][0  i]   [4+6i   -4-2i]
			// [3+4i 4+5i][2 -1] = [8+10i  -8-2i]
			Expect(linalg.MaxAbsDiff(b, p, mustRows([][]complex128{
				{4 + 6i, -4 - 2i},
				{8 + 10i, -8 - 2i},
			}))).To(BeNumerically("<", 1e-12))
		})

		It("reports dimension mismatches from Mul", func() {
			col := mustRows([][]complex128{{1}, {2}, {3}})
			_, err := b.Mul(a, col)
			Expect(err).To(MatchError(linalg.ErrDimensionMismatch))
		})

		It("solves linear systems", func() {
			rhs := mustRows([][]complex128{{6 + 7i}, {12 + 13i}})
			x, err := b.Solve(a, rhs)
			Expect(err).NotTo(HaveOccurred())
			back, err := b.Mul(a, x)
			Expect(err).NotTo(HaveOccurred())
			Expect(linalg.MaxAbsDiff(b, back, rhs)).To(BeNumerically("<", 1e-10))
		})

		It("solves with a matrix right-hand side that needs pivoting", func() {
			m := mustRows([][]complex128{
				{0, 1, 2i},
				{1, 0, 1},
				{1i, 2, 0},
			})
			rhs := b.Identity(3)
			x, err := b.Solve(m, rhs)
			Expect(err).NotTo(HaveOccurred())
			back, err := b.Mul(m, x)
			Expect(err).NotTo(HaveOccurred())
			Expect(linalg.MaxAbsDiff(b, back, rhs)).To(BeNumerically("<", 1e-10))
		})

		It("reports singular systems", func() {
			sing := mustRows([][]complex128{
				{1 + 1i, 2 + 2i},
				{2 + 2i, 4 + 4i},
			})
			_, err := b.Solve(sing, b.Identity(2))
			Expect(err).To(MatchError(linalg.ErrSingular))
		})

		It("reports dimension mismatches from Solve", func() {
			_, err := b.Solve(a, b.Identity(3))
			Expect(err).To(MatchError(linalg.ErrDimensionMismatch))
		})

		It("computes trace, real and imaginary parts", func() {
			Expect(b.Trace(a)).To(Equal(complex128(5 + 7i)))
			Expect(b.ToRows(b.Real(a))).To(Equal([][]complex128{{1, 2}, {3, 4}}))
			Expect(b.ToRows(b.Imag(a))).To(Equal([][]complex128{{2, 3}, {4, 5}}))
		})

		It("conjugate-transposes", func() {
			Expect(b.ToRows(b.ConjTranspose(a))).To(Equal([][]complex128{
				{1 - 2i, 3 - 4i},
				{2 - 3i, 4 - 5i},
			}))
		})

		It("measures norms and finiteness", func() {
			Expect(linalg.FrobeniusNorm(b, b.Identity(4))).To(BeNumerically("~", 2, 1e-15))
			Expect(linalg.IsFinite(b, a)).To(BeTrue())
			bad := mustRows([][]complex128{{complex(math.NaN(), 0)}})
			Expect(linalg.IsFinite(b, bad)).To(BeFalse())
			Expect(math.IsInf(linalg.MaxAbsDiff(b, a, b.Identity(3)), 1)).To(BeTrue())
		})
	})
}
