package evolve

import (
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/qevolve/internal/linalg"
)

func benchIntegrator(b *testing.B, integ Integrator[*mat.CDense], d int) {
	be := linalg.NewCDense()
	rows := make([][]complex128, d)
	for i := range rows {
		rows[i] = make([]complex128, d)
		rows[i][i] = complex(float64(i)-float64(d)/2, 0)
		if i+1 < d {
			rows[i][i+1] = 0.5 - 0.25i
		}
		if i > 0 {
			rows[i][i-1] = 0.5 + 0.25i
		}
	}
	h, err := be.FromRows(rows)
	if err != nil {
		b.Fatal(err)
	}
	u0 := be.Identity(d)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := integ.Step(0, 1, u0, 0.01, Constant(h)); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkRK2(b *testing.B)  { benchIntegrator(b, NewRK2(linalg.NewCDense(), nil), 4) }
func BenchmarkRK4(b *testing.B)  { benchIntegrator(b, NewRK4(linalg.NewCDense(), nil), 4) }
func BenchmarkRKN2(b *testing.B) { benchIntegrator(b, NewRKN2(linalg.NewCDense(), nil), 4) }
func BenchmarkRKN4(b *testing.B) { benchIntegrator(b, NewRKN4(linalg.NewCDense(), nil), 4) }
func BenchmarkSRK2(b *testing.B) { benchIntegrator(b, NewSRK2(linalg.NewCDense()), 4) }
func BenchmarkSV2(b *testing.B)  { benchIntegrator(b, NewSV2(linalg.NewCDense()), 4) }

func BenchmarkRK4_Dim16(b *testing.B)  { benchIntegrator(b, NewRK4(linalg.NewCDense(), nil), 16) }
func BenchmarkSRK2_Dim16(b *testing.B) { benchIntegrator(b, NewSRK2(linalg.NewCDense()), 16) }

func BenchmarkSV2_Split(b *testing.B) {
	be := linalg.NewSplit()
	integ := NewSV2(be)
	h, err := be.FromRows(mixed)
	if err != nil {
		b.Fatal(err)
	}
	u0 := be.Identity(2)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := integ.Step(0, 1, u0, 0.01, Constant(h)); err != nil {
			b.Fatal(err)
		}
	}
}
