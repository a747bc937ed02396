package storage

import (
	"encoding/json"
	"io"

	"github.com/san-kum/qevolve/internal/metrics"
)

type ExportData struct {
	RunMetadata
	Trajectory []metrics.Sample `json:"trajectory"`
	FinalRe    [][]float64      `json:"final_re"`
	FinalIm    [][]float64      `json:"final_im"`
}

// ExportJSON writes a stored run, trajectory and final matrix included, to w.
func (s *Store) ExportJSON(w io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	samples, err := s.LoadTrajectory(runID)
	if err != nil {
		return err
	}
	final, err := s.LoadFinal(runID)
	if err != nil {
		return err
	}

	data := ExportData{
		RunMetadata: *meta,
		Trajectory:  finiteSamples(samples),
		FinalRe:     make([][]float64, len(final)),
		FinalIm:     make([][]float64, len(final)),
	}
	for i, row := range final {
		data.FinalRe[i] = make([]float64, len(row))
		data.FinalIm[i] = make([]float64, len(row))
		for j, v := range row {
			data.FinalRe[i][j] = real(v)
			data.FinalIm[i][j] = imag(v)
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// finiteSamples keeps samples JSON can encode.
func finiteSamples(samples []metrics.Sample) []metrics.Sample {
	out := make([]metrics.Sample, 0, len(samples))
	for _, s := range samples {
		if finite(s.Time, s.Norm2, s.Unitarity, s.Population) {
			out = append(out, s)
		}
	}
	return out
}
