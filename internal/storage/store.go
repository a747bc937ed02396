package storage

import (
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rs/xid"

	"github.com/san-kum/qevolve/internal/config"
	"github.com/san-kum/qevolve/internal/experiment"
	"github.com/san-kum/qevolve/internal/metrics"
)

var ErrRunNotFound = errors.New("storage: run not found")

const (
	metadataFile   = "metadata.json"
	trajectoryFile = "trajectory.csv"
	finalFile      = "final.csv"
)

// Store keeps one directory per run and a SQLite index over all of them.
type Store struct {
	baseDir string
	db      *sql.DB
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	if err := os.MkdirAll(s.baseDir, 0755); err != nil {
		return err
	}
	db, err := openIndex(filepath.Join(s.baseDir, indexFile))
	if err != nil {
		return err
	}
	s.db = db
	return nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

type RunMetadata struct {
	ID          string             `json:"id"`
	Timestamp   time.Time          `json:"timestamp"`
	Method      string             `json:"method"`
	Backend     string             `json:"backend"`
	Hamiltonian string             `json:"hamiltonian"`
	Params      map[string]float64 `json:"params,omitempty"`
	Dim         int                `json:"dim"`
	Seed        int64              `json:"seed"`
	T0          float64            `json:"t0"`
	Tf          float64            `json:"tf"`
	H           float64            `json:"h"`
	Steps       int                `json:"steps"`
	FinalTime   float64            `json:"final_time"`
	ElapsedMS   float64            `json:"elapsed_ms"`
	Metrics     map[string]float64 `json:"metrics"`
}

// Save writes a run directory and indexes it. On failure the partial
// directory is removed.
func (s *Store) Save(cfg *config.Config, res *experiment.Result) (_ string, err error) {
	if s.db == nil {
		return "", errors.New("storage: store not initialized")
	}

	id := xid.New().String()
	runDir := filepath.Join(s.baseDir, id)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}
	defer func() {
		if err != nil {
			os.RemoveAll(runDir)
		}
	}()

	meta := RunMetadata{
		ID:          id,
		Timestamp:   time.Now(),
		Method:      res.Method,
		Backend:     res.Backend,
		Hamiltonian: res.Hamiltonian,
		Params:      cfg.Params,
		Dim:         res.Dim,
		Seed:        cfg.Seed,
		T0:          cfg.T0,
		Tf:          cfg.Tf,
		H:           cfg.H,
		Steps:       res.Steps,
		FinalTime:   res.FinalTime,
		ElapsedMS:   float64(res.Elapsed.Microseconds()) / 1000,
		Metrics:     finiteOnly(res.Metrics),
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := writeTrajectory(filepath.Join(runDir, trajectoryFile), res.Samples); err != nil {
		return "", err
	}
	if err := writeMatrix(filepath.Join(runDir, finalFile), res.Final); err != nil {
		return "", err
	}
	if err := s.index(meta); err != nil {
		return "", err
	}
	return id, nil
}

// validIndex reports whether x is a whole number in [0, n). A d×d matrix has
// d*d records, so no index can reach n.
func validIndex(x float64, n int) bool {
	return x >= 0 && x < float64(n) && x == math.Trunc(x)
}

// finiteOnly drops NaN and ±Inf, which JSON cannot encode.
func finiteOnly(m map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		if finite(v) {
			out[k] = v
		}
	}
	return out
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func writeCSV(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	return f.Sync()
}

func writeTrajectory(path string, samples []metrics.Sample) error {
	rows := make([][]string, len(samples))
	for i, s := range samples {
		rows[i] = []string{
			strconv.Itoa(s.Step),
			formatFloat(s.Time),
			formatFloat(s.Norm2),
			formatFloat(s.Unitarity),
			formatFloat(s.Population),
		}
	}
	return writeCSV(path, []string{"step", "time", "norm2", "unitarity", "population"}, rows)
}

func writeMatrix(path string, m [][]complex128) error {
	var rows [][]string
	for i, row := range m {
		for j, v := range row {
			rows = append(rows, []string{
				strconv.Itoa(i),
				strconv.Itoa(j),
				formatFloat(real(v)),
				formatFloat(imag(v)),
			})
		}
	}
	return writeCSV(path, []string{"row", "col", "re", "im"}, rows)
}

func (s *Store) runPath(runID, name string) (string, error) {
	dir := filepath.Join(s.baseDir, runID)
	if filepath.Base(dir) != runID {
		return "", fmt.Errorf("%q: %w", runID, ErrRunNotFound)
	}
	if _, err := os.Stat(dir); err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%q: %w", runID, ErrRunNotFound)
		}
		return "", err
	}
	return filepath.Join(dir, name), nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	path, err := s.runPath(runID, metadataFile)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records[1:], nil
}

func parseFloats(record []string) ([]float64, error) {
	out := make([]float64, len(record))
	for i, field := range record {
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (s *Store) LoadTrajectory(runID string) ([]metrics.Sample, error) {
	path, err := s.runPath(runID, trajectoryFile)
	if err != nil {
		return nil, err
	}
	records, err := readCSV(path)
	if err != nil {
		return nil, err
	}

	samples := make([]metrics.Sample, 0, len(records))
	for line, record := range records {
		v, err := parseFloats(record)
		if err != nil || len(v) != 5 {
			return nil, fmt.Errorf("%s line %d: malformed record", trajectoryFile, line+2)
		}
		samples = append(samples, metrics.Sample{
			Step:       int(v[0]),
			Time:       v[1],
			Norm2:      v[2],
			Unitarity:  v[3],
			Population: v[4],
		})
	}
	return samples, nil
}

func (s *Store) LoadFinal(runID string) ([][]complex128, error) {
	path, err := s.runPath(runID, finalFile)
	if err != nil {
		return nil, err
	}
	records, err := readCSV(path)
	if err != nil {
		return nil, err
	}

	var m [][]complex128
	for line, record := range records {
		v, err := parseFloats(record)
		if err != nil || len(v) != 4 {
			return nil, fmt.Errorf("%s line %d: malformed record", finalFile, line+2)
		}
		if !validIndex(v[0], len(records)) || !validIndex(v[1], len(records)) {
			return nil, fmt.Errorf("%s line %d: malformed record", finalFile, line+2)
		}
		i, j := int(v[0]), int(v[1])
		for len(m) <= i {
			m = append(m, nil)
		}
		for len(m[i]) <= j {
			m[i] = append(m[i], 0)
		}
		m[i][j] = complex(v[2], v[3])
	}
	return m, nil
}
