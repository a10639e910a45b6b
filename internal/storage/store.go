package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/fpfind/internal/finder"
	"github.com/san-kum/fpfind/internal/rnn"
)

// Store persists finder runs as one directory per run under a base data
// directory: metadata.json for the run summary, fixedpoints.json for the
// full records including Jacobians, and fixedpoints.csv as a flat table for
// downstream tooling.
type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID           string    `json:"id"`
	Architecture string    `json:"architecture"`
	Algorithm    string    `json:"algorithm"`
	Timestamp    time.Time `json:"timestamp"`
	Seed         int64     `json:"seed"`
	QThreshold   float64   `json:"q_threshold"`
	UniqueTol    float64   `json:"unique_tol"`
	NInits       int       `json:"n_inits"`
	NUnique      int       `json:"n_unique"`
}

// RecordJSON is the serialized form of a fixed-point record.
type RecordJSON struct {
	Q        float64     `json:"q"`
	X        []float64   `json:"x"`
	X0       []float64   `json:"x0"`
	Input    []float64   `json:"input"`
	Jacobian [][]float64 `json:"jacobian,omitempty"`
}

func toRecordJSON(fp finder.FixedPoint) RecordJSON {
	r := RecordJSON{Q: fp.Q, X: fp.X, X0: fp.X0, Input: fp.Input}
	if fp.Jacobian != nil {
		rows, cols := fp.Jacobian.Dims()
		r.Jacobian = make([][]float64, rows)
		for i := 0; i < rows; i++ {
			row := make([]float64, cols)
			for j := 0; j < cols; j++ {
				row[j] = fp.Jacobian.At(i, j)
			}
			r.Jacobian[i] = row
		}
	}
	return r
}

func fromRecordJSON(r RecordJSON) finder.FixedPoint {
	fp := finder.FixedPoint{Q: r.Q, X: r.X, X0: r.X0, Input: r.Input}
	if len(r.Jacobian) > 0 {
		rows := len(r.Jacobian)
		cols := len(r.Jacobian[0])
		j := mat.NewDense(rows, cols, nil)
		for i, row := range r.Jacobian {
			j.SetRow(i, row)
		}
		fp.Jacobian = j
	}
	return fp
}

// Save writes one run directory and returns the generated run ID.
func (s *Store) Save(meta RunMetadata, fps []finder.FixedPoint) (string, error) {
	runID := fmt.Sprintf("%s_%d", meta.Architecture, time.Now().Unix())
	runDir := filepath.Join(s.baseDir, runID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta.ID = runID
	meta.Timestamp = time.Now()
	meta.NUnique = len(fps)

	if err := writeJSON(filepath.Join(runDir, "metadata.json"), meta); err != nil {
		return "", err
	}

	records := make([]RecordJSON, len(fps))
	for i, fp := range fps {
		records[i] = toRecordJSON(fp)
	}
	if err := writeJSON(filepath.Join(runDir, "fixedpoints.json"), records); err != nil {
		return "", err
	}

	if err := writeCSV(filepath.Join(runDir, "fixedpoints.csv"), fps); err != nil {
		return "", err
	}

	return runID, nil
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

func writeCSV(path string, fps []finder.FixedPoint) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if len(fps) == 0 {
		return w.Write([]string{"q"})
	}

	header := []string{"q"}
	for i := range fps[0].X {
		header = append(header, fmt.Sprintf("x%d", i))
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, fp := range fps {
		row := []string{strconv.FormatFloat(fp.Q, 'e', 6, 64)}
		for _, v := range fp.X {
			row = append(row, strconv.FormatFloat(v, 'f', 8, 64))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// List returns the metadata of all stored runs, newest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.baseDir, entry.Name(), "metadata.json"))
		if err != nil {
			continue
		}
		var meta RunMetadata
		if err := json.Unmarshal(data, &meta); err != nil {
			continue
		}
		runs = append(runs, meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.After(runs[j].Timestamp) })
	return runs, nil
}

// Load reads one run's metadata.
func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}
	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadRecords reads back one run's fixed-point records.
func (s *Store) LoadRecords(runID string) ([]finder.FixedPoint, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "fixedpoints.json"))
	if err != nil {
		return nil, err
	}
	var records []RecordJSON
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	fps := make([]finder.FixedPoint, len(records))
	for i, r := range records {
		fps[i] = fromRecordJSON(r)
	}
	return fps, nil
}

// WeightsFile is the on-disk form of a trained recurrent layer, matching
// the list layout returned by Keras get_weights dumps.
type WeightsFile struct {
	Architecture string      `json:"architecture"`
	WIn          [][]float64 `json:"w_in"`
	WRec         [][]float64 `json:"w_rec"`
	Bias         []float64   `json:"bias"`
}

// LoadWeights reads a weights JSON file and constructs the validated
// WeightSet.
func LoadWeights(path string) (*rnn.WeightSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var wf WeightsFile
	if err := json.Unmarshal(data, &wf); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	arch, err := rnn.ParseArchitecture(wf.Architecture)
	if err != nil {
		return nil, err
	}
	return rnn.NewWeightSet(arch, wf.WIn, wf.WRec, wf.Bias)
}

// LoadMatrix reads a headerless CSV of float rows, the interchange format
// for recorded activations and input sequences.
func LoadMatrix(path string) ([][]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	rows := make([][]float64, 0, len(records))
	for i, record := range records {
		if len(record) == 0 {
			continue
		}
		row := make([]float64, len(record))
		for j, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("%s: row %d column %d: %w", path, i, j, err)
			}
			row[j] = v
		}
		rows = append(rows, row)
	}
	return rows, nil
}
