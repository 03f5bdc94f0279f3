// Package storage persists evaluated runs on disk: a metadata.json per run
// plus CSV files for the fields and both boundary curves.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/san-kum/rockweather/internal/boundary"
	"github.com/san-kum/rockweather/internal/config"
	"github.com/san-kum/rockweather/internal/dynamo"
	"github.com/san-kum/rockweather/internal/grid"
	"github.com/san-kum/rockweather/internal/model"
	"gonum.org/v1/gonum/mat"
)

const (
	metadataFile = "metadata.json"
	fieldsFile   = "fields.csv"
	washoutFile  = "washout.csv"
	ridgeFile    = "ridge.csv"
)

var ErrRunNotFound = errors.New("storage: run not found")

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	if err := os.MkdirAll(s.baseDir, 0755); err != nil {
		return &dynamo.IOError{Path: s.baseDir, Wrapped: err}
	}
	return nil
}

type RunMetadata struct {
	ID            string            `json:"id"`
	Oracle        string            `json:"oracle"`
	Timestamp     time.Time         `json:"timestamp"`
	Params        config.Params     `json:"params"`
	Grid          config.GridConfig `json:"grid"`
	ElapsedSec    float64           `json:"elapsed_sec"`
	WashoutPoints int               `json:"washout_points"`
	RidgePoints   int               `json:"ridge_points"`
	Figures       []string          `json:"figures,omitempty"`
}

// Run is one evaluated grid ready to persist.
type Run struct {
	Oracle  string
	Params  config.Params
	GridCfg config.GridConfig
	Grid    *grid.Grid
	Fields  *model.Fields
	Partial *mat.Dense
	Washout boundary.Curve
	Ridge   boundary.Curve
	Elapsed time.Duration
	Figures []string
}

func (s *Store) Save(run *Run) (string, error) {
	if run.Grid == nil || run.Fields == nil {
		return "", &dynamo.InvalidInputError{Param: "run", Reason: "missing grid or fields"}
	}
	if err := model.CheckFields(run.Grid, run.Fields); err != nil {
		return "", err
	}

	runID := fmt.Sprintf("%s_%d_%s", run.Oracle, time.Now().Unix(), uuid.New().String()[:8])
	runDir := filepath.Join(s.baseDir, runID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", &dynamo.IOError{Path: runDir, Wrapped: err}
	}

	meta := RunMetadata{
		ID:            runID,
		Oracle:        run.Oracle,
		Timestamp:     time.Now(),
		Params:        run.Params,
		Grid:          run.GridCfg,
		ElapsedSec:    run.Elapsed.Seconds(),
		WashoutPoints: run.Washout.Len(),
		RidgePoints:   run.Ridge.Len(),
		Figures:       run.Figures,
	}

	err := writeFile(filepath.Join(runDir, metadataFile), func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(meta)
	})
	if err != nil {
		return "", err
	}

	err = writeFile(filepath.Join(runDir, fieldsFile), func(w io.Writer) error {
		return WriteFieldsCSV(w, run.Grid, run.Fields, run.Partial)
	})
	if err != nil {
		return "", err
	}

	for name, c := range map[string]boundary.Curve{washoutFile: run.Washout, ridgeFile: run.Ridge} {
		c := c
		if err := writeFile(filepath.Join(runDir, name), func(w io.Writer) error { return writeCurveCSV(w, c) }); err != nil {
			return "", err
		}
	}

	return runID, nil
}

func writeFile(path string, fn func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return &dynamo.IOError{Path: path, Wrapped: err}
	}
	if err := fn(f); err != nil {
		f.Close()
		return &dynamo.IOError{Path: path, Wrapped: err}
	}
	if err := f.Close(); err != nil {
		return &dynamo.IOError{Path: path, Wrapped: err}
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// WriteFieldsCSV writes one record per grid point in storage order. The
// mixed_partial column is omitted when partial is nil.
func WriteFieldsCSV(w io.Writer, g *grid.Grid, f *model.Fields, partial *mat.Dense) error {
	cw := csv.NewWriter(w)

	header := []string{"row", "col", "d", "m", "iron", "glucose", "siderophore", "cell"}
	if partial != nil {
		header = append(header, "mixed_partial")
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	rows, cols := g.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			d, m := g.At(i, j)
			record := []string{
				strconv.Itoa(i), strconv.Itoa(j),
				formatFloat(d), formatFloat(m),
				formatFloat(f.Iron.At(i, j)),
				formatFloat(f.Glucose.At(i, j)),
				formatFloat(f.Siderophore.At(i, j)),
				formatFloat(f.Cell.At(i, j)),
			}
			if partial != nil {
				record = append(record, formatFloat(partial.At(i, j)))
			}
			if err := cw.Write(record); err != nil {
				return err
			}
		}
	}

	cw.Flush()
	return cw.Error()
}

func writeCurveCSV(w io.Writer, c boundary.Curve) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"d", "m"}); err != nil {
		return err
	}
	for _, p := range c.Points {
		if err := cw.Write([]string{formatFloat(p.D), formatFloat(p.M)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// List returns every readable run, oldest first.
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

		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", runID, ErrRunNotFound)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("parse metadata for %s: %w", runID, err)
	}
	return &meta, nil
}

// LoadCurves reads back the washout and ridge curves of a run.
func (s *Store) LoadCurves(runID string) (washout, ridge boundary.Curve, err error) {
	washout, err = s.loadCurve(runID, washoutFile, "washout")
	if err != nil {
		return boundary.Curve{}, boundary.Curve{}, err
	}
	ridge, err = s.loadCurve(runID, ridgeFile, "ridge")
	if err != nil {
		return boundary.Curve{}, boundary.Curve{}, err
	}
	return washout, ridge, nil
}

func (s *Store) loadCurve(runID, file, name string) (boundary.Curve, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, file))
	if err != nil {
		if os.IsNotExist(err) {
			return boundary.Curve{}, fmt.Errorf("%s/%s: %w", runID, file, ErrRunNotFound)
		}
		return boundary.Curve{}, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return boundary.Curve{}, fmt.Errorf("read %s: %w", file, err)
	}

	curve := boundary.Curve{Name: name}
	for i := 1; i < len(records); i++ {
		d, err := strconv.ParseFloat(records[i][0], 64)
		if err != nil {
			return boundary.Curve{}, fmt.Errorf("%s line %d: %w", file, i+1, err)
		}
		m, err := strconv.ParseFloat(records[i][1], 64)
		if err != nil {
			return boundary.Curve{}, fmt.Errorf("%s line %d: %w", file, i+1, err)
		}
		curve.Points = append(curve.Points, boundary.Point{D: d, M: m})
	}
	return curve, nil
}

// ExportFields copies a run's fields CSV to w.
func (s *Store) ExportFields(runID string, w io.Writer) error {
	f, err := os.Open(filepath.Join(s.baseDir, runID, fieldsFile))
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%s: %w", runID, ErrRunNotFound)
		}
		return err
	}
	defer f.Close()

	_, err = io.Copy(w, f)
	return err
}
