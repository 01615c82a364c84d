package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/twobody/internal/dynamo"
)

const (
	metadataFile   = "metadata.json"
	trajectoryFile = "trajectory.csv"
)

var trajectoryHeader = []string{"step", "time", "x1", "y1", "x2", "y2"}

// Store keeps finished headless runs, one directory per run.
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
	ID                    string             `json:"id"`
	Preset                string             `json:"preset"`
	Timestamp             time.Time          `json:"timestamp"`
	Algorithm             string             `json:"algorithm"`
	Dt                    float64            `json:"dt"`
	Steps                 int64              `json:"steps"`
	Decimation            int                `json:"decimation"`
	Alpha                 float64            `json:"alpha"`
	GravitationalConstant float64            `json:"gravitational_constant"`
	PrimaryMass           float64            `json:"primary_mass"`
	SecondaryMass         float64            `json:"secondary_mass"`
	Metrics               map[string]float64 `json:"metrics"`
}

// Sample is one recorded row of a trajectory.
type Sample struct {
	Step      int64
	Time      float64
	Primary   dynamo.Vec2
	Secondary dynamo.Vec2
}

// Save writes meta and the trajectory under a new run directory and returns
// the run id. ID and Timestamp of meta are filled in.
func (s *Store) Save(meta RunMetadata, traj []Sample) (string, error) {
	name := meta.Preset
	if name == "" {
		name = "custom"
	}
	now := time.Now()
	meta.ID = fmt.Sprintf("%s_%d", name, now.UnixNano())
	meta.Timestamp = now
	meta.Metrics = finite(meta.Metrics)

	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	if err := writeFile(filepath.Join(runDir, metadataFile), func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(meta)
	}); err != nil {
		return "", fmt.Errorf("write metadata: %w", err)
	}

	if err := writeFile(filepath.Join(runDir, trajectoryFile), func(w io.Writer) error {
		return WriteCSV(w, traj)
	}); err != nil {
		return "", fmt.Errorf("write trajectory: %w", err)
	}

	return meta.ID, nil
}

// finite drops values JSON cannot encode.
func finite(m map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out[k] = v
		}
	}
	return out
}

func writeFile(path string, fn func(w io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WriteCSV writes a trajectory with a header row. Values keep full
// precision.
func WriteCSV(w io.Writer, traj []Sample) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(trajectoryHeader); err != nil {
		return err
	}

	for _, s := range traj {
		row := []string{
			strconv.FormatInt(s.Step, 10),
			formatFloat(s.Time),
			formatFloat(s.Primary.X),
			formatFloat(s.Primary.Y),
			formatFloat(s.Secondary.X),
			formatFloat(s.Secondary.Y),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// List returns the metadata of every stored run, oldest first. Directories
// without readable metadata are skipped.
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
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("parse metadata of %s: %w", runID, err)
	}
	return &meta, nil
}

func (s *Store) LoadTrajectory(runID string) ([]Sample, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, trajectoryFile))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadCSV(f)
}

// ReadCSV parses a trajectory written by WriteCSV.
func ReadCSV(r io.Reader) ([]Sample, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(trajectoryHeader)

	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, errors.New("trajectory: missing header")
	}

	traj := make([]Sample, 0, len(records)-1)
	for i, record := range records[1:] {
		step, err := strconv.ParseInt(record[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("trajectory row %d: %w", i+1, err)
		}

		var vals [5]float64
		for j := range vals {
			vals[j], err = strconv.ParseFloat(record[j+1], 64)
			if err != nil {
				return nil, fmt.Errorf("trajectory row %d: %w", i+1, err)
			}
		}

		traj = append(traj, Sample{
			Step:      step,
			Time:      vals[0],
			Primary:   dynamo.Vec2{X: vals[1], Y: vals[2]},
			Secondary: dynamo.Vec2{X: vals[3], Y: vals[4]},
		})
	}
	return traj, nil
}

// Positions splits a trajectory into per-body paths and sample times.
func Positions(traj []Sample) (primary, secondary []dynamo.Vec2, times []float64) {
	primary = make([]dynamo.Vec2, len(traj))
	secondary = make([]dynamo.Vec2, len(traj))
	times = make([]float64, len(traj))
	for i, s := range traj {
		primary[i] = s.Primary
		secondary[i] = s.Secondary
		times[i] = s.Time
	}
	return primary, secondary, times
}
