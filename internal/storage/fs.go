package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// FSStore keeps one directory per run: metadata.json plus one CSV per
// probe series.
type FSStore struct {
	baseDir string
}

func NewFSStore(baseDir string) *FSStore {
	return &FSStore{baseDir: baseDir}
}

func (s *FSStore) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *FSStore) Close() error { return nil }

// fsMetadata is what metadata.json holds: the run metadata plus each
// probe's sampling period, which the CSV files cannot carry.
type fsMetadata struct {
	RunMetadata
	Periods map[string]float64 `json:"probe_periods"`
}

func (s *FSStore) Save(run *Run) error {
	runDir := filepath.Join(s.baseDir, run.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return err
	}

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return err
	}
	defer metaFile.Close()

	meta := fsMetadata{RunMetadata: run.RunMetadata, Periods: make(map[string]float64)}
	for _, ps := range run.Probes {
		meta.Periods[ps.Name] = ps.SampleEvery
	}

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return err
	}

	for _, ps := range run.Probes {
		if err := s.writeSeries(runDir, ps); err != nil {
			return err
		}
	}
	return nil
}

func (s *FSStore) writeSeries(runDir string, ps ProbeSeries) error {
	f, err := os.Create(filepath.Join(runDir, ps.Name+".csv"))
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	dims := 0
	if len(ps.Samples) > 0 {
		dims = len(ps.Samples[0])
	}
	header := []string{"time"}
	for i := 0; i < dims; i++ {
		header = append(header, fmt.Sprintf("x%d", i))
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for i, row := range ps.Samples {
		rec := make([]string, 0, 1+dims)
		t := 0.0
		if i < len(ps.Times) {
			t = ps.Times[i]
		}
		rec = append(rec, strconv.FormatFloat(t, 'f', 6, 64))
		for _, v := range row {
			rec = append(rec, strconv.FormatFloat(v, 'g', -1, 64))
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	return nil
}

func (s *FSStore) List() ([]RunMetadata, error) {
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
	return runs, nil
}

func (s *FSStore) Load(id string) (*Run, error) {
	runDir := filepath.Join(s.baseDir, id)
	data, err := os.ReadFile(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", id, err)
	}
	var meta fsMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	run := &Run{RunMetadata: meta.RunMetadata}

	entries, err := os.ReadDir(runDir)
	if err != nil {
		return nil, err
	}
	for _, entry := range entries {
		name := entry.Name()
		if filepath.Ext(name) != ".csv" {
			continue
		}
		ps, err := s.readSeries(filepath.Join(runDir, name))
		if err != nil {
			return nil, err
		}
		ps.Name = name[:len(name)-len(".csv")]
		ps.SampleEvery = meta.Periods[ps.Name]
		run.Probes = append(run.Probes, ps)
	}
	return run, nil
}

func (s *FSStore) readSeries(path string) (ProbeSeries, error) {
	var ps ProbeSeries
	f, err := os.Open(path)
	if err != nil {
		return ps, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return ps, err
	}
	for i, rec := range records {
		if i == 0 || len(rec) < 1 {
			continue
		}
		t, err := strconv.ParseFloat(rec[0], 64)
		if err != nil {
			return ps, err
		}
		row := make([]float64, len(rec)-1)
		for j, field := range rec[1:] {
			if row[j], err = strconv.ParseFloat(field, 64); err != nil {
				return ps, err
			}
		}
		ps.Times = append(ps.Times, t)
		ps.Samples = append(ps.Samples, row)
	}
	return ps, nil
}
