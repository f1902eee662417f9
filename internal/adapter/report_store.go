package adapter

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	m "buildtrace.dev/pkg/buildtrace/internal/model"
)

const (
	latestReportName = "latest.yaml"
	reportDirPerm    = 0o750
	reportFilePerm   = 0o640
)

// ReportStore persists run reports in the reports directory.
type ReportStore interface {
	// SaveReport writes the report as run-<id>.yaml and updates latest.yaml.
	SaveReport(dir m.Path, report m.RunReport) error

	// LoadLatest reads the most recently saved report.
	LoadLatest(dir m.Path) (m.RunReport, error)

	// ExportCSV writes the report's changes as run-<id>.csv.
	ExportCSV(dir m.Path, report m.RunReport) (m.Path, error)
}

// YAMLReportStore stores reports as YAML files on disk.
type YAMLReportStore struct{}

// NewReportStore constructs the default on-disk report store.
func NewReportStore() *YAMLReportStore {
	return &YAMLReportStore{}
}

// SaveReport writes the report under dir, creating it when missing.
func (s *YAMLReportStore) SaveReport(dir m.Path, report m.RunReport) error {
	if err := os.MkdirAll(string(dir), reportDirPerm); err != nil {
		return fmt.Errorf("create reports directory: %w", err)
	}

	data, err := yaml.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report %s: %w", report.ID, err)
	}

	runPath := filepath.Join(string(dir), "run-"+report.ID+".yaml")
	if err := os.WriteFile(runPath, data, reportFilePerm); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	latestPath := filepath.Join(string(dir), latestReportName)
	if err := os.WriteFile(latestPath, data, reportFilePerm); err != nil {
		return fmt.Errorf("write latest report: %w", err)
	}

	return nil
}

// LoadLatest reads latest.yaml from dir.
func (s *YAMLReportStore) LoadLatest(dir m.Path) (m.RunReport, error) {
	data, err := os.ReadFile(filepath.Join(string(dir), latestReportName))
	if err != nil {
		return m.RunReport{}, fmt.Errorf("read latest report: %w", err)
	}

	var report m.RunReport
	if err := yaml.Unmarshal(data, &report); err != nil {
		return m.RunReport{}, fmt.Errorf("parse latest report: %w", err)
	}

	return report, nil
}

// ExportCSV writes the change list as a two-column CSV file next to the
// YAML report and returns its path.
func (s *YAMLReportStore) ExportCSV(dir m.Path, report m.RunReport) (m.Path, error) {
	if err := os.MkdirAll(string(dir), reportDirPerm); err != nil {
		return "", fmt.Errorf("create reports directory: %w", err)
	}

	csvPath := filepath.Join(string(dir), "run-"+report.ID+".csv")

	f, err := os.OpenFile(csvPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, reportFilePerm)
	if err != nil {
		return "", fmt.Errorf("create csv export: %w", err)
	}

	defer func() { _ = f.Close() }()

	if err := WriteChangesCSV(f, report.Changes); err != nil {
		return "", err
	}

	return m.Path(csvPath), nil
}

// WriteChangesCSV serializes change records as `filepath,last_modification_timestamp`
// rows. The csv writer quotes fields containing delimiters.
func WriteChangesCSV(w io.Writer, changes []m.ChangeRecord) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"filepath", "last_modification_timestamp"}); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, change := range changes {
		row := []string{string(change.Path), strconv.FormatInt(change.MTime, 10)}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row for %s: %w", change.Path, err)
		}
	}

	cw.Flush()

	return cw.Error()
}
