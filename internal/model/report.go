package model

import "time"

// RunReport is the persisted result of one profiling run.
type RunReport struct {
	ID         string         `yaml:"id"`
	Root       Path           `yaml:"root"`
	Command    []string       `yaml:"command"`
	StartedAt  time.Time      `yaml:"started_at"`
	FinishedAt time.Time      `yaml:"finished_at"`
	ExitCode   int            `yaml:"exit_code"`
	Changes    []ChangeRecord `yaml:"changes"`
}

// Counts returns the number of created and modified files in the report.
func (r RunReport) Counts() (created, modified int) {
	for _, change := range r.Changes {
		switch change.Kind {
		case ChangeCreated:
			created++
		case ChangeModified:
			modified++
		}
	}

	return created, modified
}

// RunSummary is the compact per-run row kept in the history database.
type RunSummary struct {
	ID         string
	Root       Path
	Command    string
	StartedAt  time.Time
	FinishedAt time.Time
	ExitCode   int
	Created    int
	Modified   int
}
