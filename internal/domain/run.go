package domain

import "time"

// Run statuses recorded in the history store.
const (
	RunCommitted  = "committed"
	RunRolledBack = "rolled_back"
	RunError      = "error"
)

// RunLog is a historical record of one ingestion run.
type RunLog struct {
	ID            string    `json:"id"`
	FilePath      string    `json:"filePath"`
	DryRun        bool      `json:"dryRun"`
	StartedAt     time.Time `json:"startedAt"`
	FinishedAt    time.Time `json:"finishedAt"`
	Status        string    `json:"status"`
	Processed     int       `json:"processed"`
	Malformed     int       `json:"malformed"`
	Recovered     int       `json:"recovered"`
	Unrecoverable int       `json:"unrecoverable"`
	RuleExcluded  int       `json:"ruleExcluded"`
	Inserted      int       `json:"inserted"`
	Duplicate     int       `json:"duplicate"`
	InsertFailed  int       `json:"insertFailed"`
	Error         string    `json:"error,omitempty"`
}

// RunLogStore persists run history.
type RunLogStore interface {
	CreateRun(r *RunLog) error
	ListRuns(limit int) ([]RunLog, error)
}
