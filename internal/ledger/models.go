package ledger

import "time"

// RunStatus is the lifecycle state of a pipeline run.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"
	RunCanceled  RunStatus = "canceled"
)

// StageStatus is the outcome of one stage invocation.
type StageStatus string

const (
	StageSucceeded StageStatus = "succeeded"
	StageFailed    StageStatus = "failed"
)

// stderrTailLimit bounds the stderr bytes kept for a failed stage.
const stderrTailLimit = 4096

// Run is one invocation of the pipeline against an output directory.
type Run struct {
	ID           string
	ToolkitDir   string
	ImageDir     string
	OutputDir    string
	ImageCount   int
	Stages       string
	Status       RunStatus
	ErrorMessage string
	StartedAt    time.Time
	FinishedAt   *time.Time
}

// Duration reports how long the run took, or zero while it is still running.
func (r Run) Duration() time.Duration {
	if r.FinishedAt == nil || r.StartedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// StageRun is the recorded outcome of a single stage.
type StageRun struct {
	ID           int64
	RunID        string
	Stage        string
	CommandLine  string
	ExitCode     int
	Status       StageStatus
	Duration     time.Duration
	StderrTail   string
	ErrorMessage string
	RecordedAt   time.Time
}
