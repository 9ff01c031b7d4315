package analysis

import "fmt"

// Stage is a phase of a run. Stages only move forward:
// Scanning, then Processing, then Complete.
type Stage int

const (
	StageScanning Stage = iota
	StageProcessing
	StageComplete
)

var stageNames = [...]string{
	StageScanning:   "scanning",
	StageProcessing: "processing",
	StageComplete:   "complete",
}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return fmt.Sprintf("stage(%d)", int(s))
	}
	return stageNames[s]
}

// MarshalText renders the stage name in JSON and logs.
func (s Stage) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Outcome labels how a run ended.
const (
	OutcomeCompleted = "completed"
	OutcomeCancelled = "cancelled"
)
