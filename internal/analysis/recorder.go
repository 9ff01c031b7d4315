package analysis

import "time"

// Recorder receives run lifecycle measurements. The Prometheus collectors in
// observability/metrics implement it.
type Recorder interface {
	RunStarted()
	RunFinished(outcome string, elapsed time.Duration)
	StageFinished(stage string, elapsed time.Duration)
	Classified(classID string, confidence float64)
}

type noopRecorder struct{}

func (noopRecorder) RunStarted()                          {}
func (noopRecorder) RunFinished(string, time.Duration)    {}
func (noopRecorder) StageFinished(string, time.Duration)  {}
func (noopRecorder) Classified(string, float64)           {}
