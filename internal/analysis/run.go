package analysis

import (
	"context"
	"sync"
	"time"

	"github.com/tphakala/pugmark/internal/classifier"
	"github.com/tphakala/pugmark/internal/logger"
	"github.com/tphakala/pugmark/internal/upload"
)

// subscriberBuffer is the per-subscriber snapshot backlog. Slow consumers
// lose intermediate progress but always get the terminal snapshot.
const subscriberBuffer = 16

// Snapshot is a point-in-time view of a run.
type Snapshot struct {
	RunID       string             `json:"run_id"`
	SessionID   string             `json:"session_id,omitempty"`
	FileName    string             `json:"file_name"`
	FileSize    int64              `json:"file_size"`
	Stage       Stage              `json:"stage"`
	Progress    int                `json:"progress"`
	Result      *classifier.Result `json:"result,omitempty"`
	Cancelled   bool               `json:"cancelled,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
	CompletedAt time.Time          `json:"completed_at,omitzero"`
}

// Terminal reports whether no further snapshots will follow.
func (s Snapshot) Terminal() bool {
	return s.Stage == StageComplete || s.Cancelled
}

// Run is one analysis of one file. A single goroutine drives it through
// its stages; Cancel stops that goroutine and waits for it to exit, so a
// cancelled run never changes state afterwards.
type Run struct {
	id         string
	sessionID  string
	file       *upload.File
	cfg        Config
	classifier classifier.Classifier
	recorder   Recorder
	observer   func(Snapshot)
	log        logger.Logger

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu          sync.Mutex
	stage       Stage
	progress    int
	result      *classifier.Result
	cancelled   bool
	createdAt   time.Time
	completedAt time.Time
	subscribers map[chan Snapshot]struct{}
}

// ID returns the run identifier.
func (r *Run) ID() string { return r.id }

// File returns the submitted file.
func (r *Run) File() *upload.File { return r.file }

// Done is closed once the run has completed or been cancelled.
func (r *Run) Done() <-chan struct{} { return r.done }

// Snapshot returns the current state.
func (r *Run) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

func (r *Run) snapshotLocked() Snapshot {
	return Snapshot{
		RunID:       r.id,
		SessionID:   r.sessionID,
		FileName:    r.file.Name,
		FileSize:    r.file.Size,
		Stage:       r.stage,
		Progress:    r.progress,
		Result:      r.result,
		Cancelled:   r.cancelled,
		CreatedAt:   r.createdAt,
		CompletedAt: r.completedAt,
	}
}

// Subscribe returns a channel that receives the current snapshot and then
// one snapshot per transition. The channel is closed after the terminal
// snapshot. Call the returned func to stop receiving early.
func (r *Run) Subscribe() (<-chan Snapshot, func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap := r.snapshotLocked()
	if snap.Terminal() {
		ch := make(chan Snapshot, 1)
		ch <- snap
		close(ch)
		return ch, func() {}
	}

	ch := make(chan Snapshot, subscriberBuffer)
	ch <- snap
	r.subscribers[ch] = struct{}{}

	return ch, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if _, ok := r.subscribers[ch]; ok {
			delete(r.subscribers, ch)
			close(ch)
		}
	}
}

// Wait blocks until the run ends or ctx is done and returns the last snapshot.
func (r *Run) Wait(ctx context.Context) (Snapshot, error) {
	select {
	case <-r.done:
		return r.Snapshot(), nil
	case <-ctx.Done():
		return r.Snapshot(), ctx.Err()
	}
}

// Cancel stops the run and waits until its goroutine has exited. Pending
// ticks and the processing delay are discarded. Cancelling a finished run
// is a no-op.
func (r *Run) Cancel() {
	r.cancel()
	<-r.done
}

// drive is the run goroutine: periodic ticks while scanning, then a single
// delay, then classification.
func (r *Run) drive() {
	defer close(r.done)
	defer r.cancel()

	scanStart := time.Now()
	ticker := time.NewTicker(r.cfg.TickInterval)
	for scanning := true; scanning; {
		select {
		case <-r.ctx.Done():
			ticker.Stop()
			r.abort()
			return
		case <-ticker.C:
			scanning = r.tick()
		}
	}
	ticker.Stop()
	r.recorder.StageFinished(StageScanning.String(), time.Since(scanStart))

	processStart := time.Now()
	delay := time.NewTimer(r.cfg.ProcessingDelay)
	select {
	case <-r.ctx.Done():
		delay.Stop()
		r.abort()
		return
	case <-delay.C:
	}

	r.complete(processStart)
}

// tick advances scanning progress. Progress is clamped at MaxProgress and
// the tick after reaching it moves the run to processing. Returns false
// once scanning is over.
func (r *Run) tick() bool {
	r.mu.Lock()
	if r.progress >= MaxProgress {
		r.stage = StageProcessing
		snap := r.publishLocked()
		r.mu.Unlock()
		r.log.Debug("run entered processing")
		r.notify(snap)
		return false
	}

	r.progress = min(r.progress+r.cfg.ProgressStep, MaxProgress)
	snap := r.publishLocked()
	r.mu.Unlock()

	r.log.Trace("scanning progress", logger.Int("progress", snap.Progress))
	r.notify(snap)
	return true
}

// complete classifies the file and enters the terminal stage. The
// cancellation check and the state change happen under one lock so a
// concurrent Cancel either wins fully or not at all.
func (r *Run) complete(processStart time.Time) {
	res := r.classifier.Classify(r.file.Name, r.file.Size)

	r.mu.Lock()
	if r.ctx.Err() != nil {
		r.mu.Unlock()
		r.abort()
		return
	}
	r.stage = StageComplete
	r.result = &res
	r.completedAt = time.Now()
	snap := r.finishLocked()
	r.mu.Unlock()

	r.recorder.StageFinished(StageProcessing.String(), time.Since(processStart))
	r.recorder.Classified(res.ClassID(), res.Confidence)
	r.recorder.RunFinished(OutcomeCompleted, snap.CompletedAt.Sub(snap.CreatedAt))

	r.log.Info("run completed",
		logger.String("class_id", res.ClassID()),
		logger.Float64("confidence", res.Confidence),
		logger.Duration("elapsed", snap.CompletedAt.Sub(snap.CreatedAt)))
	r.notify(snap)
}

func (r *Run) abort() {
	r.mu.Lock()
	r.cancelled = true
	snap := r.finishLocked()
	r.mu.Unlock()

	r.recorder.RunFinished(OutcomeCancelled, time.Since(snap.CreatedAt))
	r.log.Info("run cancelled",
		logger.String("stage", snap.Stage.String()),
		logger.Int("progress", snap.Progress))
	r.notify(snap)
}

// publishLocked fans the current snapshot out without blocking.
func (r *Run) publishLocked() Snapshot {
	snap := r.snapshotLocked()
	for ch := range r.subscribers {
		select {
		case ch <- snap:
		default:
		}
	}
	return snap
}

// finishLocked delivers the terminal snapshot to every subscriber, evicting
// the oldest buffered snapshot when needed, and closes their channels.
func (r *Run) finishLocked() Snapshot {
	snap := r.snapshotLocked()
	for ch := range r.subscribers {
		for delivered := false; !delivered; {
			select {
			case ch <- snap:
				delivered = true
			default:
				select {
				case <-ch:
				default:
				}
			}
		}
		close(ch)
	}
	clear(r.subscribers)
	return snap
}

func (r *Run) notify(snap Snapshot) {
	if r.observer != nil {
		r.observer(snap)
	}
}
