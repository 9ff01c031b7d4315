// Package analysis runs the staged footprint analysis: a scanning progress
// ramp, a processing delay, then exactly one classification.
package analysis

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/tphakala/pugmark/internal/classifier"
	"github.com/tphakala/pugmark/internal/errors"
	"github.com/tphakala/pugmark/internal/logger"
	"github.com/tphakala/pugmark/internal/upload"
)

// Engine starts runs with shared timing, classifier and metrics.
type Engine struct {
	cfg        Config
	classifier classifier.Classifier
	recorder   Recorder
	observer   func(Snapshot)
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithRecorder reports run metrics to rec.
func WithRecorder(rec Recorder) EngineOption {
	return func(e *Engine) {
		if rec != nil {
			e.recorder = rec
		}
	}
}

// WithObserver calls fn synchronously, in order, with every snapshot of
// every run, from the run's goroutine. fn must not block.
func WithObserver(fn func(Snapshot)) EngineOption {
	return func(e *Engine) {
		e.observer = fn
	}
}

// NewEngine validates cfg and returns an engine.
func NewEngine(cfg Config, c classifier.Classifier, opts ...EngineOption) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if c == nil {
		return nil, configError("analysis engine requires a classifier")
	}

	e := &Engine{
		cfg:        cfg,
		classifier: c,
		recorder:   noopRecorder{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Config returns the engine timing.
func (e *Engine) Config() Config {
	return e.cfg
}

// Start creates a run at Scanning(0) and arms its timers. The run stops
// when ctx is cancelled.
func (e *Engine) Start(ctx context.Context, sessionID string, file *upload.File) (*Run, error) {
	if file == nil {
		return nil, errors.Newf("invalid upload: no file").
			Category(errors.CategoryValidation).
			Component("analysis").
			Build()
	}

	runCtx, cancel := context.WithCancel(ctx)
	id := uuid.NewString()

	r := &Run{
		id:          id,
		sessionID:   sessionID,
		file:        file,
		cfg:         e.cfg,
		classifier:  e.classifier,
		recorder:    e.recorder,
		observer:    e.observer,
		ctx:         runCtx,
		cancel:      cancel,
		done:        make(chan struct{}),
		stage:       StageScanning,
		subscribers: make(map[chan Snapshot]struct{}),
	}
	r.createdAt = time.Now()
	r.log = GetLogger().With(logger.String("run_id", id))
	if sessionID != "" {
		r.log = r.log.With(logger.String("session_id", sessionID))
	}

	e.recorder.RunStarted()
	r.log.Info("run created",
		logger.String("file_extension", file.Extension()),
		logger.Int64("file_size", file.Size))
	r.notify(r.Snapshot())

	go r.drive()
	return r, nil
}
