// Package classifier turns file metadata into a species classification.
//
// No image content is inspected. A name gate, a hashed class selector and a
// deterministic score stand in for a model behind the Classifier interface,
// so a real inference backend can replace Policy without touching callers.
package classifier

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/tphakala/pugmark/internal/errors"
	"github.com/tphakala/pugmark/internal/logger"
	"github.com/tphakala/pugmark/internal/species"
)

// DefaultThreshold is the minimum confidence for a known-species result.
const DefaultThreshold = 70.0

// GetLogger returns the classifier package logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("classifier")
}

// Classifier maps file metadata to a result. Implementations must be
// deterministic and safe for concurrent use.
type Classifier interface {
	Classify(fileName string, fileSize int64) Result
}

// Policy is the heuristic Classifier.
type Policy struct {
	registry  *species.Registry
	threshold float64
	score     ScoreFunc
}

// Option configures a Policy.
type Option func(*Policy)

// WithThreshold overrides DefaultThreshold.
func WithThreshold(threshold float64) Option {
	return func(p *Policy) {
		p.threshold = threshold
	}
}

// WithScoreFunc replaces Score. Used to exercise the threshold rule, which
// the built-in score range never reaches.
func WithScoreFunc(fn ScoreFunc) Option {
	return func(p *Policy) {
		if fn != nil {
			p.score = fn
		}
	}
}

// NewPolicy creates a policy over reg. A nil or empty registry is a
// configuration error.
func NewPolicy(reg *species.Registry, opts ...Option) (*Policy, error) {
	if reg == nil || reg.Len() == 0 {
		return nil, errors.New(errors.NewStd("classification policy requires a non-empty species registry")).
			Category(errors.CategoryConfiguration).
			Priority(errors.PriorityCritical).
			Build()
	}

	p := &Policy{
		registry:  reg,
		threshold: DefaultThreshold,
		score:     Score,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Threshold returns the configured confidence threshold.
func (p *Policy) Threshold() float64 {
	return p.threshold
}

// Registry returns the species registry the policy selects from.
func (p *Policy) Registry() *species.Registry {
	return p.registry
}

// Classify applies the name gate, class selection, scoring and threshold.
// It is total: every input yields a result.
func (p *Policy) Classify(fileName string, fileSize int64) Result {
	forceUnknown := forcedUnknown(fileName)
	index := ClassIndex(fileName, fileSize, p.registry.Len())
	confidence := p.score(fileName, fileSize)

	log := GetLogger()

	if forceUnknown || confidence < p.threshold {
		log.Debug("classified as unknown",
			logger.Bool("name_gate", forceUnknown),
			logger.Float64("confidence", confidence),
			logger.Float64("threshold", p.threshold))
		return Result{Kind: KindUnknown, Confidence: confidence}
	}

	id := p.registry.At(index).ID
	rec, err := p.registry.Lookup(id)
	if err != nil {
		// index is always within the registry
		panic(fmt.Sprintf("classifier: registry lookup of own id %q failed: %v", id, err))
	}

	log.Debug("classified as known species",
		logger.String("class_id", rec.ID),
		logger.Int("class_index", index),
		logger.Float64("confidence", confidence))

	return Result{Kind: KindKnown, Species: rec, Confidence: confidence}
}

// forcedUnknown reports whether the name routes straight to the fallback:
// it mentions "dog" or "other", or mentions neither "tiger" nor "elephant".
// All three conditions are kept since dropping any changes results.
func forcedUnknown(fileName string) bool {
	name := cases.Lower(language.Und).String(fileName)
	return strings.Contains(name, "dog") ||
		strings.Contains(name, "other") ||
		(!strings.Contains(name, "tiger") && !strings.Contains(name, "elephant"))
}
