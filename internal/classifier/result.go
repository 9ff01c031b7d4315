package classifier

import (
	"encoding/json"

	"github.com/tphakala/pugmark/internal/species"
)

// UnknownID is the class id of the fallback result. It is never a registry id.
const UnknownID = "unknown"

// Kind tells a known-species result apart from the unknown fallback.
type Kind int

const (
	KindKnown Kind = iota
	KindUnknown
)

func (k Kind) String() string {
	if k == KindUnknown {
		return "unknown"
	}
	return "known"
}

// unknownRecord is the placeholder text shown for the fallback result.
var unknownRecord = species.Record{
	ID:                 UnknownID,
	Name:               "Another animal footprint",
	ScientificName:     "Unknown",
	ConservationStatus: "Unknown",
	Description:        "The uploaded footprint does not match tiger or elephant. It may belong to another animal.",
	Habitat:            "Unknown",
}

// Result is the outcome of one classification. Species is only set for
// KindKnown; Confidence is always the computed score.
type Result struct {
	Kind       Kind
	Species    species.Record
	Confidence float64
}

// Known reports whether the result names a registry species.
func (r Result) Known() bool {
	return r.Kind == KindKnown
}

// ClassID returns the species id, or UnknownID for the fallback.
func (r Result) ClassID() string {
	if r.Kind == KindUnknown {
		return UnknownID
	}
	return r.Species.ID
}

// Record returns the descriptive fields to display: the species record for
// known results and the fixed placeholder otherwise.
func (r Result) Record() species.Record {
	if r.Kind == KindUnknown {
		return unknownRecord
	}
	return r.Species
}

type resultJSON struct {
	ClassID            string  `json:"class_id"`
	Known              bool    `json:"known"`
	Name               string  `json:"name"`
	ScientificName     string  `json:"scientific_name"`
	ConservationStatus string  `json:"conservation_status"`
	Description        string  `json:"description"`
	Habitat            string  `json:"habitat"`
	Confidence         float64 `json:"confidence_percent"`
}

// MarshalJSON flattens the result for API clients.
func (r Result) MarshalJSON() ([]byte, error) {
	rec := r.Record()
	return json.Marshal(resultJSON{
		ClassID:            r.ClassID(),
		Known:              r.Known(),
		Name:               rec.Name,
		ScientificName:     rec.ScientificName,
		ConservationStatus: rec.ConservationStatus,
		Description:        rec.Description,
		Habitat:            rec.Habitat,
		Confidence:         r.Confidence,
	})
}
