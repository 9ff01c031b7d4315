// Package metrics provides the Prometheus collectors for pugmark.
package metrics

import "time"

// Histogram bucket parameters.
const (
	// BucketStart1ms is the starting bucket for 1ms histograms.
	BucketStart1ms = 0.001
	// BucketStart10ms is the starting bucket for 10ms histograms (10ms to ~40s range).
	BucketStart10ms = 0.01
	BucketFactor2   = 2
	BucketCount12   = 12
	BucketCount13   = 13
)

// Confidence histogram buckets span 70 to 100 in 2.5 point steps.
const (
	ConfidenceBucketStart = 70.0
	ConfidenceBucketWidth = 2.5
	ConfidenceBucketCount = 13
)

// ShutdownTimeout bounds the metrics endpoint shutdown.
const ShutdownTimeout = 5 * time.Second
