// Package aggregates declares the write boundaries of the missions domain.
//
// Each aggregate owns one atomic unit of change: recording a quiz attempt
// together with its progression side effects, initializing a learner, and
// issuing a journey certificate. Implementations live in internal/data/aggregates.
package aggregates
