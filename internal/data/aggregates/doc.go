// Package aggregates implements the domain write boundaries on gorm.
//
// Each aggregate composes table repos from internal/data/repos and owns the
// transaction for the writes whose invariants must hold together.
package aggregates
