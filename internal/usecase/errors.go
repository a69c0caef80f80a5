package usecase

import "errors"

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("resource not found")
	// ErrAlreadyMaterialized signals a force=false materialize hit an
	// existing snapshot. Callers treat it as success.
	ErrAlreadyMaterialized = errors.New("snapshot already materialized")
	// ErrInconsistentRollup is raised when an incrementally folded running
	// total disagrees with a from-scratch rebuild. Never silently corrected.
	ErrInconsistentRollup = errors.New("rollup totals diverge from score card history")
)
