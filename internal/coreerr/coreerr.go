// Package coreerr defines the error taxonomy shared by the snapshot,
// slot table, and scheduler packages.
//
// Recoverable errors (ApplyFailure, ScopeRecomposeFailure, AttachFailure)
// are values returned to callers. Invariant violations
// (SlotTableInvariantViolation, StateRecordLookupFailure) indicate chain
// or buffer corruption and are raised as panics — callers at the
// scheduler boundary are expected to let them propagate and tear down
// the composition.
package coreerr

import "fmt"

// ApplyFailure reports that a mutable snapshot's apply could not resolve
// conflicts for the listed object IDs. The snapshot remains un-applied;
// the caller should dispose it and retake.
type ApplyFailure struct {
	Conflicts []uint64
}

func (e *ApplyFailure) Error() string {
	return fmt.Sprintf("apply failed: %d unresolved conflict(s)", len(e.Conflicts))
}

// ScopeRecomposeFailure wraps a panic caught while recomposing a scope.
type ScopeRecomposeFailure struct {
	Scope uint64
	Cause error
}

func (e *ScopeRecomposeFailure) Error() string {
	return fmt.Sprintf("scope %d recompose failed: %v", e.Scope, e.Cause)
}

func (e *ScopeRecomposeFailure) Unwrap() error { return e.Cause }

// SlotTableInvariantViolation indicates the slot table's structural
// invariants were broken (unbalanced start/end, stale anchor, group
// length mismatch). This is a programming error; the implementation
// asserts and fails fast rather than returning it as a value.
type SlotTableInvariantViolation struct {
	Msg string
}

func (e *SlotTableInvariantViolation) Error() string {
	return "slot table invariant violation: " + e.Msg
}

// Panic raises a SlotTableInvariantViolation.
func (e *SlotTableInvariantViolation) Panic() {
	panic(e)
}

// StateRecordLookupFailure indicates no readable record exists for a
// given snapshot — a fatal invariant breach indicating chain corruption.
type StateRecordLookupFailure struct {
	ObjectID uint64
}

func (e *StateRecordLookupFailure) Error() string {
	return fmt.Sprintf("no readable record for object %d", e.ObjectID)
}

// AttachFailure reports that a modifier node's attach callback failed
// (e.g. a focus node attached without a parent focus tree). Surfaced as
// a Semantics invalidation by the caller, never fatal.
type AttachFailure struct {
	NodeKind string
	Cause    error
}

func (e *AttachFailure) Error() string {
	return fmt.Sprintf("attach failed for %s: %v", e.NodeKind, e.Cause)
}

func (e *AttachFailure) Unwrap() error { return e.Cause }
