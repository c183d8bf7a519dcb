// Package runtime holds Config, the tunables shared across components.
// The process-wide snapshot state (the open-snapshot set, the snapshot
// id allocator, and the pinning heap) lives in snapshot.Registry, not
// here. Every component takes its configuration as plain constructor
// arguments, following the teacher
// repo's internal/env package — small, explicit, typed knobs, no
// framework magic.
package runtime

// Config is the small tunable surface named in spec.md §9. Each field's
// effect is localized to the component whose behavior it governs.
type Config struct {
	// SearchBudget bounds the linear scan window slottable.Start uses
	// before falling back to a scan of the rest of the table from the
	// cursor. Default 16.
	SearchBudget int

	// RotateWindow bounds how large a group-rescue rotation may be
	// before the slot table falls back to a full anchor rebuild.
	// Default 4096.
	RotateWindow int

	// MaxApplyRetries bounds how many compose-and-apply attempts a
	// frame makes, the first one included, before surfacing an
	// ApplyFailure to the host. Default 3.
	MaxApplyRetries int

	// EnableInspectorStrings turns on human-readable inspector metadata
	// on modifier elements (diagnostics only, never correctness-bearing).
	EnableInspectorStrings bool

	// ShrinkUpdateThresholdPct is the percentage a group's length must
	// shrink by, in slottable.End, before the header is rewritten (to
	// reduce anchor churn on minor shrinks). Default 10.
	ShrinkUpdateThresholdPct int
}

// DefaultConfig returns the defaults documented in spec.md §9.
func DefaultConfig() Config {
	return Config{
		SearchBudget:             16,
		RotateWindow:             4096,
		MaxApplyRetries:          3,
		EnableInspectorStrings:   false,
		ShrinkUpdateThresholdPct: 10,
	}
}
