// Package diag holds verbose-dump tooling that never participates in
// composition correctness (spec.md §6: "A variable that enables
// verbose chain dumps; names not contractual"). It is a pure sink:
// nothing in internal/composer, internal/scheduler, or
// internal/modifiernode imports it back.
//
// Grounded on the teacher's transitive go-spew dependency (pulled in
// indirectly through its own tooling but never called directly) —
// this package is where that library gets a real, direct caller:
// pretty-printing slot table and modifier chain state for a human
// staring at a terminal.
package diag

import (
	"os"

	"github.com/davecgh/go-spew/spew"

	"github.com/samoylenkodmitry/compose-runtime/internal/modifiernode"
	"github.com/samoylenkodmitry/compose-runtime/internal/slottable"
)

// VerboseEnvVar is the toggle spec.md §6 calls for. Set to any
// non-empty value to enable DumpTable / DumpChain output.
const VerboseEnvVar = "COMPOSE_VERBOSE_DUMPS"

// Enabled reports whether verbose dumps are switched on for this
// process. Checked fresh on every call rather than cached, so tests
// can toggle it with t.Setenv.
func Enabled() bool {
	return os.Getenv(VerboseEnvVar) != ""
}

var dumpConfig = &spew.ConfigState{
	Indent:                  "  ",
	DisableMethods:          true,
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

// DumpTable renders t's slots (cursor, anchors, groups, values) for a
// human to read. Returns "" when verbose dumps are disabled, so
// callers can pass the result straight to a logger field without
// guarding every call site.
func DumpTable(t *slottable.Table) string {
	if !Enabled() || t == nil {
		return ""
	}
	rows := make([]slottable.Slot, t.Len())
	for i := range rows {
		rows[i] = t.SlotAt(i)
	}
	return dumpConfig.Sdump(struct {
		Cursor int
		Slots  []slottable.Slot
	}{Cursor: t.Cursor(), Slots: rows})
}

// DumpChain renders chain's reconciled entries (reused node identity
// across reconciliations isn't otherwise observable from outside the
// package, which is exactly what makes this worth dumping).
func DumpChain(chain *modifiernode.Chain) string {
	if !Enabled() || chain == nil {
		return ""
	}
	return dumpConfig.Sdump(chain)
}
