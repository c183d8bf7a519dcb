// Package modifierapi is the public, composable-facing Modifier
// surface spec.md §6 describes: "A Modifier: an immutable, ordered
// chain... constructed via then; built-in element factories." Every
// type and function here is a thin re-export of internal/modifier —
// this package carries no behavior of its own — so that code outside
// this module's internal tree (a future widget library, spec.md §1's
// explicit non-goal for this repo) can build and compose modifiers
// without importing internal/modifier directly, the same separation
// the teacher draws between its pkg/models/channelmodel (public DTO
// shape) and internal/service (the logic that acts on it).
//
// Type aliases, not wrapper types: a Modifier built through this
// package and one built inside internal/modifier for internal/scheduler
// tests are the same value, so a composable can hand its Modifier
// straight to internal/composer.SetNodeModifier without a conversion
// step at the boundary.
package modifierapi

import "github.com/samoylenkodmitry/compose-runtime/internal/modifier"

// Modifier is the persistent, immutable chain of modifier elements.
// Empty is its zero value; use Then to extend it.
type Modifier = modifier.Modifier

// Empty is the identity modifier.
var Empty = modifier.Empty

// Element is the persistent, API-level description of one modifier
// link, for code defining its own modifier factories beyond the
// built-ins below.
type Element = modifier.Element

// Node is an Element's long-lived runtime counterpart.
type Node = modifier.Node

// Capability is the bitset a Node advertises via Capabilities().
type Capability = modifier.Capability

const (
	CapLayout       = modifier.CapLayout
	CapDraw         = modifier.CapDraw
	CapPointerInput = modifier.CapPointerInput
	CapSemantics    = modifier.CapSemantics
	CapParentData   = modifier.CapParentData
	CapFocus        = modifier.CapFocus
)

// Layout participation.
type (
	Measurer    = modifier.Measurer
	Measurable  = modifier.Measurable
	Constraints = modifier.Constraints
	Size        = modifier.Size
	Placement   = modifier.Placement
)

// Draw participation.
type (
	Drawer    = modifier.Drawer
	DrawScope = modifier.DrawScope
)

// Pointer participation.
type (
	PointerHandler = modifier.PointerHandler
	PointerPhase   = modifier.PointerPhase
	PointerEvent   = modifier.PointerEvent
	PointerPass    = modifier.PointerPass
)

const (
	PointerDown   = modifier.PointerDown
	PointerMove   = modifier.PointerMove
	PointerUp     = modifier.PointerUp
	PointerScroll = modifier.PointerScroll
)

const (
	PointerPassInitial = modifier.PointerPassInitial
	PointerPassMain    = modifier.PointerPassMain
	PointerPassFinal   = modifier.PointerPassFinal
)

// Focus participation.
type FocusTarget = modifier.FocusTarget

// Semantics participation.
type (
	SemanticsConfiguration = modifier.SemanticsConfiguration
	SemanticsContributor   = modifier.SemanticsContributor
)

// Parent-data participation.
type ParentDataProvider = modifier.ParentDataProvider

// Invalidation, for custom Elements that need to request a targeted
// re-run the way the built-ins do.
type (
	InvalidationKind = modifier.InvalidationKind
	AttachContext    = modifier.AttachContext
)

const (
	InvalidateLayout       = modifier.InvalidateLayout
	InvalidateDraw         = modifier.InvalidateDraw
	InvalidatePointerInput = modifier.InvalidatePointerInput
	InvalidateSemantics    = modifier.InvalidateSemantics
	InvalidateFocus        = modifier.InvalidateFocus
)

// FromElement wraps a single custom Element as a one-link Modifier.
func FromElement(e Element) Modifier { return modifier.FromElement(e) }

// FoldIn folds over m's elements left-to-right (outer before inner).
func FoldIn[A any](m Modifier, initial A, op func(acc A, e Element) A) A {
	return modifier.FoldIn(m, initial, op)
}

// FoldOut folds over m's elements right-to-left (inner before outer).
func FoldOut[A any](m Modifier, initial A, op func(e Element, acc A) A) A {
	return modifier.FoldOut(m, initial, op)
}

// Built-in element factories, re-exported unchanged.
var (
	Padding             = modifier.Padding
	Background          = modifier.Background
	Clickable           = modifier.Clickable
	FixedSize           = modifier.FixedSize
	Offset              = modifier.Offset
	FocusTargetModifier = modifier.FocusTargetModifier
	Semantics           = modifier.Semantics
	ParentWeight        = modifier.ParentWeight
)

// Element types behind the factories above, exported for callers that
// need to type-switch on a specific built-in (e.g. an inspector
// rendering a human-readable label per element kind).
type (
	PaddingElement      = modifier.PaddingElement
	BackgroundElement   = modifier.BackgroundElement
	ClickableElement    = modifier.ClickableElement
	SizeElement         = modifier.SizeElement
	OffsetElement       = modifier.OffsetElement
	FocusTargetElement  = modifier.FocusTargetElement
	SemanticsElement    = modifier.SemanticsElement
	ParentWeightElement = modifier.ParentWeightElement
)
