// Package eclass defines expressivity classes and derives a candidate's
// class from its declared action manifest.
//
// The class is always computed, never self-reported: a manifest maps to the
// maximum capability group implied by any of its action types, and action
// types outside the table map to the maximal class.
package eclass

import (
	"fmt"
	"slices"
)

// Class is one of five ordered expressivity tiers.
type Class int

const (
	E0 Class = iota
	E1
	E2
	E3
	E4
)

// Max is the most expressive class.
const Max = E4

// All lists every class in ascending order.
var All = []Class{E0, E1, E2, E3, E4}

// String implements fmt.Stringer.
func (c Class) String() string {
	if c < E0 || c > E4 {
		return fmt.Sprintf("E?(%d)", int(c))
	}
	return fmt.Sprintf("E%d", int(c))
}

// Valid reports whether c is one of the five classes.
func (c Class) Valid() bool {
	return c >= E0 && c <= E4
}

// Parse converts "E0".."E4" into a Class.
func Parse(s string) (Class, error) {
	for _, c := range All {
		if c.String() == s {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown expressivity class %q", s)
}

// ActionType is a declared action-type tag.
type ActionType string

// Action types known to the capability table.
const (
	Wait      ActionType = "WAIT"
	Log       ActionType = "LOG"
	Heartbeat ActionType = "HEARTBEAT"

	Read     ActionType = "READ"
	StateGet ActionType = "STATE_GET"

	Write    ActionType = "WRITE"
	StateSet ActionType = "STATE_SET"

	InvokeTool ActionType = "INVOKE_TOOL"
	Sequence   ActionType = "SEQUENCE"
	Batch      ActionType = "BATCH"

	Delegate ActionType = "DELEGATE"
	Spawn    ActionType = "SPAWN"
	Network  ActionType = "NETWORK"

	// Invalid is never in any manifest. The interference layer injects it
	// into the observed stream to model a structurally invalid emission.
	Invalid ActionType = "INVALID"
)

// groups maps each known action type to its minimal capability group.
var groups = map[ActionType]Class{
	Wait:      E0,
	Log:       E0,
	Heartbeat: E0,

	Read:     E1,
	StateGet: E1,

	Write:    E2,
	StateSet: E2,

	InvokeTool: E3,
	Sequence:   E3,
	Batch:      E3,

	Delegate: E4,
	Spawn:    E4,
	Network:  E4,
}

// GroupOf returns the minimal class required by one action type.
// Unmapped types (including Invalid) require the maximal class.
func GroupOf(t ActionType) Class {
	if c, ok := groups[t]; ok {
		return c
	}
	return Max
}

// Known reports whether t appears in the capability table.
func Known(t ActionType) bool {
	_, ok := groups[t]
	return ok
}

// Derive returns the class of a manifest: the maximum group across its
// action types. An empty manifest is E0.
func Derive(manifest []ActionType) Class {
	c := E0
	for _, t := range manifest {
		if g := GroupOf(t); g > c {
			c = g
			if c == Max {
				break
			}
		}
	}
	return c
}

// TypesIn returns the known action types of one class, sorted.
func TypesIn(c Class) []ActionType {
	var out []ActionType
	for t, g := range groups {
		if g == c {
			out = append(out, t)
		}
	}
	slices.Sort(out)
	return out
}
