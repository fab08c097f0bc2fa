// Package harness runs YAML scenarios against a real executor.
//
// A scenario is a list of setup actions, a list of steps and a list of
// assertions on the final state. Steps name an action type (ADD_PROPERTY,
// MOVE_EVENT, ...) with its JSON payload, or one of the history verbs
// "undo" and "redo". Every scenario runs against a fresh in-memory entity
// store whose ids come from a sequence generator ("id-1", "id-2", ...), so
// traces are deterministic and can be compared against golden files.
//
// Example:
//
//	name: purchase-then-undo
//	steps:
//	  - do: ADD_PROPERTY
//	    payload: {property: {address: "1 Main St"}}
//	  - do: undo
//	  - do: undo
//	    expect: {code: NOTHING_TO_UNDO}
//	assertions:
//	  - type: counts
//	    properties: 0
package harness
