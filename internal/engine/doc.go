// Package engine implements the action executor: the command layer that
// applies timeline actions to the entity store and keeps undo history.
//
// ARCHITECTURE:
//
// Single-Writer Job Loop:
// Execute, Undo, Redo, Rehydrate and autosave all run as jobs on one Run
// goroutine. A second Execute can therefore never capture a snapshot while
// the first one's mutation is still in flight. Reentrancy is ruled out by
// construction rather than detected.
//
// Execute Flow:
//  1. Capture a snapshot of the store (the previous state)
//  2. Apply the action through the store's mutators
//  3. On success, record {action, previous state, entity id} in history
//  4. On failure, return a structured Result and record nothing
//
// Undo restores the recorded previous state wholesale. Redo re-executes the
// action from scratch, pinning any store-assigned id from the first run so
// that later history entries still resolve. The redo stack survives a redo;
// only a new Execute clears it.
//
// Autosave:
// After each successful mutation the loop arms a debounce timer. When it
// fires, the configured Autosaver runs inside the loop, so a save always sees
// a state no action is halfway through. Pending saves are flushed when the
// loop stops.
//
// ERROR HANDLING:
// Failures are returned as Result values carrying an ActionError code.
// Nothing in this package panics across the public boundary.
package engine
