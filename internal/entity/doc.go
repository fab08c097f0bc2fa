// Package entity implements the in-memory Entity Store: the authoritative
// property and event collections edited through the action executor.
//
// The store exposes only primitive mutators. Each one validates its input
// and returns an error instead of partially applying an invalid entity.
// Referential integrity is enforced at the edges: AddEvent and UpdateEvent
// reject unknown property ids, DeleteProperty cascades to dependent events,
// and ImportTimelineData validates the whole batch before swapping it in.
//
// Text fields are trimmed and NFC-normalized on write so that visually
// identical addresses compare equal.
package entity
