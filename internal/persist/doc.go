// Package persist stores session records in SQLite.
//
// A session record holds the full editing state: properties, events, notes,
// sticky notes, the saved analysis and both history stacks. Entity arrays
// are kept as JSON columns alongside a handful of denormalized summary
// columns, so GetMetadata can answer "is there a session worth restoring?"
// without decoding the record.
//
// Reads fail closed. A record that is missing, corrupt, or written by an
// unsupported version is reported as ErrNotFound and never partially
// returned.
//
// Shared gives every caller in the process the same lazily opened
// connection; Service layers the degraded-storage rules on top.
package persist
