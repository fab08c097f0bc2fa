// Package importer turns JSON timeline documents into actions.
//
// A document is validated against an embedded CUE schema before it is
// decoded, so a bad document is rejected with every problem and its path
// rather than the first decode error. A valid document becomes one
// BULK_IMPORT action plus an UPDATE_NOTES action when it carries notes;
// executing them through the executor makes the import undoable as a unit.
package importer
