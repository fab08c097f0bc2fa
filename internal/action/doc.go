// Package action defines the tagged union of timeline edits.
//
// An Action pairs a Type tag with a Payload variant. The Payload interface is
// sealed: its apply and describe methods are unexported, so every variant
// lives here and cannot compile without both. The serializer's switch in
// codec.go is the third site that must list each variant; TestCodec covers
// every entry of AllTypes so a missing case fails fast.
//
// Apply is the only way an action reaches the store, and it goes through the
// Mutator interface, never around it.
package action
