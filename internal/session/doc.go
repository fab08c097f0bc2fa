// Package session decides what happens to a saved editing session at
// startup and keeps the saved record current while editing.
//
// The flow at startup is: CheckForSavedSession reads metadata only,
// ShouldAutoRestore turns it into a Strategy, and the caller either starts
// fresh, runs a Countdown that ends in Restore, or prompts the user.
// During editing an Autosaver plugged into the executor rewrites the record
// after each burst of edits.
package session
