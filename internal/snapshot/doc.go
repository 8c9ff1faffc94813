// Package snapshot persists the merged records of the last completed run.
//
// Exactly one snapshot exists at a time. Loading never fails: a missing or unreadable
// snapshot is reported in the log and treated as an empty history, which suppresses
// notifications for that run. Saving replaces the previous snapshot atomically.
package snapshot
