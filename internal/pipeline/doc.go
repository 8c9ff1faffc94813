// Package pipeline runs one watch cycle: load identities, fetch accounts and presence,
// merge them, compare against the previous snapshot, notify, save the new snapshot and
// optionally publish it to the repository checkout.
//
// The previous snapshot is replaced only after the notify pass completed; a failed fetch
// leaves it untouched.
package pipeline
