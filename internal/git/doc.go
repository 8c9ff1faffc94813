// Package git keeps a local checkout of the private repository that carries the identity
// list and receives the published snapshot.
//
// Sync clones the repository on first use and fast-forwards it afterwards; local history
// that diverged from the remote is reset, since the snapshot store (not git) is the source
// of truth. CommitAndPush stages the given files, commits when they changed and pushes the
// branch. Both operations go through a retry.Runner and stop early on permanent failures
// such as rejected credentials.
package git
