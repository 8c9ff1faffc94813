// Package workspace manages the directory holding the repository checkout, in either
// ephemeral (timestamped, removed on Cleanup) or persistent (fixed path, kept between
// runs) mode, and publishes snapshots into that checkout.
package workspace
