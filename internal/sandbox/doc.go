// Package sandbox builds the bubblewrap command line that runs WeChat with
// a restricted view of the filesystem: system directories read-only, the
// WeChat data directory mounted as the home directory, and only the
// configured extra paths shared from the host.
package sandbox
