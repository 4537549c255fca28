// Package main hosts the shothook CLI entrypoint and command graph.
//
// The Cobra-based command tree runs the daemon in the foreground, starts and
// stops it in the background, and translates the remaining invocations into
// IPC calls: status, job history, the resolved status catalog, discovered
// viewers, log tailing, test mail and hand-emitted events. Configuration
// scaffolding and validation work without a daemon.
package main
