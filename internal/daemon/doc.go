// Package daemon coordinates the long-running shothook process.
//
// It wires configuration, the host client, the event transport, the session
// store and the job ledger into a single lifecycle with flock-based locking
// to prevent multiple instances. Start resolves the status catalog and
// registers the enabled handlers on a fresh event hub; Stop stops consuming
// events and gives background copies and uploads the configured drain
// window before cancelling them.
//
// Keep orchestration logic here: handler behaviour lives in the action
// packages while the daemon focuses on startup, shutdown, and status
// reporting.
package daemon
