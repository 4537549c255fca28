// Package jobs runs the slow parts of an action (uploads, copies, email) after
// the menu reply has been sent.
//
// Each submitted job gets an id, inherits the request context values of the
// launch that created it and is written to the job ledger when it starts and
// when it ends. The daemon drains the runner on shutdown.
package jobs
