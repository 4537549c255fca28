// Package services defines shared utilities consumed by the event handlers and
// host integrations.
//
// Key responsibilities:
//   - Context helpers that stamp correlation identifiers, action names, users,
//     event ids, and job ids for logging and tracing.
//   - Structured error markers plus the Wrap helper, and Classify, which turns
//     failures into the short kinds recorded in the job ledger.
//
// Use these helpers when wiring new handler logic so operational behaviour
// (error handling, observability) stays uniform across actions.
package services
