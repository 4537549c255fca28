// Package ledger records background jobs (uploads, copies, notifications) so
// their outcome is observable after the action reply has been sent.
//
// The default backend is a SQLite file under the state directory; a MySQL DSN
// lets several daemons share one ledger. Records that are still running when a
// store is opened belonged to a previous process and are marked abandoned.
// Schema changes bump the version in schema.go; users delete the ledger to
// adopt the new schema.
package ledger
