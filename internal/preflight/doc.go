// Package preflight provides readiness checks for external services
// and filesystem paths that shothook depends on.
//
// These checks run in two contexts:
//   - The daemon calls RunAll at startup and logs every failure so a missing
//     share or a rejected API key shows up before the first artist click.
//   - The CLI "shothook status" command runs the same checks to display
//     service health next to the daemon state.
//
// Each check is gated by its config toggle -- disabled features are skipped.
package preflight
