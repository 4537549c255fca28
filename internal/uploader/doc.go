// Package uploader implements the Output Manager action.
//
// The first launch lists the selected shot's output folder. Submitting the
// form starts a background job that publishes the chosen file as a reviewable
// image version with a "Server link" component back to the original, and moves
// the task along its workflow.
package uploader
