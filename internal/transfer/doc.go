// Package transfer implements the Transfer File action.
//
// The first launch lists the shot output folder and the editorial destination
// and names who will be told. Submitting the form starts a copy job, moves the
// task along its workflow and queues a separate mail job to the assistant
// editors. Existing files at the destination are replaced.
package transfer
