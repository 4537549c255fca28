// Package actions holds the plumbing shared by the menu driven actions:
// selection decoding, reply widgets, the task name gate and the correlation
// key that ties a launch to its later form submission.
package actions
