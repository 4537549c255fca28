// Package statuses resolves the named task statuses used by the workflow
// actions into host status ids once at startup.
package statuses
