// Package statussync reacts to host update events: tasks move between
// NOT_STARTED and ASSIGNED as people are assigned or removed, and a task moves
// to FOR_REVIEW when one of its asset versions changes. Tasks ON_HOLD or
// OMITTED are left alone.
package statussync
