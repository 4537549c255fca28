// Package shotpath turns a task's place in the project hierarchy into shot
// folder paths on shared storage.
//
// Two folder conventions exist side by side on the storage. Each is a Strategy
// and Resolve tries them in order, reporting a typed outcome per strategy and
// an overall Selected, Missing, Ambiguous or Incomplete resolution.
package shotpath
