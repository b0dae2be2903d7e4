// Package pipeline orchestrates a reconstruction run: it resolves the
// toolkit and output layout, counts the input images, takes the output-tree
// lock, and executes the selected stages in order, stopping at the first
// failure.
//
// Nothing is cleaned up or rolled back after a failure. Directories and
// files written by earlier stages stay in place so the run can be inspected
// or resumed with --from.
package pipeline
