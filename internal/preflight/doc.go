// Package preflight provides readiness checks for the toolkit installation
// and the filesystem paths a reconstruction run depends on.
//
// These checks run in two contexts:
//   - "sfmpipe run" calls RunAll before the first stage and refuses to start
//     when a blocking check fails, rather than dying halfway through a long
//     reconstruction.
//   - "sfmpipe doctor" prints every result, including warnings.
//
// Toolkit checks cover only the executables of the stages a run selects and
// the shared files those executables read. A configured vocabulary tree
// replaces the bundled one.
//
// Warnings (for example a library path that does not exist) are reported but
// never block a run.
package preflight
