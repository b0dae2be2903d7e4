// Package execrun runs toolkit executables as subprocesses and reports the
// outcome.
//
// A Runner launches one command per call with the library search path
// variable replaced by the configured value, buffers stdout and stderr until
// the process exits, and prints progress and diagnostics according to its
// verbosity settings. Captured stderr is always printed when the process exits
// non-zero. Command execution sits behind the Executor interface so tests can
// substitute a fake process.
package execrun
