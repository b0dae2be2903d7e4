// Package stageexec runs a single pipeline stage: it prepares the stage
// directory, renders the command, hands it to the subprocess runner, and
// records the outcome to the run ledger when one is attached.
package stageexec
