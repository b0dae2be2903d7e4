// Package services defines shared utilities consumed by the pipeline stages
// and the subprocess runner.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs and stage names for logging.
//   - Structured error markers plus the Wrap helper that classify failures
//     (toolkit exit, bad input, bad configuration) for the run ledger.
//
// Use these helpers when wiring new stage logic so error handling and
// observability stay uniform across the pipeline.
package services
