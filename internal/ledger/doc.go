// Package ledger records pipeline runs and their per-stage outcomes in a
// SQLite database that lives beside the reconstruction it describes.
//
// Each run gets a row in runs keyed by its uuid; each executed stage appends
// a row to stage_runs with the rendered command line, exit code, duration,
// and the tail of stderr when the stage failed. The ledger is history only:
// the pipeline never reads it back to decide what to run.
//
// Schema changes bump schemaVersion in schema.go. Older databases are
// rejected with ErrSchemaMismatch; delete the .sfmpipe directory to start a
// fresh history.
package ledger
