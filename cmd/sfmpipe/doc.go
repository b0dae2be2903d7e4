// Package main hosts the sfmpipe CLI entrypoint and command graph.
//
// The Cobra-based command tree turns terminal invocations into pipeline runs,
// preflight reports, run history listings, and configuration scaffolding. It
// centralizes configuration resolution and logger setup so subcommands can
// focus on presentation.
//
// Keep this package lean: add functionality to the internal packages first,
// then surface it through a dedicated command or flag here.
package main
