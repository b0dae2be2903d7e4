// Package stages defines the five photogrammetry stages and how each one
// renders its toolkit command line.
//
// A Definition pairs a stage name with its output subdirectory, its toolkit
// executable, and a pure builder that turns an Env (toolkit layout, output
// layout, input directory, configuration) into an execrun.Command. Builders
// never touch the filesystem; directory creation and execution belong to the
// pipeline package.
package stages
