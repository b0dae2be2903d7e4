// Package workspace owns the on-disk contract between pipeline stages.
//
// Every stage writes into a fixed subdirectory of the output tree, and later
// stages read earlier outputs by fixed relative path. Layout is the single
// source of those names; nothing else in the module should join stage paths by
// hand. The package also inspects the input image directory.
package workspace
