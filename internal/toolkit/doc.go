// Package toolkit resolves paths inside a photogrammetry toolkit installation.
//
// An installation root contains the stage executables under bin/ and shared
// data (camera sensor database, vocabulary tree) under share/aliceVision/.
package toolkit
