// Package uipkg is the UI package reference-counting core.
//
// A Registry tracks one entry per package name. The first request for a name
// creates the entry with a fresh version and issues a single asynchronous
// load; later requests share it. Load results carry the version they were
// issued for and are discarded when the entry has since been torn down and
// recreated. Loaded packages hold one reference on each declared dependency
// and give it back when they are torn down.
//
// A RefBridge ties texture and audio handles to the package that produced
// them, so a handle in use keeps its package alive.
//
// Everything here runs on a single goroutine. Loader callbacks may fire on
// any goroutine, but they only post into the intake queue that the owning
// loop drains.
package uipkg
