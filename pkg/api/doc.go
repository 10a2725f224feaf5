// Package api defines the public contracts of the webchalk playback engine:
// effect generators and their composed effects, the layered configuration
// model, clip/sequence/timeline playback interfaces, the error taxonomy, and
// the observer callbacks.
//
// Application code usually imports the root webchalk package, which
// re-exports everything here and adds the category factories and builders.
package api
