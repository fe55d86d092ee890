// Package batch runs a whole conversion batch: it enqueues discovered
// files, feeds them through a bounded worker pool in discovery order, and
// applies the ReplayGain post-pass. A running batch can be paused, resumed,
// and cancelled from signal handlers.
package batch
