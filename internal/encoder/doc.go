// Package encoder drives the external Opus encoders. Both backends satisfy
// the same Engine interface: ffmpeg encodes with a follow-up remux pass for
// cover art, opusenc embeds everything in one pass. Process execution goes
// through an injectable Executor so tests run without real binaries.
package encoder
