// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// The converter only needs container duration (to turn ffmpeg -progress
// timestamps into a percentage) and a sanity check that a source actually
// carries an audio stream, so the Result surface stays small.
package ffprobe
