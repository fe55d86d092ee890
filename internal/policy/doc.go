// Package policy decides the effective encoding bitrate for each track.
// Complex genres such as classical and electronic carry a boost delta over
// the configured nominal bitrate, clamped into the supported range.
package policy
