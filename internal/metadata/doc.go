// Package metadata reads ID3 tags from MP3 sources and translates them into
// the Vorbis-comment schema used by Opus outputs, including embedded cover
// art serialized as METADATA_BLOCK_PICTURE.
package metadata
