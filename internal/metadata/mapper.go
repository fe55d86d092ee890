package metadata

import (
	"fmt"
	"strings"
)

// mapping pairs an ID3 frame ID with its Vorbis-comment key. The table is
// ordered so mapped output is deterministic regardless of source frame order.
type mapping struct {
	frameID string
	key     string
}

var frameTable = []mapping{
	{"TIT2", "TITLE"},
	{"TPE1", "ARTIST"},
	{"TPE2", "ALBUMARTIST"},
	{"TALB", "ALBUM"},
	{"TDRC", "DATE"},
	{"TYER", "DATE"},
	{"TCON", "GENRE"},
	{"TPE3", "CONDUCTOR"},
	{"TPE4", "REMIXER"},
	{"TCOM", "COMPOSER"},
	{"TEXT", "LYRICIST"},
	{"TIT1", "GROUPING"},
	{"TIT3", "SUBTITLE"},
	{"TPUB", "PUBLISHER"},
	{"TCOP", "COPYRIGHT"},
	{"TENC", "ENCODEDBY"},
	{"TBPM", "BPM"},
	{"TMOO", "MOOD"},
	{"TSRC", "ISRC"},
	{"COMM", "COMMENT"},
}

// Map translates an ID3 frame set into the Vorbis-comment schema. It never
// fails: unknown frames are dropped, multi-valued frames become repeated
// keys in order, track/disc frames split into NUMBER/TOTAL pairs, and an
// undecodable picture is dropped. Returned warnings describe any degraded
// translations.
func Map(src Source) (Destination, []string) {
	var dst Destination
	var warnings []string

	seenKeys := make(map[string]struct{})
	for _, entry := range frameTable {
		values := src.Frames[entry.frameID]
		if len(values) == 0 {
			continue
		}
		// TDRC wins over TYER for DATE; first writer claims the key.
		if _, ok := seenKeys[entry.key]; ok && entry.key == "DATE" {
			continue
		}
		seenKeys[entry.key] = struct{}{}
		for _, value := range values {
			dst.Add(entry.key, value)
		}
	}

	mapNumberTotal(&dst, src.Frames["TRCK"], "TRACKNUMBER", "TRACKTOTAL")
	mapNumberTotal(&dst, src.Frames["TPOS"], "DISCNUMBER", "DISCTOTAL")

	if src.Picture != nil {
		picture, err := BuildPicture(*src.Picture)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("picture dropped: %v", err))
		} else {
			dst.Picture = picture
		}
	}

	return dst, warnings
}

// mapNumberTotal normalizes an ID3 "N/total" frame into separate NUMBER and
// TOTAL keys; a bare "N" yields only the NUMBER key.
func mapNumberTotal(dst *Destination, values []string, numberKey, totalKey string) {
	if len(values) == 0 {
		return
	}
	value := strings.TrimSpace(values[0])
	if value == "" {
		return
	}
	number, total, found := strings.Cut(value, "/")
	dst.Add(numberKey, strings.TrimSpace(number))
	if found {
		dst.Add(totalKey, strings.TrimSpace(total))
	}
}
