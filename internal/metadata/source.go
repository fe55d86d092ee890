package metadata

import (
	"fmt"
	"strings"

	id3v2 "github.com/bogem/id3v2/v2"
)

// RawPicture is an embedded image as found in the source file.
type RawPicture struct {
	Data        []byte
	MIME        string
	Description string
	PictureType byte
}

// Source holds the ID3 frame set read from one input file. Frame IDs map to
// ordered value lists; ID3v2.4 null-separated text frames become multiple
// values.
type Source struct {
	Frames  map[string][]string
	Picture *RawPicture
}

// Genre returns the first genre value, or "".
func (s Source) Genre() string {
	if values := s.Frames["TCON"]; len(values) > 0 {
		return values[0]
	}
	return ""
}

// id3FrontCover is the APIC picture type for a front cover image.
const id3FrontCover = 3

// ReadFile extracts the ID3 tag set from an MP3 file. A missing or
// unparsable tag yields an empty Source and an error the caller may treat
// as non-fatal; conversion proceeds with best-effort tags.
func ReadFile(path string) (Source, error) {
	src := Source{Frames: map[string][]string{}}

	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return src, fmt.Errorf("read id3 tag: %w", err)
	}
	defer tag.Close()

	for id, framers := range tag.AllFrames() {
		for _, framer := range framers {
			switch frame := framer.(type) {
			case id3v2.TextFrame:
				for _, value := range splitValues(frame.Text) {
					src.Frames[id] = append(src.Frames[id], value)
				}
			case id3v2.CommentFrame:
				if value := strings.TrimSpace(frame.Text); value != "" {
					src.Frames["COMM"] = append(src.Frames["COMM"], value)
				}
			case id3v2.PictureFrame:
				src.addPicture(frame)
			}
		}
	}

	return src, nil
}

// addPicture keeps the first picture seen, upgrading to a front cover when
// one appears later.
func (s *Source) addPicture(frame id3v2.PictureFrame) {
	if len(frame.Picture) == 0 {
		return
	}
	if s.Picture != nil && s.Picture.PictureType == id3FrontCover {
		return
	}
	if s.Picture != nil && frame.PictureType != id3FrontCover {
		return
	}
	s.Picture = &RawPicture{
		Data:        append([]byte(nil), frame.Picture...),
		MIME:        strings.TrimSpace(frame.MimeType),
		Description: strings.TrimSpace(frame.Description),
		PictureType: frame.PictureType,
	}
}

// splitValues expands an ID3v2.4 null-separated text frame into its value
// list, dropping empties.
func splitValues(text string) []string {
	parts := strings.Split(text, "\x00")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	return values
}
