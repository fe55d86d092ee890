package metadata

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	_ "golang.org/x/image/webp"
)

// Picture is the decoded, self-describing form of an embedded image,
// serialized as a METADATA_BLOCK_PICTURE Vorbis comment.
type Picture struct {
	MIME        string
	Description string
	PictureType uint32
	Width       uint32
	Height      uint32
	Depth       uint32
	Data        []byte
}

// PictureKey is the Vorbis-comment key carrying the encoded picture block.
const PictureKey = "METADATA_BLOCK_PICTURE"

// BuildPicture validates a raw source image and fills in its dimensions.
// Images the standard decoders cannot read are rejected so a corrupt blob
// never reaches the output file.
func BuildPicture(raw RawPicture) (*Picture, error) {
	if len(raw.Data) == 0 {
		return nil, fmt.Errorf("empty picture payload")
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(raw.Data))
	if err != nil {
		return nil, fmt.Errorf("decode picture: %w", err)
	}

	mime := strings.TrimSpace(raw.MIME)
	if mime == "" {
		mime = "image/" + format
	}

	return &Picture{
		MIME:        mime,
		Description: raw.Description,
		PictureType: uint32(raw.PictureType),
		Width:       uint32(cfg.Width),
		Height:      uint32(cfg.Height),
		Depth:       colorDepth(cfg.ColorModel),
		Data:        raw.Data,
	}, nil
}

func colorDepth(model color.Model) uint32 {
	switch model {
	case color.RGBAModel, color.NRGBAModel, color.RGBA64Model, color.NRGBA64Model:
		return 32
	default:
		return 24
	}
}

// MarshalBlock serializes the picture in the FLAC picture-block layout:
// big-endian u32 fields for type, MIME length/bytes, description
// length/bytes, width, height, depth, palette size, and data length/bytes.
func (p Picture) MarshalBlock() []byte {
	mime := []byte(p.MIME)
	desc := []byte(p.Description)

	buf := bytes.NewBuffer(make([]byte, 0, 32+len(mime)+len(desc)+len(p.Data)))
	writeU32 := func(v uint32) {
		_ = binary.Write(buf, binary.BigEndian, v)
	}

	writeU32(p.PictureType)
	writeU32(uint32(len(mime)))
	buf.Write(mime)
	writeU32(uint32(len(desc)))
	buf.Write(desc)
	writeU32(p.Width)
	writeU32(p.Height)
	writeU32(p.Depth)
	writeU32(0) // palette size; unused for non-indexed images
	writeU32(uint32(len(p.Data)))
	buf.Write(p.Data)

	return buf.Bytes()
}

// Base64Block returns the base64-framed block ready to use as the
// METADATA_BLOCK_PICTURE comment value.
func (p Picture) Base64Block() string {
	return base64.StdEncoding.EncodeToString(p.MarshalBlock())
}

// ParseBlock decodes a METADATA_BLOCK_PICTURE comment value back into a
// Picture. Intended for tooling and tests that verify the wire contract.
func ParseBlock(encoded string) (*Picture, error) {
	blob, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode base64: %w", err)
	}

	reader := bytes.NewReader(blob)
	readU32 := func() (uint32, error) {
		var v uint32
		err := binary.Read(reader, binary.BigEndian, &v)
		return v, err
	}

	var pic Picture
	if pic.PictureType, err = readU32(); err != nil {
		return nil, fmt.Errorf("picture type: %w", err)
	}
	mimeLen, err := readU32()
	if err != nil {
		return nil, fmt.Errorf("mime length: %w", err)
	}
	mime := make([]byte, mimeLen)
	if _, err := reader.Read(mime); mimeLen > 0 && err != nil {
		return nil, fmt.Errorf("mime: %w", err)
	}
	pic.MIME = string(mime)

	descLen, err := readU32()
	if err != nil {
		return nil, fmt.Errorf("description length: %w", err)
	}
	desc := make([]byte, descLen)
	if _, err := reader.Read(desc); descLen > 0 && err != nil {
		return nil, fmt.Errorf("description: %w", err)
	}
	pic.Description = string(desc)

	if pic.Width, err = readU32(); err != nil {
		return nil, fmt.Errorf("width: %w", err)
	}
	if pic.Height, err = readU32(); err != nil {
		return nil, fmt.Errorf("height: %w", err)
	}
	if pic.Depth, err = readU32(); err != nil {
		return nil, fmt.Errorf("depth: %w", err)
	}
	if _, err = readU32(); err != nil {
		return nil, fmt.Errorf("palette size: %w", err)
	}
	dataLen, err := readU32()
	if err != nil {
		return nil, fmt.Errorf("data length: %w", err)
	}
	data := make([]byte, dataLen)
	if _, err := reader.Read(data); dataLen > 0 && err != nil {
		return nil, fmt.Errorf("data: %w", err)
	}
	pic.Data = data

	return &pic, nil
}
