// Package probe classifies inbound media without fully decoding it.
//
// Inspect reads container/codec headers only: dimensions for stills, frame
// count and summed delay for GIFs, movie-header duration and track
// dimensions for MP4. Oversized inputs are rejected before any parsing to
// bound the cost of adversarial payloads.
package probe

import (
	"bytes"
	"image"
	"time"

	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"github.com/prilive-com/stickerforge/sticker"
)

// Magic prefixes for supported containers.
var (
	gif87Magic = []byte("GIF87a")
	gif89Magic = []byte("GIF89a")
	pngMagic   = []byte{0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a}
	jpegMagic  = []byte{0xff, 0xd8, 0xff}
	riffMagic  = []byte("RIFF")
	webpFormat = []byte("WEBP")
	ebmlMagic  = []byte{0x1a, 0x45, 0xdf, 0xa3} // WebM/Matroska
)

// Info is the metadata a probe yields. FrameCount and Duration are zero
// when the container does not carry them or probing them would require a
// full decode.
type Info struct {
	Kind       sticker.Kind
	MIME       string
	Width      int
	Height     int
	FrameCount int
	Duration   time.Duration
	ByteSize   int
}

// Inspect classifies data into one of the supported media kinds and
// extracts basic metadata. It never decodes pixel data.
func Inspect(data []byte, limits sticker.Limits) (Info, error) {
	if len(data) == 0 {
		return Info{}, sticker.NewError(sticker.KindUnsupportedFormat, "empty input")
	}
	if len(data) > limits.MaxInputBytes {
		return Info{}, sticker.NewError(sticker.KindCompliance,
			"input is %d bytes, limit is %d", len(data), limits.MaxInputBytes)
	}

	switch {
	case bytes.HasPrefix(data, gif87Magic), bytes.HasPrefix(data, gif89Magic):
		return inspectGIF(data)

	case bytes.HasPrefix(data, pngMagic):
		return inspectStill(data, "image/png")

	case bytes.HasPrefix(data, jpegMagic):
		return inspectStill(data, "image/jpeg")

	case isWebP(data):
		return inspectStill(data, "image/webp")

	case isMP4(data):
		return inspectMP4(data)

	case bytes.HasPrefix(data, ebmlMagic):
		// WebM carries dimensions deep inside the Segment; treat as video
		// and let the decode stage discover geometry.
		return Info{Kind: sticker.KindVideo, MIME: "video/webm", ByteSize: len(data)}, nil
	}

	return Info{}, sticker.NewError(sticker.KindUnsupportedFormat,
		"cannot classify %d-byte input", len(data))
}

func isWebP(data []byte) bool {
	return len(data) >= 12 && bytes.HasPrefix(data, riffMagic) && bytes.Equal(data[8:12], webpFormat)
}

func isMP4(data []byte) bool {
	// ftyp box sits at offset 4 after the 32-bit box size.
	return len(data) >= 12 && bytes.Equal(data[4:8], []byte("ftyp"))
}

func inspectStill(data []byte, mime string) (Info, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Info{}, sticker.WrapError(sticker.ErrDecode, "reading %s header: %v", mime, err)
	}
	return Info{
		Kind:       sticker.KindStaticImage,
		MIME:       mime,
		Width:      cfg.Width,
		Height:     cfg.Height,
		FrameCount: 1,
		ByteSize:   len(data),
	}, nil
}
