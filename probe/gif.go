package probe

import (
	"time"

	"github.com/prilive-com/stickerforge/sticker"
)

// inspectGIF walks the GIF block structure counting image descriptors and
// summing graphic-control delays. Pixel data (LZW sub-blocks) is skipped,
// never decompressed.
func inspectGIF(data []byte) (Info, error) {
	// Header (6) + logical screen descriptor (7).
	if len(data) < 13 {
		return Info{}, sticker.WrapError(sticker.ErrDecode, "gif: truncated header")
	}
	width := int(data[6]) | int(data[7])<<8
	height := int(data[8]) | int(data[9])<<8

	pos := 13
	if data[10]&0x80 != 0 { // global color table present
		pos += colorTableSize(data[10])
	}
	if pos > len(data) {
		return Info{}, sticker.WrapError(sticker.ErrDecode, "gif: truncated color table")
	}

	frames := 0
	var delay time.Duration

	for pos < len(data) {
		switch data[pos] {
		case 0x3b: // trailer
			return gifInfo(data, width, height, frames, delay)

		case 0x21: // extension
			if pos+2 > len(data) {
				return Info{}, sticker.WrapError(sticker.ErrDecode, "gif: truncated extension")
			}
			label := data[pos+1]
			pos += 2
			if label == 0xf9 && pos+7 <= len(data) && data[pos] == 4 {
				// graphic control: block size (4), flags, delay in 1/100s
				cs := int(data[pos+2]) | int(data[pos+3])<<8
				delay += time.Duration(cs) * 10 * time.Millisecond
			}
			var err error
			pos, err = skipSubBlocks(data, pos)
			if err != nil {
				return Info{}, err
			}

		case 0x2c: // image descriptor
			if pos+10 > len(data) {
				return Info{}, sticker.WrapError(sticker.ErrDecode, "gif: truncated image descriptor")
			}
			frames++
			flags := data[pos+9]
			pos += 10
			if flags&0x80 != 0 { // local color table
				pos += colorTableSize(flags)
			}
			pos++ // LZW minimum code size
			var err error
			pos, err = skipSubBlocks(data, pos)
			if err != nil {
				return Info{}, err
			}

		default:
			return Info{}, sticker.WrapError(sticker.ErrDecode, "gif: unknown block 0x%02x", data[pos])
		}
	}

	// Missing trailer is tolerated: browsers render these too.
	return gifInfo(data, width, height, frames, delay)
}

func gifInfo(data []byte, width, height, frames int, delay time.Duration) (Info, error) {
	if frames == 0 {
		return Info{}, sticker.WrapError(sticker.ErrDecode, "gif: no image descriptors")
	}
	kind := sticker.KindAnimatedImage
	if frames == 1 {
		kind = sticker.KindStaticImage
	}
	return Info{
		Kind:       kind,
		MIME:       "image/gif",
		Width:      width,
		Height:     height,
		FrameCount: frames,
		Duration:   delay,
		ByteSize:   len(data),
	}, nil
}

func colorTableSize(flags byte) int {
	return 3 * (2 << (flags & 0x07))
}

// skipSubBlocks advances past a chain of length-prefixed sub-blocks,
// returning the offset just after the terminating zero-length block.
func skipSubBlocks(data []byte, pos int) (int, error) {
	for {
		if pos >= len(data) {
			return 0, sticker.WrapError(sticker.ErrDecode, "gif: truncated data sub-blocks")
		}
		n := int(data[pos])
		pos++
		if n == 0 {
			return pos, nil
		}
		pos += n
	}
}
