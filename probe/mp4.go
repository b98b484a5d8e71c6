package probe

import (
	"encoding/binary"
	"time"

	"github.com/prilive-com/stickerforge/sticker"
)

// inspectMP4 walks top-level ISO BMFF boxes looking for moov/mvhd
// (timescale + duration) and moov/trak/tkhd (presentation dimensions).
// Media data (mdat) is never read.
func inspectMP4(data []byte) (Info, error) {
	info := Info{Kind: sticker.KindVideo, MIME: "video/mp4", ByteSize: len(data)}

	moov, _, ok := findBox(data, 0, "moov")
	if !ok {
		// Fragmented or streaming layouts may defer moov; classification
		// alone is still useful.
		return info, nil
	}

	if mvhd, _, ok := findBox(moov, 0, "mvhd"); ok && len(mvhd) >= 20 {
		version := mvhd[0]
		var timescale, duration uint64
		if version == 1 && len(mvhd) >= 32 {
			timescale = uint64(binary.BigEndian.Uint32(mvhd[20:24]))
			duration = binary.BigEndian.Uint64(mvhd[24:32])
		} else {
			timescale = uint64(binary.BigEndian.Uint32(mvhd[12:16]))
			duration = uint64(binary.BigEndian.Uint32(mvhd[16:20]))
		}
		if timescale > 0 {
			info.Duration = time.Duration(duration * uint64(time.Second) / timescale)
		}
	}

	// First trak with nonzero dimensions wins; audio tracks report 0x0.
	for off := 0; ; {
		trak, next, ok := findBox(moov, off, "trak")
		if !ok {
			break
		}
		if tkhd, _, ok := findBox(trak, 0, "tkhd"); ok {
			if w, h, ok := tkhdDimensions(tkhd); ok && w > 0 && h > 0 {
				info.Width, info.Height = w, h
				break
			}
		}
		off = next
	}

	return info, nil
}

// tkhdDimensions reads the 16.16 fixed-point width/height at the tail of a
// track header box.
func tkhdDimensions(tkhd []byte) (int, int, bool) {
	if len(tkhd) < 1 {
		return 0, 0, false
	}
	// Fields before the matrix differ between versions 0 and 1; width and
	// height are always the final 8 bytes of the fixed layout.
	var size int
	if tkhd[0] == 1 {
		size = 4 + 8 + 8 + 4 + 4 + 8 + 8 + 2 + 2 + 2 + 2 + 36 + 8
	} else {
		size = 4 + 4 + 4 + 4 + 4 + 4 + 8 + 2 + 2 + 2 + 2 + 36 + 8
	}
	if len(tkhd) < size {
		return 0, 0, false
	}
	w := binary.BigEndian.Uint32(tkhd[size-8 : size-4])
	h := binary.BigEndian.Uint32(tkhd[size-4 : size])
	return int(w >> 16), int(h >> 16), true
}

// findBox scans sibling boxes in data starting at off for the named type.
// It returns the box payload (without the size/type header) and the offset
// just past the box, for iterating siblings of the same type.
func findBox(data []byte, off int, name string) (payload []byte, next int, ok bool) {
	pos := off
	for pos+8 <= len(data) {
		size := int(binary.BigEndian.Uint32(data[pos : pos+4]))
		typ := string(data[pos+4 : pos+8])
		header := 8
		if size == 1 {
			// 64-bit extended size
			if pos+16 > len(data) {
				return nil, 0, false
			}
			size64 := binary.BigEndian.Uint64(data[pos+8 : pos+16])
			if size64 > uint64(len(data)-pos) {
				return nil, 0, false
			}
			size = int(size64)
			header = 16
		}
		if size < header || pos+size > len(data) {
			return nil, 0, false
		}
		if typ == name {
			return data[pos+header : pos+size], pos + size, true
		}
		pos += size
	}
	return nil, 0, false
}
