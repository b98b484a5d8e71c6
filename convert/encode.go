package convert

import (
	"bytes"
	"image"
	"image/color/palette"
	"image/draw"
	"image/gif"
	"image/png"
	"time"

	"github.com/prilive-com/stickerforge/sticker"
)

// EncodeStill encodes one frame as a static sticker candidate. PNG is the
// static codec: the platform accepts it directly and it preserves the
// transparency the raster pass may have introduced.
func EncodeStill(frame sticker.Frame) (*sticker.Candidate, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, frame.Image); err != nil {
		return nil, sticker.WrapError(sticker.ErrDecode, "encoding png: %v", err)
	}
	b := frame.Image.Bounds()
	return &sticker.Candidate{
		Format:     sticker.FormatStatic,
		Bytes:      buf.Bytes(),
		Width:      b.Dx(),
		Height:     b.Dy(),
		FrameCount: 1,
	}, nil
}

// encodeAnimation encodes a frame sequence as GIF89a with at most
// paletteSize colors per frame. The palette size is the quality knob the
// compression budget loop turns.
func encodeAnimation(frames []sticker.Frame, paletteSize int) ([]byte, error) {
	if paletteSize < 2 {
		paletteSize = 2
	}
	if paletteSize > 256 {
		paletteSize = 256
	}
	pal := palette.Plan9[:paletteSize]

	out := &gif.GIF{LoopCount: 0}
	for _, f := range frames {
		p := image.NewPaletted(f.Image.Bounds(), pal)
		draw.FloydSteinberg.Draw(p, f.Image.Bounds(), f.Image, f.Image.Bounds().Min)
		out.Image = append(out.Image, p)
		out.Delay = append(out.Delay, int(f.Duration/(10*time.Millisecond)))
		out.Disposal = append(out.Disposal, gif.DisposalNone)
	}

	var buf bytes.Buffer
	if err := gif.EncodeAll(&buf, out); err != nil {
		return nil, sticker.WrapError(sticker.ErrDecode, "encoding gif: %v", err)
	}
	return buf.Bytes(), nil
}
