package convert

import (
	"bytes"
	"image"
	"image/draw"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/prilive-com/stickerforge/sticker"
)

// DecodeStill rasterizes encoded still-image bytes into a single Frame.
// Animated containers contribute their first frame.
func DecodeStill(data []byte) (sticker.Frame, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return sticker.Frame{}, sticker.WrapError(sticker.ErrDecode, "rasterizing still image: %v", err)
	}
	return sticker.Frame{Image: toNRGBA(img)}, nil
}

// Rasterize converts a still MediaAsset into a compliant static Frame:
// scale the longer edge down to the platform maximum (never up), then pad
// to a square bounding box when the limits require one. Color models are
// flattened to NRGBA, which drops unsupported profiles.
func Rasterize(asset sticker.MediaAsset, limits sticker.Limits) (sticker.Frame, error) {
	frame, err := DecodeStill(asset.Bytes)
	if err != nil {
		return sticker.Frame{}, err
	}
	return FitFrame(frame, limits.MaxStaticDimension, limits.PadToSquare), nil
}

// FitFrame applies the shared resize/pad logic to one frame. The animated
// converter reuses it per frame with a dimension computed once from the
// first frame.
func FitFrame(frame sticker.Frame, maxDim int, padToSquare bool) sticker.Frame {
	b := frame.Image.Bounds()
	w, h := targetSize(b.Dx(), b.Dy(), maxDim)

	out := frame.Image
	if w != b.Dx() || h != b.Dy() {
		out = scale(frame.Image, w, h)
	}

	if padToSquare {
		out = padSquare(out, maxDim)
	}

	return sticker.Frame{Image: out, Duration: frame.Duration}
}

// targetSize scales (w, h) so the longer edge equals maxDim, preserving
// aspect ratio. Inputs already within the limit are returned unchanged:
// stickers are never upscaled.
func targetSize(w, h, maxDim int) (int, int) {
	if w <= maxDim && h <= maxDim {
		return w, h
	}
	if w >= h {
		nh := h * maxDim / w
		if nh < 1 {
			nh = 1
		}
		return maxDim, nh
	}
	nw := w * maxDim / h
	if nw < 1 {
		nw = 1
	}
	return nw, maxDim
}

func scale(src *image.NRGBA, w, h int) *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Over, nil)
	return dst
}

// padSquare centers src on a transparent size×size canvas.
func padSquare(src *image.NRGBA, size int) *image.NRGBA {
	b := src.Bounds()
	if b.Dx() == size && b.Dy() == size {
		return src
	}
	dst := image.NewNRGBA(image.Rect(0, 0, size, size))
	offset := image.Pt((size-b.Dx())/2, (size-b.Dy())/2)
	draw.Draw(dst, b.Add(offset).Sub(b.Min), src, b.Min, draw.Over)
	return dst
}

func toNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok {
		return n
	}
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}
