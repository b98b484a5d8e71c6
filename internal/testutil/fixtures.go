package testutil

import (
	"bytes"
	"image"
	"image/color"
	"image/color/palette"
	"image/draw"
	"image/gif"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/prilive-com/stickerforge/sticker"
)

// Test constants for consistent test data.
const (
	// TestUserID is a pack-owning test user.
	TestUserID = sticker.UserID(987654321)

	// TestOtherUserID is a second, unrelated user.
	TestOtherUserID = sticker.UserID(123456789)

	// TestPackName is a valid pack short name.
	TestPackName = "test_pack"

	// TestPackTitle is a display title for test packs.
	TestPackTitle = "Test Pack"
)

// SolidFrame returns a Frame filled with one color.
func SolidFrame(w, h int, c color.Color) sticker.Frame {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return sticker.Frame{Image: img}
}

// Gradient returns an NRGBA image with per-pixel variation, so resampling
// and palette reduction actually have work to do.
func Gradient(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8(x * 255 / max(w-1, 1)),
				G: uint8(y * 255 / max(h-1, 1)),
				B: uint8((x + y) % 256),
				A: 255,
			})
		}
	}
	return img
}

// PNG returns an encoded PNG of the given dimensions.
func PNG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, Gradient(w, h)); err != nil {
		t.Fatalf("encoding fixture png: %v", err)
	}
	return buf.Bytes()
}

// JPEG returns an encoded JPEG of the given dimensions.
func JPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, Gradient(w, h), nil); err != nil {
		t.Fatalf("encoding fixture jpeg: %v", err)
	}
	return buf.Bytes()
}

// GIF returns an encoded animated GIF with the given frame count and a
// uniform per-frame delay in hundredths of a second.
func GIF(t *testing.T, w, h, frames, delayCS int) []byte {
	t.Helper()
	out := &gif.GIF{}
	for i := 0; i < frames; i++ {
		pal := image.NewPaletted(image.Rect(0, 0, w, h), palette.Plan9)
		// Shift the gradient per frame so frames differ.
		src := Gradient(w, h)
		draw.Draw(pal, pal.Bounds(), src, image.Point{X: i % max(w, 1)}, draw.Src)
		out.Image = append(out.Image, pal)
		out.Delay = append(out.Delay, delayCS)
	}
	var buf bytes.Buffer
	if err := gif.EncodeAll(&buf, out); err != nil {
		t.Fatalf("encoding fixture gif: %v", err)
	}
	return buf.Bytes()
}

// StaticAsset wraps encoded bytes as a static-image MediaAsset.
func StaticAsset(data []byte) sticker.MediaAsset {
	return sticker.MediaAsset{Bytes: data, Kind: sticker.KindStaticImage}
}

// AnimatedAsset wraps encoded bytes as an animated-image MediaAsset.
func AnimatedAsset(data []byte) sticker.MediaAsset {
	return sticker.MediaAsset{Bytes: data, Kind: sticker.KindAnimatedImage}
}
