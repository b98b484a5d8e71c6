package convert

import (
	"image"
	"image/color"
	"image/draw"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"github.com/prilive-com/stickerforge/sticker"
)

// Compositor overlays text blocks onto raster frames. Font sizes are
// chosen per block by binary search so the text fills its region without
// overflowing; blocks that cannot fit even at the minimum readable size
// fail with ErrLayoutOverflow instead of rendering unreadably.
type Compositor struct {
	fonts  *FontManager
	limits sticker.Limits
}

// NewCompositor creates a compositor rendering with the given fonts.
func NewCompositor(fonts *FontManager, limits sticker.Limits) *Compositor {
	return &Compositor{fonts: fonts, limits: limits}
}

// Compose renders every block of spec onto a copy of base, background
// first, text last. The base frame is not modified.
func (c *Compositor) Compose(base sticker.Frame, spec sticker.TextSpec) (sticker.Frame, error) {
	if base.Image == nil {
		return sticker.Frame{}, sticker.NewError(sticker.KindDecode, "compositor needs a decoded base frame")
	}

	canvas := cloneNRGBA(base.Image)

	for _, block := range spec.Blocks {
		if strings.TrimSpace(block.Content) == "" {
			continue
		}
		if err := c.drawBlock(canvas, block); err != nil {
			return sticker.Frame{}, err
		}
	}

	return sticker.Frame{Image: canvas, Duration: base.Duration}, nil
}

// Quote synthesizes a sticker from text alone: wrapped white text over a
// translucent dark box on a transparent square canvas, with an optional
// author attribution beneath in a smaller face.
func (c *Compositor) Quote(text, author string) (sticker.Frame, error) {
	if strings.TrimSpace(text) == "" {
		return sticker.Frame{}, sticker.NewError(sticker.KindLayoutOverflow, "quote text is empty")
	}

	size := c.limits.MaxStaticDimension
	canvas := image.NewNRGBA(image.Rect(0, 0, size, size))

	pad := size / 16
	region := image.Rect(pad*2, pad*2, size-pad*2, size-pad*2)
	if author != "" {
		// Reserve the bottom of the region for the attribution line.
		region.Max.Y -= size / 8
	}

	layout, err := c.fitBlock(text, region, float64(region.Dy()))
	if err != nil {
		return sticker.Frame{}, err
	}

	// Background box hugs the laid-out text, not the whole region.
	box := layout.bounds(region, alignMiddle).Inset(-pad)
	box = box.Intersect(canvas.Bounds())
	draw.Draw(canvas, box, image.NewUniform(color.NRGBA{A: 128}), image.Point{}, draw.Over)

	c.render(canvas, layout, region, alignMiddle, true)

	if author != "" {
		authorRegion := image.Rect(region.Min.X, region.Max.Y, region.Max.X, size-pad*2)
		al, err := c.fitBlock("— "+author, authorRegion, float64(authorRegion.Dy())/2)
		if err != nil {
			return sticker.Frame{}, err
		}
		c.render(canvas, al, authorRegion, alignMiddle, true)
	}

	return sticker.Frame{Image: canvas}, nil
}

type vAlign int

const (
	alignTop vAlign = iota
	alignMiddle
	alignBottom
)

// drawBlock lays out and renders one text block on the canvas.
func (c *Compositor) drawBlock(canvas *image.NRGBA, block sticker.TextBlock) error {
	b := canvas.Bounds()
	pad := b.Dy() / 24

	content := block.Content
	var region image.Rectangle
	var align vAlign

	switch block.Position {
	case sticker.PositionTop:
		// Band text is meme-style: uppercase, pinned to its quarter.
		content = strings.ToUpper(content)
		region = image.Rect(b.Min.X+pad, b.Min.Y+pad, b.Max.X-pad, b.Min.Y+b.Dy()/4)
		align = alignTop
	case sticker.PositionBottom:
		content = strings.ToUpper(content)
		region = image.Rect(b.Min.X+pad, b.Max.Y-b.Dy()/4, b.Max.X-pad, b.Max.Y-pad)
		align = alignBottom
	default: // free
		region = b.Inset(pad)
		align = alignMiddle
	}

	maxSize := float64(region.Dy())
	if block.Size == sticker.SizeNormal {
		maxSize /= 2
	}

	layout, err := c.fitBlock(content, region, maxSize)
	if err != nil {
		return err
	}

	c.render(canvas, layout, region, align, block.Outline)
	return nil
}

// blockLayout is the result of a successful fit: wrapped lines plus the
// face they were measured with.
type blockLayout struct {
	lines      []string
	face       font.Face
	lineHeight int
	ascent     int
	widths     []int
}

// fitBlock binary-searches integer point sizes in
// [limits.MinFontSize, maxSize] for the largest face whose wrapped layout
// fits the region.
func (c *Compositor) fitBlock(content string, region image.Rectangle, maxSize float64) (blockLayout, error) {
	lo := int(c.limits.MinFontSize)
	hi := int(maxSize)
	if hi < lo {
		hi = lo
	}

	var best *blockLayout
	for lo <= hi {
		mid := (lo + hi) / 2
		layout, ok, err := c.tryLayout(content, region, float64(mid))
		if err != nil {
			return blockLayout{}, err
		}
		if ok {
			best = &layout
			lo = mid + 1
		} else {
			hi = mid - 1
		}
	}

	if best == nil {
		return blockLayout{}, sticker.NewError(sticker.KindLayoutOverflow,
			"text %q does not fit its region at %gpt", truncate(content, 40), c.limits.MinFontSize)
	}
	return *best, nil
}

// tryLayout wraps content at the given size and reports whether the
// result fits the region.
func (c *Compositor) tryLayout(content string, region image.Rectangle, size float64) (blockLayout, bool, error) {
	face, err := c.fonts.Face(size)
	if err != nil {
		return blockLayout{}, false, err
	}

	metrics := face.Metrics()
	lineHeight := metrics.Height.Ceil()
	ascent := metrics.Ascent.Ceil()

	lines, widths, ok := wrap(content, face, region.Dx())
	if !ok {
		return blockLayout{}, false, nil
	}
	if len(lines)*lineHeight > region.Dy() {
		return blockLayout{}, false, nil
	}

	return blockLayout{
		lines:      lines,
		face:       face,
		lineHeight: lineHeight,
		ascent:     ascent,
		widths:     widths,
	}, true, nil
}

// wrap greedily fills lines up to maxWidth. A single word wider than
// maxWidth makes the layout unfittable at this size.
func wrap(content string, face font.Face, maxWidth int) (lines []string, widths []int, ok bool) {
	words := strings.Fields(content)
	var cur string

	flush := func() {
		if cur != "" {
			lines = append(lines, cur)
			widths = append(widths, font.MeasureString(face, cur).Ceil())
			cur = ""
		}
	}

	for _, word := range words {
		if font.MeasureString(face, word).Ceil() > maxWidth {
			return nil, nil, false
		}
		candidate := word
		if cur != "" {
			candidate = cur + " " + word
		}
		if font.MeasureString(face, candidate).Ceil() <= maxWidth {
			cur = candidate
			continue
		}
		flush()
		cur = word
	}
	flush()

	return lines, widths, len(lines) > 0
}

// bounds returns the pixel rectangle the rendered layout will cover
// inside region with the given vertical alignment.
func (l blockLayout) bounds(region image.Rectangle, align vAlign) image.Rectangle {
	maxW := 0
	for _, w := range l.widths {
		if w > maxW {
			maxW = w
		}
	}
	h := len(l.lines) * l.lineHeight
	y := topFor(region, h, align)
	x := region.Min.X + (region.Dx()-maxW)/2
	return image.Rect(x, y, x+maxW, y+h)
}

func topFor(region image.Rectangle, height int, align vAlign) int {
	switch align {
	case alignBottom:
		return region.Max.Y - height
	case alignMiddle:
		return region.Min.Y + (region.Dy()-height)/2
	default:
		return region.Min.Y
	}
}

// render draws the laid-out lines, centered horizontally, optionally with
// a black outline under the white fill for legibility on any background.
func (c *Compositor) render(canvas *image.NRGBA, layout blockLayout, region image.Rectangle, align vAlign, outline bool) {
	top := topFor(region, len(layout.lines)*layout.lineHeight, align)

	outlineWidth := 0
	if outline {
		outlineWidth = 2
	}

	for i, line := range layout.lines {
		x := region.Min.X + (region.Dx()-layout.widths[i])/2
		y := top + i*layout.lineHeight + layout.ascent

		if outline {
			for dx := -outlineWidth; dx <= outlineWidth; dx++ {
				for dy := -outlineWidth; dy <= outlineWidth; dy++ {
					if dx == 0 && dy == 0 {
						continue
					}
					drawString(canvas, layout.face, line, x+dx, y+dy, color.Black)
				}
			}
		}
		drawString(canvas, layout.face, line, x, y, color.White)
	}
}

func drawString(dst *image.NRGBA, face font.Face, s string, x, y int, c color.Color) {
	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

func cloneNRGBA(src *image.NRGBA) *image.NRGBA {
	dst := image.NewNRGBA(src.Bounds())
	copy(dst.Pix, src.Pix)
	return dst
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
