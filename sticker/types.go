package sticker

import (
	"crypto/sha256"
	"encoding/hex"
	"image"
	"time"
)

// Kind classifies inbound media.
type Kind string

const (
	KindStaticImage   Kind = "static_image"
	KindAnimatedImage Kind = "animated_image"
	KindVideo         Kind = "video"
	KindText          Kind = "text"
)

// Format is the sticker format a pack is declared with.
// The platform forbids mixing formats within one pack.
type Format string

const (
	FormatStatic   Format = "static"
	FormatAnimated Format = "animated"
)

// MediaAsset is raw user-supplied media plus its declared kind.
// It is ephemeral: created on message receipt, discarded once the
// pipeline emits a Candidate or fails.
type MediaAsset struct {
	Bytes []byte
	Kind  Kind
	MIME  string // optional hint from the transport, may be empty
}

// Frame is one decoded raster surface with an optional display duration.
// Sequences of Frame form an animated asset; a duration of zero is valid
// for still frames.
type Frame struct {
	Image    *image.NRGBA
	Duration time.Duration
}

// Bounds returns the frame's pixel bounds.
func (f Frame) Bounds() image.Rectangle {
	if f.Image == nil {
		return image.Rectangle{}
	}
	return f.Image.Bounds()
}

// Candidate is the pipeline's output: an encoded sticker plus the
// metadata the compliance check and the pack state machine need.
//
// Invariant: every Candidate handed to the pack package already satisfies
// the platform Limits; the orchestrator's final check enforces this.
type Candidate struct {
	Format     Format
	Bytes      []byte
	Width      int
	Height     int
	FrameCount int
	Duration   time.Duration
	digest     string
}

// Size returns the encoded byte size.
func (c *Candidate) Size() int { return len(c.Bytes) }

// Digest returns a stable identity for the candidate, used for
// idempotent pack adds. Computed lazily from the encoded bytes.
func (c *Candidate) Digest() string {
	if c.digest == "" {
		sum := sha256.Sum256(c.Bytes)
		c.digest = hex.EncodeToString(sum[:])
	}
	return c.digest
}

// Position places a text block on the frame.
type Position string

const (
	PositionTop    Position = "top"
	PositionBottom Position = "bottom"
	PositionFree   Position = "free"
)

// SizeClass selects the rendering size range for a text block.
type SizeClass string

const (
	SizeNormal SizeClass = "normal"
	SizeLarge  SizeClass = "large"
)

// TextBlock is one block of text to composite onto a frame.
type TextBlock struct {
	Content  string
	Position Position
	Size     SizeClass
	Outline  bool
}

// TextSpec is an ordered set of text blocks. Build it with the helpers
// below; it is treated as immutable once constructed.
type TextSpec struct {
	Blocks []TextBlock
}

// MemeSpec builds the two fixed-position blocks of a classic meme.
// Text is uppercased at layout time, not here.
func MemeSpec(top, bottom string) TextSpec {
	return TextSpec{Blocks: []TextBlock{
		{Content: top, Position: PositionTop, Size: SizeLarge, Outline: true},
		{Content: bottom, Position: PositionBottom, Size: SizeLarge, Outline: true},
	}}
}

// CaptionSpec builds a single free-position block for /addtext.
func CaptionSpec(text string) TextSpec {
	return TextSpec{Blocks: []TextBlock{
		{Content: text, Position: PositionFree, Size: SizeNormal, Outline: true},
	}}
}

// Ref identifies an existing sticker on the platform, e.g. the source of
// a /kang. The transport supplies it; the core never dereferences FileID
// itself (see pack.Fetcher).
type Ref struct {
	FileID string
	Format Format
	Emoji  string
}

// UserID identifies the owning user. Identity management is external;
// the core only keys packs by it.
type UserID int64
