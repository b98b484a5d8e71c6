package convert

import (
	"bytes"
	"context"
	"image"
	"image/draw"
	"image/gif"
	"log/slog"
	"time"

	"github.com/prilive-com/stickerforge/sticker"
)

// defaultFrameDuration substitutes for the zero delay some GIF encoders
// write; browsers render those at roughly 10fps.
const defaultFrameDuration = 100 * time.Millisecond

// FrameDecoder turns encoded multi-frame media into an ordered frame
// sequence. The built-in implementation handles GIF; video containers
// (MP4/WebM) need an injected decoder backed by external tooling, which
// is a transport-side concern.
type FrameDecoder interface {
	// Decode returns the source's frames in display order with per-frame
	// durations. It must honor ctx cancellation.
	Decode(ctx context.Context, asset sticker.MediaAsset) ([]sticker.Frame, error)
}

// Animated converts multi-frame sources into compliant animated
// candidates: decode, clamp duration and frame count, resize every frame
// to one shared target, re-encode under the byte budget.
type Animated struct {
	limits  sticker.Limits
	decoder FrameDecoder
	logger  *slog.Logger
}

// AnimatedOption configures the Animated converter.
type AnimatedOption func(*Animated)

// WithFrameDecoder installs a decoder for video sources.
func WithFrameDecoder(d FrameDecoder) AnimatedOption {
	return func(a *Animated) { a.decoder = d }
}

// WithAnimatedLogger sets a custom logger.
func WithAnimatedLogger(logger *slog.Logger) AnimatedOption {
	return func(a *Animated) { a.logger = logger }
}

// NewAnimated creates an animated converter.
func NewAnimated(limits sticker.Limits, opts ...AnimatedOption) *Animated {
	a := &Animated{limits: limits, logger: slog.Default()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Convert runs the full animated pipeline on a GIF or video asset.
func (a *Animated) Convert(ctx context.Context, asset sticker.MediaAsset) (*sticker.Candidate, error) {
	frames, err := a.decode(ctx, asset)
	if err != nil {
		return nil, err
	}

	frames = normalizeDurations(frames)
	frames = Downsample(frames, a.limits.MaxAnimatedDuration, a.limits.MaxAnimatedFrames)

	// One shared target dimension, chosen from the first frame: all
	// frames of a sticker must agree.
	first := frames[0].Bounds()
	tw, th := targetSize(first.Dx(), first.Dy(), a.limits.MaxAnimatedDimension)
	for i, f := range frames {
		resized := f.Image
		if b := f.Bounds(); b.Dx() != tw || b.Dy() != th {
			resized = scale(f.Image, tw, th)
		}
		frames[i] = sticker.Frame{Image: resized, Duration: f.Duration}
	}

	return a.encodeWithinBudget(ctx, frames, tw, th)
}

// encodeWithinBudget re-encodes until the byte budget is met, reducing
// frame count first (frame parity preserves loop feel better than color
// loss) and palette size second. The shrink schedule is an explicit loop
// bounded by EncodeRetryBudget.
func (a *Animated) encodeWithinBudget(ctx context.Context, frames []sticker.Frame, w, h int) (*sticker.Candidate, error) {
	paletteSize := 256

	for attempt := 0; attempt < a.limits.EncodeRetryBudget; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, sticker.WrapError(sticker.ErrTimeout, "animated encode canceled: %v", err)
		}

		data, err := encodeAnimation(frames, paletteSize)
		if err != nil {
			return nil, err
		}

		if len(data) <= a.limits.MaxAnimatedBytes {
			return &sticker.Candidate{
				Format:     sticker.FormatAnimated,
				Bytes:      data,
				Width:      w,
				Height:     h,
				FrameCount: len(frames),
				Duration:   totalDuration(frames),
			}, nil
		}

		a.logger.Debug("animated encode over budget",
			"attempt", attempt+1,
			"bytes", len(data),
			"budget", a.limits.MaxAnimatedBytes,
			"frames", len(frames),
			"palette", paletteSize)

		if len(frames) > 2 && attempt%2 == 0 {
			frames = halveFrames(frames)
		} else {
			paletteSize /= 2
		}
	}

	return nil, sticker.NewError(sticker.KindCompressionBudget,
		"animation still over %d bytes after %d encode attempts",
		a.limits.MaxAnimatedBytes, a.limits.EncodeRetryBudget)
}

func (a *Animated) decode(ctx context.Context, asset sticker.MediaAsset) ([]sticker.Frame, error) {
	switch asset.Kind {
	case sticker.KindAnimatedImage:
		return DecodeGIF(asset.Bytes)
	case sticker.KindVideo:
		if a.decoder == nil {
			return nil, sticker.NewError(sticker.KindUnsupportedFormat,
				"no frame decoder installed for video sources")
		}
		frames, err := a.decoder.Decode(ctx, asset)
		if err != nil {
			return nil, sticker.WrapError(err, "decoding video")
		}
		if len(frames) == 0 {
			return nil, sticker.NewError(sticker.KindDecode, "video decoder produced no frames")
		}
		return frames, nil
	}
	return nil, sticker.NewError(sticker.KindUnsupportedFormat,
		"animated converter cannot handle kind %q", asset.Kind)
}

// DecodeGIF decodes an animated GIF into fully composited frames,
// honoring per-frame disposal methods so partial-update GIFs render the
// way a viewer shows them.
func DecodeGIF(data []byte) ([]sticker.Frame, error) {
	src, err := gif.DecodeAll(bytes.NewReader(data))
	if err != nil {
		return nil, sticker.WrapError(sticker.ErrDecode, "decoding gif: %v", err)
	}
	if len(src.Image) == 0 {
		return nil, sticker.WrapError(sticker.ErrDecode, "gif has no frames")
	}

	bounds := image.Rect(0, 0, src.Config.Width, src.Config.Height)
	if bounds.Empty() {
		bounds = src.Image[0].Bounds()
	}
	canvas := image.NewNRGBA(bounds)
	frames := make([]sticker.Frame, 0, len(src.Image))

	for i, frame := range src.Image {
		var restore *image.NRGBA
		if i < len(src.Disposal) && src.Disposal[i] == gif.DisposalPrevious {
			restore = cloneNRGBA(canvas)
		}

		draw.Draw(canvas, frame.Bounds(), frame, frame.Bounds().Min, draw.Over)

		snapshot := cloneNRGBA(canvas)
		duration := time.Duration(0)
		if i < len(src.Delay) {
			duration = time.Duration(src.Delay[i]) * 10 * time.Millisecond
		}
		frames = append(frames, sticker.Frame{Image: snapshot, Duration: duration})

		if i < len(src.Disposal) {
			switch src.Disposal[i] {
			case gif.DisposalBackground:
				draw.Draw(canvas, frame.Bounds(), image.Transparent, image.Point{}, draw.Src)
			case gif.DisposalPrevious:
				canvas = restore
			}
		}
	}

	return frames, nil
}

// Downsample clamps a frame sequence to the duration and frame-count
// budgets. Frames are dropped at a regular stride with their durations
// folded into the surviving predecessor, so relative timing and the loop
// point survive; the timeline is then compressed uniformly to fit the
// duration budget. The stride is computed from the duration ratio first:
// when both constraints bind, duration wins.
func Downsample(frames []sticker.Frame, maxDuration time.Duration, maxFrames int) []sticker.Frame {
	total := totalDuration(frames)

	stride := 1
	if total > maxDuration && maxDuration > 0 {
		stride = int((total + maxDuration - 1) / maxDuration)
	}
	if maxFrames > 0 {
		if kept := (len(frames) + stride - 1) / stride; kept > maxFrames {
			stride = (len(frames) + maxFrames - 1) / maxFrames
		}
	}

	if stride > 1 {
		frames = dropStride(frames, stride)
	}

	if total > maxDuration && maxDuration > 0 {
		// Uniform time compression: every folded duration scaled by the
		// same factor, never tail truncation.
		for i := range frames {
			frames[i].Duration = time.Duration(int64(frames[i].Duration) * int64(maxDuration) / int64(total))
		}
	}

	return frames
}

// dropStride keeps every stride-th frame, folding the durations of
// dropped frames into the most recent survivor.
func dropStride(frames []sticker.Frame, stride int) []sticker.Frame {
	out := make([]sticker.Frame, 0, (len(frames)+stride-1)/stride)
	for i, f := range frames {
		if i%stride == 0 {
			out = append(out, f)
		} else {
			out[len(out)-1].Duration += f.Duration
		}
	}
	return out
}

// halveFrames drops every other frame, folding durations, for the
// compression budget loop.
func halveFrames(frames []sticker.Frame) []sticker.Frame {
	return dropStride(frames, 2)
}

func normalizeDurations(frames []sticker.Frame) []sticker.Frame {
	for i := range frames {
		if frames[i].Duration <= 0 {
			frames[i].Duration = defaultFrameDuration
		}
	}
	return frames
}

func totalDuration(frames []sticker.Frame) time.Duration {
	var total time.Duration
	for _, f := range frames {
		total += f.Duration
	}
	return total
}
