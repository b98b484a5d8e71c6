package convert

import (
	"context"
	"log/slog"

	"github.com/prilive-com/stickerforge/probe"
	"github.com/prilive-com/stickerforge/sticker"
)

// Op selects which conversion pipeline a Request runs.
type Op string

const (
	OpStickerify    Op = "stickerify"
	OpAddText       Op = "addtext"
	OpMeme          Op = "meme"
	OpGIF2Sticker   Op = "gif2sticker"
	OpQuote2Sticker Op = "quote2sticker"
)

// Request is the tagged variant dispatched by the orchestrator: the
// operation kind plus whichever payload fields that operation reads.
type Request struct {
	Op    Op
	Asset sticker.MediaAsset

	// OpAddText
	Text string

	// OpMeme
	TopText    string
	BottomText string

	// OpQuote2Sticker
	Quote  string
	Author string
}

// Orchestrator sequences the converters for each operation and enforces
// the final compliance check. That check is the single enforcement point:
// whatever an individual converter produced, nothing non-compliant leaves
// Do with a nil error.
type Orchestrator struct {
	limits     sticker.Limits
	compositor *Compositor
	animated   *Animated
	logger     *slog.Logger
}

// OrchestratorOption configures the Orchestrator.
type OrchestratorOption func(*orchestratorConfig)

type orchestratorConfig struct {
	fontPath string
	decoder  FrameDecoder
	logger   *slog.Logger
}

// WithFontPath uses a custom TTF/OTF for text rendering.
func WithFontPath(path string) OrchestratorOption {
	return func(c *orchestratorConfig) { c.fontPath = path }
}

// WithVideoDecoder installs a FrameDecoder for video sources.
func WithVideoDecoder(d FrameDecoder) OrchestratorOption {
	return func(c *orchestratorConfig) { c.decoder = d }
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) OrchestratorOption {
	return func(c *orchestratorConfig) { c.logger = logger }
}

// NewOrchestrator creates an orchestrator for the given platform limits.
func NewOrchestrator(limits sticker.Limits, opts ...OrchestratorOption) (*Orchestrator, error) {
	if err := limits.Validate(); err != nil {
		return nil, err
	}

	cfg := orchestratorConfig{logger: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}

	fonts, err := NewFontManager(cfg.fontPath)
	if err != nil {
		return nil, err
	}

	animatedOpts := []AnimatedOption{WithAnimatedLogger(cfg.logger)}
	if cfg.decoder != nil {
		animatedOpts = append(animatedOpts, WithFrameDecoder(cfg.decoder))
	}

	return &Orchestrator{
		limits:     limits,
		compositor: NewCompositor(fonts, limits),
		animated:   NewAnimated(limits, animatedOpts...),
		logger:     cfg.logger,
	}, nil
}

// Do runs one conversion request through its pipeline and the final
// compliance check.
func (o *Orchestrator) Do(ctx context.Context, req Request) (*sticker.Candidate, error) {
	cand, err := o.dispatch(ctx, req)
	if err != nil {
		return nil, err
	}

	if err := CheckCompliance(cand, o.limits); err != nil {
		o.logger.Warn("candidate failed final compliance check",
			"op", string(req.Op),
			"bytes", cand.Size(),
			"width", cand.Width,
			"height", cand.Height,
			"frames", cand.FrameCount)
		return nil, err
	}

	o.logger.Info("conversion complete",
		"op", string(req.Op),
		"format", string(cand.Format),
		"bytes", cand.Size(),
		"frames", cand.FrameCount)
	return cand, nil
}

func (o *Orchestrator) dispatch(ctx context.Context, req Request) (*sticker.Candidate, error) {
	switch req.Op {
	case OpStickerify:
		return o.stickerify(ctx, req.Asset)

	case OpAddText:
		return o.withText(ctx, req.Asset, sticker.CaptionSpec(req.Text))

	case OpMeme:
		return o.withText(ctx, req.Asset, sticker.MemeSpec(req.TopText, req.BottomText))

	case OpGIF2Sticker:
		info, err := probe.Inspect(req.Asset.Bytes, o.limits)
		if err != nil {
			return nil, err
		}
		if info.Kind != sticker.KindAnimatedImage && info.Kind != sticker.KindVideo {
			return nil, sticker.NewError(sticker.KindUnsupportedFormat,
				"gif2sticker needs an animated source, got %q", info.Kind)
		}
		asset := req.Asset
		asset.Kind = info.Kind
		return o.animated.Convert(ctx, asset)

	case OpQuote2Sticker:
		frame, err := o.compositor.Quote(req.Quote, req.Author)
		if err != nil {
			return nil, err
		}
		return EncodeStill(frame)
	}

	return nil, sticker.NewError(sticker.KindUnsupportedFormat, "unknown operation %q", req.Op)
}

// stickerify converts a still source. Animated sources are accepted and
// reduced to their first frame, matching how photo uploads behave.
func (o *Orchestrator) stickerify(_ context.Context, asset sticker.MediaAsset) (*sticker.Candidate, error) {
	info, err := probe.Inspect(asset.Bytes, o.limits)
	if err != nil {
		return nil, err
	}
	if info.Kind == sticker.KindVideo || info.Kind == sticker.KindText {
		return nil, sticker.NewError(sticker.KindUnsupportedFormat,
			"stickerify needs a still image, got %q", info.Kind)
	}

	frame, err := Rasterize(asset, o.limits)
	if err != nil {
		return nil, err
	}
	return EncodeStill(frame)
}

func (o *Orchestrator) withText(_ context.Context, asset sticker.MediaAsset, spec sticker.TextSpec) (*sticker.Candidate, error) {
	info, err := probe.Inspect(asset.Bytes, o.limits)
	if err != nil {
		return nil, err
	}
	if info.Kind != sticker.KindStaticImage && info.Kind != sticker.KindAnimatedImage {
		return nil, sticker.NewError(sticker.KindUnsupportedFormat,
			"text overlay needs a raster image, got %q", info.Kind)
	}

	// Resize before compositing so font fitting works against final
	// sticker geometry.
	frame, err := Rasterize(asset, o.limits)
	if err != nil {
		return nil, err
	}

	composed, err := o.compositor.Compose(frame, spec)
	if err != nil {
		return nil, err
	}
	return EncodeStill(composed)
}

// ReEncode converts an already-compliant sticker's bytes into the target
// format, used by the pack machine when a kanged sticker's format differs
// from the destination pack.
func (o *Orchestrator) ReEncode(ctx context.Context, data []byte, target sticker.Format) (*sticker.Candidate, error) {
	info, err := probe.Inspect(data, o.limits)
	if err != nil {
		return nil, err
	}

	asset := sticker.MediaAsset{Bytes: data, Kind: info.Kind, MIME: info.MIME}

	if target == sticker.FormatAnimated {
		if info.Kind != sticker.KindAnimatedImage && info.Kind != sticker.KindVideo {
			return nil, sticker.NewError(sticker.KindFormatMismatch,
				"cannot animate a %q source", info.Kind)
		}
		cand, err := o.animated.Convert(ctx, asset)
		if err != nil {
			return nil, err
		}
		if err := CheckCompliance(cand, o.limits); err != nil {
			return nil, err
		}
		return cand, nil
	}

	// Static target: any raster source collapses to its first frame.
	frame, err := Rasterize(asset, o.limits)
	if err != nil {
		return nil, err
	}
	cand, err := EncodeStill(frame)
	if err != nil {
		return nil, err
	}
	if err := CheckCompliance(cand, o.limits); err != nil {
		return nil, err
	}
	return cand, nil
}

// Limits returns the platform limits the orchestrator enforces.
func (o *Orchestrator) Limits() sticker.Limits { return o.limits }

// CheckCompliance verifies a candidate against every platform constraint
// for its format: dimensions, byte size, and for animated candidates
// frame count and duration.
func CheckCompliance(c *sticker.Candidate, limits sticker.Limits) error {
	if c == nil || len(c.Bytes) == 0 {
		return sticker.NewError(sticker.KindCompliance, "empty candidate")
	}

	maxDim := limits.MaxDimension(c.Format)
	if c.Width > maxDim || c.Height > maxDim {
		return sticker.NewError(sticker.KindCompliance,
			"%dx%d exceeds maximum dimension %d", c.Width, c.Height, maxDim)
	}
	if c.Width <= 0 || c.Height <= 0 {
		return sticker.NewError(sticker.KindCompliance, "candidate has no geometry")
	}

	if c.Size() > limits.MaxBytes(c.Format) {
		return sticker.NewError(sticker.KindCompliance,
			"%d bytes exceeds maximum %d", c.Size(), limits.MaxBytes(c.Format))
	}

	if c.Format == sticker.FormatAnimated {
		if c.FrameCount < 1 {
			return sticker.NewError(sticker.KindCompliance, "animated candidate has no frames")
		}
		if c.FrameCount > limits.MaxAnimatedFrames {
			return sticker.NewError(sticker.KindCompliance,
				"%d frames exceeds maximum %d", c.FrameCount, limits.MaxAnimatedFrames)
		}
		if c.Duration > limits.MaxAnimatedDuration {
			return sticker.NewError(sticker.KindCompliance,
				"duration %s exceeds maximum %s", c.Duration, limits.MaxAnimatedDuration)
		}
	}

	return nil
}
