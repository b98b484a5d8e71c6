package sticker

import (
	"os"
	"strconv"
	"time"
)

// Limits holds the target platform's binary constraints. They are
// configuration, not constants: Telegram has changed them before, so every
// field is overridable via environment variables (see LoadLimits).
type Limits struct {
	// Input admission
	MaxInputBytes int // hard ceiling enforced before any probing

	// Static stickers
	MaxStaticDimension int
	MaxStaticBytes     int
	PadToSquare        bool // pad to a fixed square bounding box

	// Animated stickers
	MaxAnimatedDimension int
	MaxAnimatedDuration  time.Duration
	MaxAnimatedFrames    int
	MaxAnimatedBytes     int
	EncodeRetryBudget    int

	// Text rendering
	MinFontSize float64

	// Packs
	MaxStickersPerPack int
}

// DefaultLimits returns Limits matching the current Telegram sticker
// constraints.
func DefaultLimits() Limits {
	return Limits{
		MaxInputBytes:        50 << 20, // 50MB, matches Bot API download cap
		MaxStaticDimension:   512,
		MaxStaticBytes:       512 << 10,
		PadToSquare:          false,
		MaxAnimatedDimension: 512,
		MaxAnimatedDuration:  3 * time.Second,
		MaxAnimatedFrames:    50,
		MaxAnimatedBytes:     256 << 10,
		EncodeRetryBudget:    5,
		MinFontSize:          12,
		MaxStickersPerPack:   120,
	}
}

// LoadLimits loads Limits from environment variables, falling back to
// DefaultLimits for anything unset or unparseable.
func LoadLimits() Limits {
	l := DefaultLimits()

	if i, err := strconv.Atoi(getEnv("STICKERFORGE_MAX_INPUT_BYTES", "")); err == nil {
		l.MaxInputBytes = i
	}
	if i, err := strconv.Atoi(getEnv("STICKERFORGE_MAX_STATIC_DIMENSION", "")); err == nil {
		l.MaxStaticDimension = i
	}
	if i, err := strconv.Atoi(getEnv("STICKERFORGE_MAX_STATIC_BYTES", "")); err == nil {
		l.MaxStaticBytes = i
	}
	if b, err := strconv.ParseBool(getEnv("STICKERFORGE_PAD_TO_SQUARE", "")); err == nil {
		l.PadToSquare = b
	}
	if i, err := strconv.Atoi(getEnv("STICKERFORGE_MAX_ANIMATED_DIMENSION", "")); err == nil {
		l.MaxAnimatedDimension = i
	}
	if d, err := time.ParseDuration(getEnv("STICKERFORGE_MAX_ANIMATED_DURATION", "")); err == nil {
		l.MaxAnimatedDuration = d
	}
	if i, err := strconv.Atoi(getEnv("STICKERFORGE_MAX_ANIMATED_FRAMES", "")); err == nil {
		l.MaxAnimatedFrames = i
	}
	if i, err := strconv.Atoi(getEnv("STICKERFORGE_MAX_ANIMATED_BYTES", "")); err == nil {
		l.MaxAnimatedBytes = i
	}
	if i, err := strconv.Atoi(getEnv("STICKERFORGE_ENCODE_RETRY_BUDGET", "")); err == nil {
		l.EncodeRetryBudget = i
	}
	if f, err := strconv.ParseFloat(getEnv("STICKERFORGE_MIN_FONT_SIZE", ""), 64); err == nil {
		l.MinFontSize = f
	}
	if i, err := strconv.Atoi(getEnv("STICKERFORGE_MAX_STICKERS_PER_PACK", "")); err == nil {
		l.MaxStickersPerPack = i
	}

	return l
}

// Validate reports the first invalid field, wrapped in ErrInvalidConfig.
func (l Limits) Validate() error {
	switch {
	case l.MaxInputBytes <= 0:
		return WrapError(ErrInvalidConfig, "MaxInputBytes must be positive")
	case l.MaxStaticDimension <= 0:
		return WrapError(ErrInvalidConfig, "MaxStaticDimension must be positive")
	case l.MaxStaticBytes <= 0:
		return WrapError(ErrInvalidConfig, "MaxStaticBytes must be positive")
	case l.MaxAnimatedDimension <= 0:
		return WrapError(ErrInvalidConfig, "MaxAnimatedDimension must be positive")
	case l.MaxAnimatedDuration <= 0:
		return WrapError(ErrInvalidConfig, "MaxAnimatedDuration must be positive")
	case l.MaxAnimatedFrames <= 0:
		return WrapError(ErrInvalidConfig, "MaxAnimatedFrames must be positive")
	case l.MaxAnimatedBytes <= 0:
		return WrapError(ErrInvalidConfig, "MaxAnimatedBytes must be positive")
	case l.EncodeRetryBudget <= 0:
		return WrapError(ErrInvalidConfig, "EncodeRetryBudget must be positive")
	case l.MaxStickersPerPack <= 0:
		return WrapError(ErrInvalidConfig, "MaxStickersPerPack must be positive")
	}
	return nil
}

// MaxDimension returns the dimension limit for the given format.
func (l Limits) MaxDimension(f Format) int {
	if f == FormatAnimated {
		return l.MaxAnimatedDimension
	}
	return l.MaxStaticDimension
}

// MaxBytes returns the encoded-size limit for the given format.
func (l Limits) MaxBytes(f Format) int {
	if f == FormatAnimated {
		return l.MaxAnimatedBytes
	}
	return l.MaxStaticBytes
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
