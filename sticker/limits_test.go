package sticker_test

import (
	"errors"
	"testing"
	"time"

	"github.com/prilive-com/stickerforge/sticker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultLimits(t *testing.T) {
	l := sticker.DefaultLimits()

	assert.Equal(t, 512, l.MaxStaticDimension)
	assert.Equal(t, 512, l.MaxAnimatedDimension)
	assert.Equal(t, 3*time.Second, l.MaxAnimatedDuration)
	assert.Equal(t, 50, l.MaxAnimatedFrames)
	assert.Equal(t, 5, l.EncodeRetryBudget)
	assert.Equal(t, 120, l.MaxStickersPerPack)
	require.NoError(t, l.Validate())
}

func TestLoadLimits_EnvOverride(t *testing.T) {
	t.Setenv("STICKERFORGE_MAX_STATIC_DIMENSION", "256")
	t.Setenv("STICKERFORGE_MAX_ANIMATED_DURATION", "2500ms")
	t.Setenv("STICKERFORGE_MAX_STICKERS_PER_PACK", "50")

	l := sticker.LoadLimits()
	assert.Equal(t, 256, l.MaxStaticDimension)
	assert.Equal(t, 2500*time.Millisecond, l.MaxAnimatedDuration)
	assert.Equal(t, 50, l.MaxStickersPerPack)

	// untouched fields keep defaults
	assert.Equal(t, sticker.DefaultLimits().MaxAnimatedBytes, l.MaxAnimatedBytes)
}

func TestLoadLimits_IgnoresGarbage(t *testing.T) {
	t.Setenv("STICKERFORGE_MAX_STATIC_DIMENSION", "not-a-number")

	l := sticker.LoadLimits()
	assert.Equal(t, sticker.DefaultLimits().MaxStaticDimension, l.MaxStaticDimension)
}

func TestLimits_Validate(t *testing.T) {
	l := sticker.DefaultLimits()
	l.MaxAnimatedFrames = 0

	err := l.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, sticker.ErrInvalidConfig))
}

func TestLimits_PerFormatAccessors(t *testing.T) {
	l := sticker.DefaultLimits()
	l.MaxStaticDimension = 512
	l.MaxAnimatedDimension = 256
	l.MaxStaticBytes = 1000
	l.MaxAnimatedBytes = 500

	assert.Equal(t, 512, l.MaxDimension(sticker.FormatStatic))
	assert.Equal(t, 256, l.MaxDimension(sticker.FormatAnimated))
	assert.Equal(t, 1000, l.MaxBytes(sticker.FormatStatic))
	assert.Equal(t, 500, l.MaxBytes(sticker.FormatAnimated))
}
