package sticker_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/prilive-com/stickerforge/sticker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewError_MatchesSentinel(t *testing.T) {
	err := sticker.NewError(sticker.KindPackFull, "pack %q has %d stickers", "cats", 120)

	assert.True(t, errors.Is(err, sticker.ErrPackFull))
	assert.Contains(t, err.Error(), "pack_full")
	assert.Contains(t, err.Error(), `pack "cats" has 120 stickers`)
}

func TestWrapError_PreservesChain(t *testing.T) {
	inner := fmt.Errorf("gif: %w", sticker.ErrDecode)
	err := sticker.WrapError(inner, "decoding animation")

	assert.True(t, errors.Is(err, sticker.ErrDecode))
	assert.Equal(t, sticker.KindDecode, err.Kind)

	var se *sticker.Error
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "decoding animation", se.Message)
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want sticker.ErrorKind
	}{
		{"unsupported", sticker.ErrUnsupportedFormat, sticker.KindUnsupportedFormat},
		{"decode", sticker.ErrDecode, sticker.KindDecode},
		{"layout", sticker.ErrLayoutOverflow, sticker.KindLayoutOverflow},
		{"budget", sticker.ErrCompressionBudget, sticker.KindCompressionBudget},
		{"compliance", sticker.ErrCompliance, sticker.KindCompliance},
		{"duplicate", sticker.ErrDuplicateName, sticker.KindDuplicateName},
		{"not found", sticker.ErrPackNotFound, sticker.KindPackNotFound},
		{"mismatch", sticker.ErrFormatMismatch, sticker.KindFormatMismatch},
		{"full", sticker.ErrPackFull, sticker.KindPackFull},
		{"timeout", sticker.ErrTimeout, sticker.KindTimeout},
		{"busy", sticker.ErrBusy, sticker.KindBusy},
		{"wrapped", fmt.Errorf("while adding: %w", sticker.ErrPackFull), sticker.KindPackFull},
		{"unknown", errors.New("boom"), sticker.KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sticker.KindOf(tt.err))
		})
	}
}

func TestCandidate_DigestStable(t *testing.T) {
	a := &sticker.Candidate{Bytes: []byte("same bytes")}
	b := &sticker.Candidate{Bytes: []byte("same bytes")}
	c := &sticker.Candidate{Bytes: []byte("other bytes")}

	assert.Equal(t, a.Digest(), b.Digest())
	assert.NotEqual(t, a.Digest(), c.Digest())
	assert.Equal(t, a.Digest(), a.Digest(), "digest must be stable across calls")
}
