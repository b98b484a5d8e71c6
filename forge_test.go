package stickerforge

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prilive-com/stickerforge/convert"
	"github.com/prilive-com/stickerforge/internal/testutil"
	"github.com/prilive-com/stickerforge/sticker"
)

func newTestForge(t *testing.T, opts ...Option) *Forge {
	t.Helper()
	f, err := New(opts...)
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

func TestNewDefaults(t *testing.T) {
	f := newTestForge(t)
	assert.Equal(t, sticker.DefaultLimits(), f.Limits())
}

func TestNewRejectsBadConfig(t *testing.T) {
	_, err := New(WithMaxInFlight(0))
	assert.ErrorIs(t, err, sticker.ErrInvalidConfig)

	_, err = New(WithRequestTimeout(-time.Second))
	assert.ErrorIs(t, err, sticker.ErrInvalidConfig)
}

func TestConvertStickerify(t *testing.T) {
	f := newTestForge(t)

	cand, err := f.Convert(context.Background(), testutil.TestUserID, convert.Request{
		Op:    convert.OpStickerify,
		Asset: testutil.StaticAsset(testutil.PNG(t, 1200, 800)),
	})
	require.NoError(t, err)

	assert.Equal(t, sticker.FormatStatic, cand.Format)
	assert.Equal(t, 512, cand.Width)
}

func TestConvertBusy(t *testing.T) {
	f := newTestForge(t, WithMaxInFlight(1))

	// Occupy the only admission slot.
	f.slots <- struct{}{}
	defer func() { <-f.slots }()

	_, err := f.Convert(context.Background(), testutil.TestUserID, convert.Request{
		Op:    convert.OpStickerify,
		Asset: testutil.StaticAsset(testutil.PNG(t, 64, 64)),
	})
	require.ErrorIs(t, err, sticker.ErrBusy)
	assert.Equal(t, sticker.KindBusy, sticker.KindOf(err))
}

func TestConvertExpiredContext(t *testing.T) {
	f := newTestForge(t)

	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	_, err := f.Convert(ctx, testutil.TestUserID, convert.Request{
		Op:    convert.OpStickerify,
		Asset: testutil.StaticAsset(testutil.PNG(t, 64, 64)),
	})
	require.Error(t, err)
	assert.Equal(t, sticker.KindTimeout, sticker.KindOf(err))
}

func TestConvertQuote(t *testing.T) {
	f := newTestForge(t)

	cand, err := f.Convert(context.Background(), testutil.TestUserID, convert.Request{
		Op:     convert.OpQuote2Sticker,
		Quote:  "Simplicity is complicated",
		Author: "Rob",
	})
	require.NoError(t, err)
	assert.Equal(t, sticker.FormatStatic, cand.Format)
}

func TestPackLifecycleThroughForge(t *testing.T) {
	f := newTestForge(t)
	ctx := context.Background()

	first, err := f.Convert(ctx, testutil.TestUserID, convert.Request{
		Op:    convert.OpStickerify,
		Asset: testutil.StaticAsset(testutil.PNG(t, 300, 300)),
	})
	require.NoError(t, err)

	p, err := f.CreatePack(ctx, testutil.TestUserID, testutil.TestPackName, testutil.TestPackTitle, first)
	require.NoError(t, err)
	require.Len(t, p.Stickers, 1)

	second, err := f.Convert(ctx, testutil.TestUserID, convert.Request{
		Op:         convert.OpMeme,
		Asset:      testutil.StaticAsset(testutil.PNG(t, 400, 400)),
		TopText:    "when the build",
		BottomText: "is green",
	})
	require.NoError(t, err)

	p, err = f.AddSticker(ctx, testutil.TestUserID, testutil.TestPackName, second)
	require.NoError(t, err)
	assert.Len(t, p.Stickers, 2)

	got, err := f.Pack(ctx, testutil.TestUserID, testutil.TestPackName)
	require.NoError(t, err)
	assert.Equal(t, p.Stickers, got.Stickers)
}

type pngFetcher struct {
	data []byte
}

func (p *pngFetcher) Fetch(_ context.Context, _ sticker.Ref) ([]byte, error) {
	return p.data, nil
}

func TestKangThroughForge(t *testing.T) {
	source := testutil.PNG(t, 200, 200)
	f := newTestForge(t, WithFetcher(&pngFetcher{data: source}))
	ctx := context.Background()

	ref := sticker.Ref{FileID: "file-1", Format: sticker.FormatStatic}
	p, err := f.Kang(ctx, testutil.TestUserID, "stolen_goods", ref)
	require.NoError(t, err)

	assert.Equal(t, sticker.FormatStatic, p.Format)
	require.Len(t, p.Stickers, 1)
}

func TestKangWithoutFetcher(t *testing.T) {
	f := newTestForge(t)

	_, err := f.Kang(context.Background(), testutil.TestUserID, "stolen_goods", sticker.Ref{FileID: "x"})
	assert.Error(t, err)
}
