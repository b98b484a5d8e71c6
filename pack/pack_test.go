package pack

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prilive-com/stickerforge/convert"
	"github.com/prilive-com/stickerforge/internal/testutil"
	"github.com/prilive-com/stickerforge/sticker"
)

func testLimits() sticker.Limits {
	limits := sticker.DefaultLimits()
	limits.MaxStickersPerPack = 3
	return limits
}

func newTestManager(t *testing.T, opts ...ManagerOption) (*Manager, *MemoryRegistry) {
	t.Helper()
	reg := NewMemoryRegistry()
	m, err := NewManager(reg, testLimits(), opts...)
	require.NoError(t, err)
	return m, reg
}

// staticCandidate builds a unique compliant static candidate. seed
// varies the pixel data so digests differ.
func staticCandidate(t *testing.T, seed uint8) *sticker.Candidate {
	t.Helper()
	img := testutil.Gradient(64, 64)
	img.Pix[0] = seed
	cand, err := convert.EncodeStill(sticker.Frame{Image: img})
	require.NoError(t, err)
	return cand
}

func animatedCandidate(seed byte) *sticker.Candidate {
	return &sticker.Candidate{
		Format:     sticker.FormatAnimated,
		Bytes:      []byte{'G', 'I', 'F', seed},
		Width:      128,
		Height:     128,
		FrameCount: 4,
		Duration:   400 * time.Millisecond,
	}
}

// =============================================================================
// CREATE TESTS
// =============================================================================

func TestCreatePack(t *testing.T) {
	m, reg := newTestManager(t)

	cand := staticCandidate(t, 1)
	p, err := m.Create(context.Background(), testutil.TestUserID, "cats", "Cats!", cand)
	require.NoError(t, err)

	assert.Equal(t, StatePopulated, p.State())
	assert.Equal(t, sticker.FormatStatic, p.Format)
	require.Len(t, p.Stickers, 1)
	assert.Equal(t, cand.Digest(), p.Stickers[0].Digest)
	assert.Equal(t, 1, reg.Len())
}

func TestCreateDuplicateName(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	_, err := m.Create(ctx, testutil.TestUserID, "cats", "Cats!", staticCandidate(t, 1))
	require.NoError(t, err)

	_, err = m.Create(ctx, testutil.TestUserID, "cats", "More Cats", staticCandidate(t, 2))
	assert.ErrorIs(t, err, sticker.ErrDuplicateName)

	// A different user can reuse the name.
	_, err = m.Create(ctx, testutil.TestOtherUserID, "cats", "Cats!", staticCandidate(t, 1))
	assert.NoError(t, err)
}

func TestCreateRejectsBadName(t *testing.T) {
	m, reg := newTestManager(t)

	_, err := m.Create(context.Background(), testutil.TestUserID, "9 bad name!", "Title", staticCandidate(t, 1))
	assert.Error(t, err)
	assert.Equal(t, 0, reg.Len())
}

func TestCreateRejectsNonCompliant(t *testing.T) {
	m, reg := newTestManager(t)

	cand := staticCandidate(t, 1)
	cand.Width = 4096 // over the dimension ceiling

	_, err := m.Create(context.Background(), testutil.TestUserID, "cats", "Cats!", cand)
	assert.ErrorIs(t, err, sticker.ErrCompliance)
	assert.Equal(t, 0, reg.Len())
}

// =============================================================================
// ADD TESTS
// =============================================================================

func TestAddPreservesInsertionOrder(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	first := staticCandidate(t, 1)
	second := staticCandidate(t, 2)
	third := staticCandidate(t, 3)

	_, err := m.Create(ctx, testutil.TestUserID, "cats", "Cats!", first)
	require.NoError(t, err)
	_, err = m.Add(ctx, testutil.TestUserID, "cats", second)
	require.NoError(t, err)
	p, err := m.Add(ctx, testutil.TestUserID, "cats", third)
	require.NoError(t, err)

	require.Len(t, p.Stickers, 3)
	assert.Equal(t, first.Digest(), p.Stickers[0].Digest)
	assert.Equal(t, second.Digest(), p.Stickers[1].Digest)
	assert.Equal(t, third.Digest(), p.Stickers[2].Digest)
}

func TestAddIsIdempotent(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	cand := staticCandidate(t, 2)
	_, err := m.Create(ctx, testutil.TestUserID, "cats", "Cats!", staticCandidate(t, 1))
	require.NoError(t, err)

	p, err := m.Add(ctx, testutil.TestUserID, "cats", cand)
	require.NoError(t, err)
	require.Len(t, p.Stickers, 2)

	// Same digest again: no-op success, size changes by exactly 1 overall.
	p, err = m.Add(ctx, testutil.TestUserID, "cats", cand)
	require.NoError(t, err)
	assert.Len(t, p.Stickers, 2)
}

func TestAddMissingPack(t *testing.T) {
	m, _ := newTestManager(t)

	_, err := m.Add(context.Background(), testutil.TestUserID, "nope", staticCandidate(t, 1))
	assert.ErrorIs(t, err, sticker.ErrPackNotFound)
}

func TestAddFormatMismatch(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	_, err := m.Create(ctx, testutil.TestUserID, "cats", "Cats!", staticCandidate(t, 1))
	require.NoError(t, err)

	_, err = m.Add(ctx, testutil.TestUserID, "cats", animatedCandidate(1))
	assert.ErrorIs(t, err, sticker.ErrFormatMismatch)

	p, err := m.Get(ctx, testutil.TestUserID, "cats")
	require.NoError(t, err)
	assert.Len(t, p.Stickers, 1)
}

func TestAddPackFull(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	_, err := m.Create(ctx, testutil.TestUserID, "cats", "Cats!", staticCandidate(t, 1))
	require.NoError(t, err)
	_, err = m.Add(ctx, testutil.TestUserID, "cats", staticCandidate(t, 2))
	require.NoError(t, err)
	_, err = m.Add(ctx, testutil.TestUserID, "cats", staticCandidate(t, 3))
	require.NoError(t, err)

	_, err = m.Add(ctx, testutil.TestUserID, "cats", staticCandidate(t, 4))
	assert.ErrorIs(t, err, sticker.ErrPackFull)

	p, err := m.Get(ctx, testutil.TestUserID, "cats")
	require.NoError(t, err)
	assert.Len(t, p.Stickers, 3)
}

// =============================================================================
// KANG TESTS
// =============================================================================

type fakeFetcher struct {
	data     []byte
	err      error
	failures int // errors to return before succeeding
	calls    int
}

func (f *fakeFetcher) Fetch(_ context.Context, _ sticker.Ref) ([]byte, error) {
	f.calls++
	if f.failures > 0 {
		f.failures--
		return nil, errors.New("platform unavailable")
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.data, nil
}

type fakeReEncoder struct {
	lastTarget sticker.Format
}

func (r *fakeReEncoder) ReEncode(_ context.Context, data []byte, target sticker.Format) (*sticker.Candidate, error) {
	r.lastTarget = target
	c := &sticker.Candidate{
		Format: target,
		Bytes:  append([]byte(nil), data...),
		Width:  128,
		Height: 128,
	}
	if target == sticker.FormatAnimated {
		c.FrameCount = 4
		c.Duration = 400 * time.Millisecond
	} else {
		c.FrameCount = 1
	}
	return c, nil
}

func TestKangIntoExistingPack(t *testing.T) {
	fetcher := &fakeFetcher{data: []byte("source-bytes")}
	reenc := &fakeReEncoder{}
	m, _ := newTestManager(t, WithKangSource(fetcher, reenc))
	ctx := context.Background()

	_, err := m.Create(ctx, testutil.TestUserID, "cats", "Cats!", staticCandidate(t, 1))
	require.NoError(t, err)

	// Source is animated but the pack is static: re-encode targets the
	// pack's format.
	ref := sticker.Ref{FileID: "abc", Format: sticker.FormatAnimated, Emoji: "X"}
	p, err := m.Kang(ctx, testutil.TestUserID, "cats", ref)
	require.NoError(t, err)

	assert.Equal(t, sticker.FormatStatic, reenc.lastTarget)
	require.Len(t, p.Stickers, 2)
	assert.Equal(t, "X", p.Stickers[1].Emoji)
}

func TestKangAutoCreatesPack(t *testing.T) {
	fetcher := &fakeFetcher{data: []byte("source-bytes")}
	reenc := &fakeReEncoder{}
	m, reg := newTestManager(t, WithKangSource(fetcher, reenc))

	ref := sticker.Ref{FileID: "abc", Format: sticker.FormatAnimated}
	p, err := m.Kang(context.Background(), testutil.TestUserID, "loot", ref)
	require.NoError(t, err)

	// No pack existed, so the source's own format is kept.
	assert.Equal(t, sticker.FormatAnimated, p.Format)
	assert.Equal(t, "loot", p.Title)
	require.Len(t, p.Stickers, 1)
	assert.Equal(t, DefaultEmoji, p.Stickers[0].Emoji)
	assert.Equal(t, 1, reg.Len())
}

func TestKangRetriesTransientFetch(t *testing.T) {
	fetcher := &fakeFetcher{data: []byte("source-bytes"), failures: 1}
	reenc := &fakeReEncoder{}
	m, _ := newTestManager(t, WithKangSource(fetcher, reenc))

	ref := sticker.Ref{FileID: "abc", Format: sticker.FormatStatic}
	_, err := m.Kang(context.Background(), testutil.TestUserID, "loot", ref)
	require.NoError(t, err)
	assert.Equal(t, 2, fetcher.calls)
}

func TestKangFetchFailureMutatesNothing(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("gone")}
	m, reg := newTestManager(t, WithKangSource(fetcher, &fakeReEncoder{}))

	ref := sticker.Ref{FileID: "abc", Format: sticker.FormatStatic}
	_, err := m.Kang(context.Background(), testutil.TestUserID, "loot", ref)
	assert.Error(t, err)
	assert.Equal(t, 0, reg.Len())
}

func TestKangWithoutSource(t *testing.T) {
	m, _ := newTestManager(t)

	_, err := m.Kang(context.Background(), testutil.TestUserID, "loot", sticker.Ref{FileID: "abc"})
	assert.Error(t, err)
}

// =============================================================================
// CONCURRENCY TESTS
// =============================================================================

func TestConcurrentAddsSerializePerPack(t *testing.T) {
	ctx := context.Background()

	limits := testLimits()
	limits.MaxStickersPerPack = 64
	m, err := NewManager(NewMemoryRegistry(), limits)
	require.NoError(t, err)

	_, err = m.Create(ctx, testutil.TestUserID, "cats", "Cats!", staticCandidate(t, 0))
	require.NoError(t, err)

	const n = 8
	candidates := make([]*sticker.Candidate, n)
	for i := range candidates {
		candidates[i] = staticCandidate(t, uint8(i+1))
	}

	done := make(chan error, n)
	for _, cand := range candidates {
		go func(c *sticker.Candidate) {
			_, addErr := m.Add(ctx, testutil.TestUserID, "cats", c)
			done <- addErr
		}(cand)
	}
	for i := 0; i < n; i++ {
		require.NoError(t, <-done)
	}

	p, err := m.Get(ctx, testutil.TestUserID, "cats")
	require.NoError(t, err)
	assert.Len(t, p.Stickers, n+1)
}

func TestRegistryKeyIsPerUser(t *testing.T) {
	assert.NotEqual(t,
		registryKey(1, "cats"),
		registryKey(2, "cats"))
	assert.Equal(t,
		fmt.Sprintf("%d/cats", testutil.TestUserID),
		registryKey(testutil.TestUserID, "cats"))
}
