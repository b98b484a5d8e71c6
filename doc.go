// Package stickerforge turns arbitrary user media into Telegram-compliant
// stickers and manages user-owned sticker packs.
//
// # Quick Start
//
//	forge, err := stickerforge.New(
//	    stickerforge.WithMaxInFlight(16),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer forge.Close()
//
//	cand, err := forge.Convert(ctx, userID, convert.Request{
//	    Op:    convert.OpStickerify,
//	    Asset: sticker.MediaAsset{Bytes: photo, Kind: sticker.KindStaticImage},
//	})
//
// # Direct pipeline access
//
// Services that only need conversion can use the subpackages directly:
//
//	// Probe media without decoding frames
//	import "github.com/prilive-com/stickerforge/probe"
//	info, _ := probe.Inspect(data, limits)
//
//	// Run the conversion pipeline without admission control
//	import "github.com/prilive-com/stickerforge/convert"
//	orch, _ := convert.NewOrchestrator(limits)
//
// # Shared Types
//
// Assets, candidates, limits and the error taxonomy are in the sticker
// subpackage:
//
//	import "github.com/prilive-com/stickerforge/sticker"
//	var cand sticker.Candidate
//	var limits sticker.Limits
//
// # Features
//
//   - Still, GIF and video sources behind one dispatch surface
//   - Meme, caption and quote text compositing with outline rendering
//   - Animated downsampling that preserves loop timing
//   - Pack state machine with idempotent adds and per-pack locking
//   - Circuit breaker with sony/gobreaker around kang fetches
//   - Per-user and global rate limiting, bounded in-flight conversions
//   - Structured logging with slog
//   - Platform limits configurable via environment
package stickerforge
