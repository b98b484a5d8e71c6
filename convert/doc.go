// Package convert implements the media-to-sticker conversion pipeline:
// the raster converter, text compositor, animated converter and the
// orchestrator that sequences them.
//
// The Orchestrator is the public entry point. It dispatches a tagged
// Request (one variant per user command) to the right converter chain and
// runs the final compliance check, the single point that guarantees no
// non-compliant candidate escapes the pipeline:
//
//	orch, err := convert.NewOrchestrator(limits, convert.WithLogger(logger))
//	cand, err := orch.Do(ctx, convert.Request{
//	    Op:    convert.OpStickerify,
//	    Asset: asset,
//	})
//
// Individual converters may be used directly when a caller already knows
// the media kind, but their output has not passed the compliance gate.
package convert
