// Package sticker contains the shared data model for the stickerforge
// conversion pipeline and pack state machine.
//
// All packages in this module exchange the types defined here: MediaAsset
// (raw inbound bytes), Frame (one decoded raster surface), Candidate (a
// converted sticker ready for delivery or pack insertion), TextSpec (text
// overlay instructions) and Limits (the target platform's binary
// constraints).
//
// The package also defines the error taxonomy. Every failure surfaced to
// the transport layer is a *sticker.Error carrying a machine-readable
// ErrorKind and a human-readable message:
//
//	cand, err := forge.Convert(ctx, user, req)
//	if err != nil {
//	    kind := sticker.KindOf(err) // e.g. sticker.KindPackFull
//	    ...
//	}
//
// Sentinel errors (ErrDecode, ErrPackFull, ...) support errors.Is matching
// through the whole chain.
package sticker
