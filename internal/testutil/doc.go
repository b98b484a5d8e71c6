// Package testutil provides testing utilities for stickerforge.
//
// This package is intended for internal testing only and should not be
// imported by external packages.
//
// # Media Fixtures
//
// Conversion and probing tests need real encoded media. The builders here
// produce deterministic in-memory assets:
//
//	png := testutil.PNG(t, 1200, 800)           // encoded still
//	gif := testutil.GIF(t, 320, 240, 40, 10)    // 40 frames, 100ms apiece
//	frame := testutil.SolidFrame(64, 64, color.White)
//
// # Test Constants
//
// Common identifiers are available:
//
//	testutil.TestUserID   // pack-owning user
//	testutil.TestPackName // valid pack short name
package testutil
