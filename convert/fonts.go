package convert

import (
	"os"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/opentype"

	"github.com/prilive-com/stickerforge/sticker"
)

// FontManager loads one typeface and hands out faces at arbitrary sizes.
// Defaults to the embedded Go Bold font (sticker text wants weight); a
// custom TTF/OTF path can be supplied.
type FontManager struct {
	parsed *opentype.Font

	mu    sync.Mutex
	faces map[float64]font.Face
}

// NewFontManager creates a font manager. If customPath is empty the
// embedded font is used; an unreadable or unparseable custom font is an
// error, not a silent fallback.
func NewFontManager(customPath string) (*FontManager, error) {
	data := gobold.TTF
	if customPath != "" {
		var err error
		data, err = os.ReadFile(customPath)
		if err != nil {
			return nil, sticker.WrapError(sticker.ErrInvalidConfig, "reading font %s: %v", customPath, err)
		}
	}

	parsed, err := opentype.Parse(data)
	if err != nil {
		return nil, sticker.WrapError(sticker.ErrInvalidConfig, "parsing font: %v", err)
	}

	return &FontManager{parsed: parsed, faces: make(map[float64]font.Face)}, nil
}

// Face returns a font.Face at the given point size. Faces are cached:
// the layout binary search requests the same handful of sizes repeatedly.
func (fm *FontManager) Face(size float64) (font.Face, error) {
	fm.mu.Lock()
	defer fm.mu.Unlock()

	if f, ok := fm.faces[size]; ok {
		return f, nil
	}

	f, err := opentype.NewFace(fm.parsed, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, sticker.WrapError(sticker.ErrInvalidConfig, "creating %gpt face: %v", size, err)
	}
	fm.faces[size] = f
	return f, nil
}
