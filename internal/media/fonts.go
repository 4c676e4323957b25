package media

import (
	"fmt"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"

	"nowplaying/internal/logging"
)

// Fonts holds the parsed title and regular typefaces. When either file
// cannot be loaded both roles use the built-in bitmap face.
type Fonts struct {
	title       *opentype.Font
	regular     *opentype.Font
	titleSize   float64
	regularSize float64
}

// LoadFonts parses the title and regular font files. It never fails: any
// error is logged and both roles fall back to basicfont.Face7x13.
func LoadFonts(titlePath, regularPath string, titleSize, regularSize float64) *Fonts {
	fallback := &Fonts{titleSize: titleSize, regularSize: regularSize}

	title, err := parseFont(titlePath)
	if err != nil {
		logging.Warn("Failed to load title font, using default font: %v", err)
		return fallback
	}
	regular, err := parseFont(regularPath)
	if err != nil {
		logging.Warn("Failed to load regular font, using default font: %v", err)
		return fallback
	}

	logging.Debug("Loaded fonts: title=%s regular=%s", titlePath, regularPath)
	return &Fonts{
		title:       title,
		regular:     regular,
		titleSize:   titleSize,
		regularSize: regularSize,
	}
}

// IsFallback reports whether the built-in face is in use.
func (f *Fonts) IsFallback() bool {
	return f == nil || f.title == nil || f.regular == nil
}

// Faces returns fresh title and regular faces for one composition. The
// returned release func closes them.
func (f *Fonts) Faces() (title, regular font.Face, release func()) {
	if f.IsFallback() {
		return basicfont.Face7x13, basicfont.Face7x13, func() {}
	}

	title, err := newFace(f.title, f.titleSize)
	if err != nil {
		logging.Warn("Failed to create title face, using default font: %v", err)
		return basicfont.Face7x13, basicfont.Face7x13, func() {}
	}
	regular, err = newFace(f.regular, f.regularSize)
	if err != nil {
		logging.Warn("Failed to create regular face, using default font: %v", err)
		closeFace(title)
		return basicfont.Face7x13, basicfont.Face7x13, func() {}
	}

	return title, regular, func() {
		closeFace(title)
		closeFace(regular)
	}
}

func parseFont(path string) (*opentype.Font, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read font %s: %w", path, err)
	}
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font %s: %w", path, err)
	}
	return f, nil
}

func newFace(f *opentype.Font, size float64) (font.Face, error) {
	return opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}

func closeFace(face font.Face) {
	if err := face.Close(); err != nil {
		logging.Debug("failed to close font face: %v", err)
	}
}
