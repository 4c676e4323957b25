// Package layout holds the fixed poster geometry. A Layout is built once at
// startup, optionally from a YAML override file, and never mutated after.
package layout

import (
	"errors"
	"fmt"
	"image"
	"os"

	"gopkg.in/yaml.v3"
)

// Layout is the render context: canvas size, panel and thumbnail bounds,
// text baselines, and progress bar geometry. The Base fields are what an
// override file sets; Derive fills in the positions computed from them.
type Layout struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`

	PanelWidth   int `yaml:"panel_width"`
	PanelHeight  int `yaml:"panel_height"`
	PanelAlpha   int `yaml:"panel_alpha"`
	PanelRadius  int `yaml:"panel_radius"`
	InnerOffset  int `yaml:"inner_offset"`
	ThumbWidth   int `yaml:"thumb_width"`
	ThumbHeight  int `yaml:"thumb_height"`
	ThumbRadius  int `yaml:"thumb_radius"`
	TitleGap     int `yaml:"title_gap"`
	MetaGap      int `yaml:"meta_gap"`
	BarGap       int `yaml:"bar_gap"`
	BarInset     int `yaml:"bar_inset"`
	BarRedLen    int `yaml:"bar_red_len"`
	BarTotalLen  int `yaml:"bar_total_len"`
	BarRedWidth  int `yaml:"bar_red_width"`
	BarGrayWidth int `yaml:"bar_gray_width"`
	ScrubRadius  int `yaml:"scrub_radius"`
	LabelGap     int `yaml:"label_gap"`
	EndLabelBack int `yaml:"end_label_back"`
	IconsWidth   int `yaml:"icons_width"`
	IconsHeight  int `yaml:"icons_height"`
	IconsGap     int `yaml:"icons_gap"`

	MaxTitleWidth   int     `yaml:"max_title_width"`
	TitleFontSize   float64 `yaml:"title_font_size"`
	RegularFontSize float64 `yaml:"regular_font_size"`
	BlurSigma       float64 `yaml:"blur_sigma"`
	BlurScale       int     `yaml:"blur_scale"`
	Brightness      float64 `yaml:"brightness"`
	SourceLabel     string  `yaml:"source_label"`

	// Derived positions.
	PanelX int `yaml:"-"`
	PanelY int `yaml:"-"`
	ThumbX int `yaml:"-"`
	ThumbY int `yaml:"-"`
	TitleY int `yaml:"-"`
	MetaY  int `yaml:"-"`
	BarX   int `yaml:"-"`
	BarY   int `yaml:"-"`
	IconsX int `yaml:"-"`
	IconsY int `yaml:"-"`
}

// Default returns the full-HD poster layout.
func Default() Layout {
	l := Layout{
		Width:           1920,
		Height:          1080,
		PanelWidth:      1100,
		PanelHeight:     750,
		PanelAlpha:      180,
		PanelRadius:     60,
		InnerOffset:     60,
		ThumbWidth:      820,
		ThumbHeight:     420,
		ThumbRadius:     40,
		TitleGap:        30,
		MetaGap:         70,
		BarGap:          80,
		BarInset:        150,
		BarRedLen:       400,
		BarTotalLen:     700,
		BarRedWidth:     10,
		BarGrayWidth:    8,
		ScrubRadius:     12,
		LabelGap:        20,
		EndLabelBack:    120,
		IconsWidth:      600,
		IconsHeight:     80,
		IconsGap:        80,
		MaxTitleWidth:   900,
		TitleFontSize:   55,
		RegularFontSize: 35,
		BlurSigma:       25,
		BlurScale:       4,
		Brightness:      0.55,
		SourceLabel:     "YouTube",
	}
	l.Derive()
	return l
}

// Load reads a YAML file whose fields override the defaults. An empty path
// returns the defaults.
func Load(path string) (Layout, error) {
	l := Default()
	if path == "" {
		return l, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Layout{}, fmt.Errorf("failed to read layout file: %w", err)
	}
	if err := yaml.Unmarshal(data, &l); err != nil {
		return Layout{}, fmt.Errorf("failed to parse layout file %s: %w", path, err)
	}

	l.Derive()
	if err := l.Validate(); err != nil {
		return Layout{}, fmt.Errorf("invalid layout in %s: %w", path, err)
	}
	return l, nil
}

// Derive recomputes every position from the base sizes and gaps.
func (l *Layout) Derive() {
	l.PanelX = (l.Width - l.PanelWidth) / 2
	l.PanelY = (l.Height - l.PanelHeight) / 2
	l.ThumbX = l.PanelX + (l.PanelWidth-l.ThumbWidth)/2
	l.ThumbY = l.PanelY + l.InnerOffset
	l.TitleY = l.ThumbY + l.ThumbHeight + l.TitleGap
	l.MetaY = l.TitleY + l.MetaGap
	l.BarY = l.MetaY + l.BarGap
	l.BarX = l.PanelX + l.BarInset
	l.IconsX = l.PanelX + (l.PanelWidth-l.IconsWidth)/2
	l.IconsY = l.BarY + l.IconsGap
}

// Validate rejects layouts that cannot be drawn.
func (l Layout) Validate() error {
	var errs []error
	positive := map[string]int{
		"width":           l.Width,
		"height":          l.Height,
		"panel_width":     l.PanelWidth,
		"panel_height":    l.PanelHeight,
		"thumb_width":     l.ThumbWidth,
		"thumb_height":    l.ThumbHeight,
		"icons_width":     l.IconsWidth,
		"icons_height":    l.IconsHeight,
		"max_title_width": l.MaxTitleWidth,
		"blur_scale":      l.BlurScale,
	}
	for name, v := range positive {
		if v <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %d", name, v))
		}
	}
	if l.BlurScale > min(l.Width, l.Height) {
		errs = append(errs, fmt.Errorf("blur_scale %d shrinks the %dx%d canvas to nothing", l.BlurScale, l.Width, l.Height))
	}
	if l.PanelWidth > l.Width || l.PanelHeight > l.Height {
		errs = append(errs, fmt.Errorf("panel %dx%d does not fit canvas %dx%d", l.PanelWidth, l.PanelHeight, l.Width, l.Height))
	}
	if l.ThumbWidth > l.PanelWidth {
		errs = append(errs, fmt.Errorf("thumbnail width %d exceeds panel width %d", l.ThumbWidth, l.PanelWidth))
	}
	if l.PanelAlpha < 0 || l.PanelAlpha > 255 {
		errs = append(errs, fmt.Errorf("panel_alpha must be within 0-255, got %d", l.PanelAlpha))
	}
	if l.BarRedLen > l.BarTotalLen {
		errs = append(errs, fmt.Errorf("bar_red_len %d exceeds bar_total_len %d", l.BarRedLen, l.BarTotalLen))
	}
	if l.TitleFontSize <= 0 || l.RegularFontSize <= 0 {
		errs = append(errs, errors.New("font sizes must be positive"))
	}
	if l.Brightness < 0 {
		errs = append(errs, fmt.Errorf("brightness must not be negative, got %v", l.Brightness))
	}
	return errors.Join(errs...)
}

// Canvas returns the full poster rectangle.
func (l Layout) Canvas() image.Rectangle {
	return image.Rect(0, 0, l.Width, l.Height)
}

// Panel returns the frosted panel rectangle.
func (l Layout) Panel() image.Rectangle {
	return image.Rect(l.PanelX, l.PanelY, l.PanelX+l.PanelWidth, l.PanelY+l.PanelHeight)
}

// Thumb returns the cover thumbnail rectangle.
func (l Layout) Thumb() image.Rectangle {
	return image.Rect(l.ThumbX, l.ThumbY, l.ThumbX+l.ThumbWidth, l.ThumbY+l.ThumbHeight)
}

// Icons returns the decorative icon strip rectangle.
func (l Layout) Icons() image.Rectangle {
	return image.Rect(l.IconsX, l.IconsY, l.IconsX+l.IconsWidth, l.IconsY+l.IconsHeight)
}
