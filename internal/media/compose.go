package media

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"
	"time"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"

	"nowplaying/internal/layout"
	"nowplaying/internal/logging"
	"nowplaying/internal/track"
)

var (
	colorRed   = color.NRGBA{R: 255, A: 255}
	colorGray  = color.NRGBA{R: 128, G: 128, B: 128, A: 255}
	colorBlack = color.NRGBA{A: 255}
	colorWhite = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
)

// workingCanvases is how many canvas-sized buffers Compose holds at its
// peak: the decoded cover, the stretched base, the blurred copy, the
// darkened canvas and the drawing context.
const workingCanvases = 5

// CompositionBytes estimates the peak heap of one Compose call for l.
func CompositionBytes(l layout.Layout) int64 {
	return int64(l.Width) * int64(l.Height) * 4 * workingCanvases
}

// Composer draws posters for a fixed layout. It is safe for concurrent use.
type Composer struct {
	Layout layout.Layout
	Fonts  *Fonts
	// IconsPath is the optional decorative icon strip. Missing is fine.
	IconsPath string
	// Loader decodes the cover; nil means LoadCover.
	Loader Loader
}

// Compose builds the poster for meta using the cover image at coverPath.
func (c *Composer) Compose(coverPath string, meta track.Metadata) (image.Image, error) {
	start := time.Now()
	l := c.Layout

	load := c.Loader
	if load == nil {
		load = LoadCover
	}
	cover, err := load(coverPath, l.Width, l.Height)
	if err != nil {
		return nil, fmt.Errorf("failed to load cover %s: %w", coverPath, err)
	}

	base := imaging.Resize(cover, l.Width, l.Height, imaging.Lanczos)
	canvas := background(base, l)
	frostPanel(canvas, l)
	pasteRounded(canvas, imaging.Resize(base, l.ThumbWidth, l.ThumbHeight, imaging.Lanczos), l.Thumb(), l.ThumbRadius)

	dc := gg.NewContextForImage(canvas)

	titleFace, regularFace, release := c.Fonts.Faces()
	defer release()

	drawText(dc, l, meta, titleFace, regularFace)
	drawProgressBar(dc, l, meta, regularFace)
	c.drawIcons(dc, l)

	logging.Debug("Composed poster from %s in %v", coverPath, time.Since(start))
	return dc.Image(), nil
}

// background blurs and darkens the stretched cover. The blur runs on a
// downscaled copy; at these radii the result is indistinguishable.
func background(base *image.NRGBA, l layout.Layout) *image.NRGBA {
	var blurred *image.NRGBA
	if l.BlurScale > 1 {
		small := imaging.Resize(base, l.Width/l.BlurScale, l.Height/l.BlurScale, imaging.Linear)
		small = imaging.Blur(small, l.BlurSigma/float64(l.BlurScale))
		blurred = imaging.Resize(small, l.Width, l.Height, imaging.Linear)
	} else {
		blurred = imaging.Blur(base, l.BlurSigma)
	}

	factor := l.Brightness
	return imaging.AdjustFunc(blurred, func(c color.NRGBA) color.NRGBA {
		return color.NRGBA{
			R: scaleChannel(c.R, factor),
			G: scaleChannel(c.G, factor),
			B: scaleChannel(c.B, factor),
			A: c.A,
		}
	})
}

func scaleChannel(v uint8, factor float64) uint8 {
	f := float64(v)*factor + 0.5
	switch {
	case f < 0:
		return 0
	case f > 255:
		return 255
	default:
		return uint8(f)
	}
}

// frostPanel lays translucent white over the panel region and pastes it
// back through a rounded mask.
func frostPanel(canvas *image.NRGBA, l layout.Layout) {
	panel := l.Panel()
	area := imaging.Crop(canvas, panel)
	white := imaging.New(panel.Dx(), panel.Dy(), colorWhite)
	frosted := imaging.Overlay(area, white, image.Point{}, float64(l.PanelAlpha)/255)
	pasteRounded(canvas, frosted, panel, l.PanelRadius)
}

// pasteRounded draws src into dst at rect, clipped to a rounded rectangle.
func pasteRounded(dst draw.Image, src image.Image, rect image.Rectangle, radius int) {
	mask := roundedMask(rect.Dx(), rect.Dy(), radius)
	draw.DrawMask(dst, rect, src, src.Bounds().Min, mask, image.Point{}, draw.Over)
}

func roundedMask(width, height, radius int) *image.Alpha {
	dc := gg.NewContext(width, height)
	dc.DrawRoundedRectangle(0, 0, float64(width), float64(height), float64(radius))
	dc.SetColor(color.White)
	dc.Fill()
	return dc.AsMask()
}

func drawText(dc *gg.Context, l layout.Layout, meta track.Metadata, titleFace, regularFace font.Face) {
	centerX := float64(l.Width) / 2

	dc.SetColor(colorBlack)
	dc.SetFontFace(titleFace)
	title := TruncateToWidth(titleFace, meta.Title, l.MaxTitleWidth)
	dc.DrawStringAnchored(title, centerX, float64(l.TitleY), 0.5, 1)

	dc.SetFontFace(regularFace)
	dc.DrawStringAnchored(MetaLine(l.SourceLabel, meta.Views), centerX, float64(l.MetaY), 0.5, 1)
}

// MetaLine is the text under the title, e.g. "YouTube | 1.2M views".
func MetaLine(source, views string) string {
	return source + " | " + views
}

func drawProgressBar(dc *gg.Context, l layout.Layout, meta track.Metadata, regularFace font.Face) {
	barX := float64(l.BarX)
	barY := float64(l.BarY)
	split := barX + float64(l.BarRedLen)
	end := barX + float64(l.BarTotalLen)

	dc.SetLineCapButt()

	dc.SetColor(colorGray)
	dc.SetLineWidth(float64(l.BarGrayWidth))
	dc.DrawLine(split, barY, end, barY)
	dc.Stroke()

	dc.SetColor(colorRed)
	dc.SetLineWidth(float64(l.BarRedWidth))
	dc.DrawLine(barX, barY, split, barY)
	dc.Stroke()

	dc.DrawCircle(split, barY, float64(l.ScrubRadius))
	dc.Fill()

	labelY := barY + float64(l.LabelGap)
	dc.SetFontFace(regularFace)
	dc.SetColor(colorBlack)
	dc.DrawStringAnchored("00:00", barX, labelY, 0, 1)

	if meta.IsLive() {
		dc.SetColor(colorRed)
	}
	dc.DrawStringAnchored(meta.DurationText(), end-float64(l.EndLabelBack), labelY, 0, 1)
}

func (c *Composer) drawIcons(dc *gg.Context, l layout.Layout) {
	if c.IconsPath == "" {
		return
	}
	if _, err := os.Stat(c.IconsPath); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logging.Warn("Cannot stat icons %s: %v", c.IconsPath, err)
		}
		return
	}

	icons, err := imaging.Open(c.IconsPath)
	if err != nil {
		logging.Warn("Skipping undecodable icons %s: %v", c.IconsPath, err)
		return
	}
	icons = imaging.Resize(icons, l.IconsWidth, l.IconsHeight, imaging.Lanczos)
	dc.DrawImage(icons, l.IconsX, l.IconsY)
}
