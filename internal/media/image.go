package media

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"math"
	"os"

	"nowplaying/internal/logging"

	// Image format decoders
	_ "image/gif"
	_ "image/jpeg"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // WebP covers
)

const (
	// MaxImageDimension is the maximum width or height we'll decode at full size.
	MaxImageDimension = 4096

	// MaxImagePixels is the maximum total pixels (width * height) we'll decode.
	MaxImagePixels = 20_000_000
)

// Loader decodes the cover at path. The result may be any size; it is
// stretched to the canvas afterwards. maxWidth and maxHeight hint the
// largest size the caller needs, so loaders may shrink while decoding.
type Loader func(path string, maxWidth, maxHeight int) (image.Image, error)

// LoadCover is the default Loader. Covers are usually small JPEGs, but a
// misbehaving source can serve anything, so oversized images are shrunk
// before they are handed to the compositor.
func LoadCover(path string, maxWidth, maxHeight int) (image.Image, error) {
	img, err := LoadImageConstrained(path, MaxImageDimension, MaxImagePixels)
	if err != nil {
		return nil, err
	}
	b := img.Bounds()
	if b.Dx() > 2*maxWidth || b.Dy() > 2*maxHeight {
		img = imaging.Fit(img, 2*maxWidth, 2*maxHeight, imaging.Lanczos)
	}
	return img, nil
}

// LoadImageConstrained loads an image, downscaling if it exceeds size limits.
func LoadImageConstrained(path string, maxDimension, maxPixels int) (image.Image, error) {
	dimensions, err := GetImageDimensions(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image header: %w", err)
	}

	width, height := dimensions.Width, dimensions.Height
	pixels := width * height

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}

	if width <= maxDimension && height <= maxDimension && pixels <= maxPixels {
		return img, nil
	}

	targetWidth, targetHeight := width, height
	if width > maxDimension || height > maxDimension {
		if width > height {
			targetWidth = maxDimension
			targetHeight = height * maxDimension / width
		} else {
			targetHeight = maxDimension
			targetWidth = width * maxDimension / height
		}
	}

	if targetPixels := targetWidth * targetHeight; targetPixels > maxPixels {
		scale := math.Sqrt(float64(maxPixels) / float64(targetPixels))
		targetWidth = int(float64(targetWidth) * scale)
		targetHeight = int(float64(targetHeight) * scale)
	}

	logging.Info("Constraining large image %s from %dx%d to %dx%d", path, width, height, targetWidth, targetHeight)
	return imaging.Resize(img, targetWidth, targetHeight, imaging.Lanczos), nil
}

// ImageDimensions holds image width and height
type ImageDimensions struct {
	Width  int
	Height int
}

// GetImageDimensions returns image dimensions without fully decoding the image
func GetImageDimensions(path string) (*ImageDimensions, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := file.Close(); err != nil {
			logging.Warn("failed to close image file %s: %v", path, err)
		}
	}()

	config, _, err := image.DecodeConfig(file)
	if err != nil {
		return nil, err
	}

	return &ImageDimensions{
		Width:  config.Width,
		Height: config.Height,
	}, nil
}

// EncodePNG writes img as a PNG. Posters are mostly flat colour and blur,
// so the default compression level is a good size/speed trade.
func EncodePNG(w io.Writer, img image.Image) error {
	enc := png.Encoder{CompressionLevel: png.DefaultCompression}
	if err := enc.Encode(w, img); err != nil {
		return fmt.Errorf("failed to encode png: %w", err)
	}
	return nil
}
