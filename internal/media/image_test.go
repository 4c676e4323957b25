package media

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

// createTestImage writes a solid-colour image to path.
func createTestImage(t *testing.T, path string, width, height int, c color.Color, format string) {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create test image file: %v", err)
	}
	defer f.Close()

	switch format {
	case "jpeg", "jpg":
		err = jpeg.Encode(f, img, &jpeg.Options{Quality: 90})
	case "png":
		err = png.Encode(f, img)
	default:
		t.Fatalf("Unsupported test image format: %s", format)
	}
	if err != nil {
		t.Fatalf("Failed to encode test image: %v", err)
	}
}

func TestGetImageDimensions(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		name   string
		width  int
		height int
		format string
	}{
		{"small png", 64, 32, "png"},
		{"landscape jpeg", 320, 180, "jpeg"},
		{"portrait png", 90, 160, "png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(tmpDir, tt.name+"."+tt.format)
			createTestImage(t, path, tt.width, tt.height, color.White, tt.format)

			dims, err := GetImageDimensions(path)
			if err != nil {
				t.Fatalf("GetImageDimensions() error: %v", err)
			}
			if dims.Width != tt.width || dims.Height != tt.height {
				t.Errorf("dimensions = %dx%d, want %dx%d", dims.Width, dims.Height, tt.width, tt.height)
			}
		})
	}
}

func TestGetImageDimensionsErrors(t *testing.T) {
	tmpDir := t.TempDir()

	if _, err := GetImageDimensions(filepath.Join(tmpDir, "missing.png")); err == nil {
		t.Error("expected error for missing file")
	}

	garbage := filepath.Join(tmpDir, "garbage.png")
	if err := os.WriteFile(garbage, []byte("not an image"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	if _, err := GetImageDimensions(garbage); err == nil {
		t.Error("expected error for undecodable file")
	}
}

func TestLoadImageConstrained(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		name         string
		width        int
		height       int
		maxDimension int
		maxPixels    int
		wantWidth    int
		wantHeight   int
	}{
		{"within limits", 200, 100, 400, 100_000, 200, 100},
		{"too wide", 800, 200, 400, 1_000_000, 400, 100},
		{"too tall", 100, 800, 400, 1_000_000, 50, 400},
		{"too many pixels", 400, 400, 1000, 40_000, 200, 200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(tmpDir, tt.name+".png")
			createTestImage(t, path, tt.width, tt.height, color.Black, "png")

			img, err := LoadImageConstrained(path, tt.maxDimension, tt.maxPixels)
			if err != nil {
				t.Fatalf("LoadImageConstrained() error: %v", err)
			}
			b := img.Bounds()
			if b.Dx() != tt.wantWidth || b.Dy() != tt.wantHeight {
				t.Errorf("size = %dx%d, want %dx%d", b.Dx(), b.Dy(), tt.wantWidth, tt.wantHeight)
			}
		})
	}
}

func TestLoadCover(t *testing.T) {
	tmpDir := t.TempDir()

	small := filepath.Join(tmpDir, "small.jpg")
	createTestImage(t, small, 480, 360, color.White, "jpeg")
	img, err := LoadCover(small, 1920, 1080)
	if err != nil {
		t.Fatalf("LoadCover() error: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 480 || b.Dy() != 360 {
		t.Errorf("small cover should load unchanged, got %v", b)
	}

	big := filepath.Join(tmpDir, "big.png")
	createTestImage(t, big, 1000, 100, color.White, "png")
	img, err = LoadCover(big, 200, 100)
	if err != nil {
		t.Fatalf("LoadCover() error: %v", err)
	}
	if b := img.Bounds(); b.Dx() > 400 || b.Dy() > 200 {
		t.Errorf("big cover should be shrunk to at most 400x200, got %v", b)
	}

	if _, err := LoadCover(filepath.Join(tmpDir, "missing.jpg"), 1920, 1080); err == nil {
		t.Error("expected error for missing cover")
	}
}

func TestEncodePNG(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 16, 9))

	var buf bytes.Buffer
	if err := EncodePNG(&buf, img); err != nil {
		t.Fatalf("EncodePNG() error: %v", err)
	}

	decoded, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("output is not a PNG: %v", err)
	}
	if decoded.Bounds() != img.Bounds() {
		t.Errorf("bounds = %v, want %v", decoded.Bounds(), img.Bounds())
	}
}
