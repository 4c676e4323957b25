package layout

import (
	"image"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultGeometry(t *testing.T) {
	l := Default()

	tests := []struct {
		name string
		got  int
		want int
	}{
		{"PanelX", l.PanelX, 410},
		{"PanelY", l.PanelY, 165},
		{"ThumbX", l.ThumbX, 550},
		{"ThumbY", l.ThumbY, 225},
		{"TitleY", l.TitleY, 675},
		{"MetaY", l.MetaY, 745},
		{"BarY", l.BarY, 825},
		{"BarX", l.BarX, 560},
		{"IconsX", l.IconsX, 660},
		{"IconsY", l.IconsY, 905},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("%s = %d, want %d", tt.name, tt.got, tt.want)
			}
		})
	}

	if err := l.Validate(); err != nil {
		t.Errorf("default layout should validate: %v", err)
	}
}

func TestRectangles(t *testing.T) {
	l := Default()

	if got := l.Canvas(); got != image.Rect(0, 0, 1920, 1080) {
		t.Errorf("Canvas() = %v", got)
	}
	if got := l.Panel(); got != image.Rect(410, 165, 1510, 915) {
		t.Errorf("Panel() = %v", got)
	}
	if got := l.Thumb(); got != image.Rect(550, 225, 1370, 645) {
		t.Errorf("Thumb() = %v", got)
	}
	if !l.Thumb().In(l.Panel()) {
		t.Error("thumbnail should sit inside the panel")
	}
	if got := l.Icons(); got != image.Rect(660, 905, 1260, 985) {
		t.Errorf("Icons() = %v", got)
	}
}

func TestLoadEmptyPathReturnsDefault(t *testing.T) {
	l, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error: %v", err)
	}
	if l != Default() {
		t.Error("Load(\"\") should return the default layout")
	}
}

func TestLoadOverridesAndDerives(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layout.yaml")
	content := "width: 1280\nheight: 720\npanel_width: 800\npanel_height: 500\nsource_label: Music\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write layout file: %v", err)
	}

	l, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if l.Width != 1280 || l.Height != 720 {
		t.Errorf("canvas = %dx%d, want 1280x720", l.Width, l.Height)
	}
	if l.PanelX != 240 || l.PanelY != 110 {
		t.Errorf("panel origin = (%d,%d), want (240,110)", l.PanelX, l.PanelY)
	}
	if l.ThumbWidth != 820 {
		t.Errorf("unset fields should keep defaults, ThumbWidth = %d", l.ThumbWidth)
	}
	if l.SourceLabel != "Music" {
		t.Errorf("SourceLabel = %q, want Music", l.SourceLabel)
	}
}

func TestLoadRejectsInvalidLayout(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"panel too wide", "panel_width: 5000\n", "does not fit canvas"},
		{"zero thumb", "thumb_height: 0\n", "thumb_height must be positive"},
		{"alpha range", "panel_alpha: 300\n", "panel_alpha"},
		{"bar lengths", "bar_red_len: 900\n", "bar_red_len"},
		{"blur scale beyond canvas", "blur_scale: 2000\n", "blur_scale 2000"},
		{"malformed yaml", "width: [1, 2\n", "failed to parse"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "layout.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatalf("failed to write layout file: %v", err)
			}

			_, err := Load(path)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q should contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestValidateBlurScaleBound(t *testing.T) {
	tests := []struct {
		scale   int
		wantErr bool
	}{
		{1, false},
		{4, false},
		{1080, false},
		{1081, true},
		{1920, true},
	}

	for _, tt := range tests {
		l := Default()
		l.BlurScale = tt.scale
		err := l.Validate()
		if (err != nil) != tt.wantErr {
			t.Errorf("BlurScale %d: Validate() error = %v, wantErr %v", tt.scale, err, tt.wantErr)
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing layout file")
	}
}
