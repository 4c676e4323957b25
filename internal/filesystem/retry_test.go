package filesystem

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"
)

func TestDefaultRetryConfig(t *testing.T) {
	config := DefaultRetryConfig()

	if config.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want 3", config.MaxRetries)
	}
	if config.InitialBackoff != 50*time.Millisecond {
		t.Errorf("InitialBackoff = %v, want 50ms", config.InitialBackoff)
	}
	if config.MaxBackoff != 500*time.Millisecond {
		t.Errorf("MaxBackoff = %v, want 500ms", config.MaxBackoff)
	}
}

func TestIsNFSStaleError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error", nil, false},
		{"ESTALE error", syscall.ESTALE, true},
		{"wrapped ESTALE", &os.PathError{Op: "stat", Path: "/x", Err: syscall.ESTALE}, true},
		{"ENOENT error", syscall.ENOENT, false},
		{"generic error", os.ErrNotExist, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isNFSStaleError(tt.err); got != tt.want {
				t.Errorf("isNFSStaleError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func fastRetryConfig() RetryConfig {
	return RetryConfig{MaxRetries: 3, InitialBackoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond}
}

func TestStatWithRetryRecoversFromStaleHandle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "poster.png")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	calls := 0
	statFunc = func(name string) (os.FileInfo, error) {
		calls++
		if calls < 3 {
			return nil, &os.PathError{Op: "stat", Path: name, Err: syscall.ESTALE}
		}
		return os.Stat(name)
	}
	defer func() { statFunc = os.Stat }()

	info, err := StatWithRetry(path, fastRetryConfig())
	if err != nil {
		t.Fatalf("StatWithRetry() error: %v", err)
	}
	if info.Size() != 1 {
		t.Errorf("Size = %d, want 1", info.Size())
	}
	if calls != 3 {
		t.Errorf("stat called %d times, want 3", calls)
	}
}

func TestStatWithRetryGivesUp(t *testing.T) {
	calls := 0
	statFunc = func(name string) (os.FileInfo, error) {
		calls++
		return nil, &os.PathError{Op: "stat", Path: name, Err: syscall.ESTALE}
	}
	defer func() { statFunc = os.Stat }()

	_, err := StatWithRetry("/nfs/poster.png", fastRetryConfig())
	if !errors.Is(err, syscall.ESTALE) {
		t.Errorf("expected ESTALE, got %v", err)
	}
	if calls != 4 {
		t.Errorf("stat called %d times, want 4 (1 + 3 retries)", calls)
	}
}

func TestStatWithRetryNoRetryOnNotExist(t *testing.T) {
	calls := 0
	statFunc = func(name string) (os.FileInfo, error) {
		calls++
		return os.Stat(name)
	}
	defer func() { statFunc = os.Stat }()

	_, err := StatWithRetry(filepath.Join(t.TempDir(), "missing"), fastRetryConfig())
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("stat called %d times, want 1", calls)
	}
}

func TestExists(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "a_FHD.png")
	if err := os.WriteFile(file, []byte("png"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	tests := []struct {
		name string
		path string
		want bool
	}{
		{"existing file", file, true},
		{"missing file", filepath.Join(dir, "b_FHD.png"), false},
		{"directory", dir, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Exists(tt.path, DefaultRetryConfig())
			if err != nil {
				t.Fatalf("Exists() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Exists(%s) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestRemoveQuietly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scratch.png")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	RemoveQuietly(path)
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("file should have been removed")
	}

	// Removing again must not panic or fail.
	RemoveQuietly(path)
}

func TestWriteAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out_FHD.png")

	err := WriteAtomic(path, func(w io.Writer) error {
		_, err := io.WriteString(w, "poster bytes")
		return err
	})
	if err != nil {
		t.Fatalf("WriteAtomic() error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read result: %v", err)
	}
	if string(data) != "poster bytes" {
		t.Errorf("content = %q", data)
	}

	assertNoTempFiles(t, dir)
}

func TestWriteAtomicFailureLeavesNoFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out_FHD.png")
	boom := errors.New("encode failed")

	err := WriteAtomic(path, func(w io.Writer) error {
		if _, err := io.WriteString(w, "partial"); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected encode error, got %v", err)
	}

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("final path must not exist after a failed write")
	}
	assertNoTempFiles(t, dir)
}

func assertNoTempFiles(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("failed to read dir: %v", err)
	}
	for _, e := range entries {
		if strings.Contains(e.Name(), ".tmp-") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
}
