package ioutils

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"normal-file.mp3", "normal-file.mp3"},
		{"file:with:colons.mp3", "file_with_colons.mp3"},
		{"file<with>brackets.mp3", "file_with_brackets.mp3"},
		{"file/with\\slashes.mp3", "file_with_slashes.mp3"},
		{"file|with|pipes.mp3", "file_with_pipes.mp3"},
		{"file?with*wildcards.mp3", "file_with_wildcards.mp3"},
		{"file\"with\"quotes.mp3", "file_with_quotes.mp3"},
		{"trailing dots...", "trailing dots"},
		{"multiple   spaces", "multiple spaces"},
		{"  padded  ", "padded"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := SanitizeFileName(tt.input)
			if got != tt.want {
				t.Errorf("SanitizeFileName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSanitizeFileName_Long(t *testing.T) {
	name := strings.Repeat("é", 150) + ".mp3"
	got := SanitizeFileName(name)

	if len(got) > maxNameLength {
		t.Errorf("len = %d, want <= %d", len(got), maxNameLength)
	}
	if !strings.HasSuffix(got, ".mp3") {
		t.Errorf("extension lost: %q", got)
	}
	if !utf8.ValidString(got) {
		t.Error("cut inside a multi-byte rune")
	}
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "list.m3u")
	if err := WriteFile(context.Background(), path, []byte("#EXTM3U\n")); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "#EXTM3U\n" {
		t.Errorf("content = %q, %v", data, err)
	}
	if FileSize(path) != int64(len("#EXTM3U\n")) {
		t.Errorf("FileSize() = %d", FileSize(path))
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("temporary files left behind: %d entries", len(entries))
	}
}

func TestWriteFile_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := WriteFile(ctx, filepath.Join(t.TempDir(), "x"), nil); !errors.Is(err, context.Canceled) {
		t.Errorf("WriteFile() error = %v, want context.Canceled", err)
	}
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 255, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestResizeImage(t *testing.T) {
	out, err := ResizeImage(pngBytes(t, 300, 200), 150, 150)
	if err != nil {
		t.Fatalf("ResizeImage() error = %v", err)
	}
	img, err := jpeg.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("output is not JPEG: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 150 || b.Dy() != 100 {
		t.Errorf("size = %dx%d, want 150x100", b.Dx(), b.Dy())
	}
}

type stubFetcher struct {
	data []byte
	err  error
	url  string
}

func (s *stubFetcher) GetBytes(ctx context.Context, url string) ([]byte, error) {
	s.url = url
	return s.data, s.err
}

func TestArtworkService(t *testing.T) {
	f := &stubFetcher{data: pngBytes(t, 40, 40)}
	svc := NewArtworkService(f)

	out, err := svc.Artwork(context.Background(), "https://img.example/t.png", 0)
	if err != nil {
		t.Fatalf("Artwork() error = %v", err)
	}
	if _, err := jpeg.Decode(bytes.NewReader(out)); err != nil {
		t.Errorf("Artwork() did not return JPEG: %v", err)
	}
	if f.url != "https://img.example/t.png" {
		t.Errorf("fetched %q", f.url)
	}

	if _, err := svc.Artwork(context.Background(), "", 100); err == nil {
		t.Error("empty URL accepted")
	}

	f.err = errors.New("offline")
	if _, err := svc.Artwork(context.Background(), "https://img.example/t.png", 100); err == nil {
		t.Error("fetch error swallowed")
	}
}
