package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/handiism/vidconv/internal/model"
	"github.com/handiism/vidconv/internal/pipeline"
)

type eventLog struct {
	mu     sync.Mutex
	events []pipeline.AcquireEvent
}

func (l *eventLog) emit(ev pipeline.AcquireEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
}

func (l *eventLog) fractions() []float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []float64
	for _, ev := range l.events {
		if ev.Progress != nil {
			out = append(out, ev.Progress.Fraction)
		}
	}
	return out
}

func TestClient_Acquire(t *testing.T) {
	body := strings.Repeat("v", 64*1024)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); ua != "test-agent" {
			t.Errorf("User-Agent = %q", ua)
		}
		w.Header().Set("Content-Type", "video/mp4")
		w.Header().Set("Content-Length", strconv.Itoa(len(body)))
		w.Write([]byte(body))
	}))
	defer srv.Close()

	dir := t.TempDir()
	log := &eventLog{}
	client := NewClient(WithUserAgent("test-agent"), WithProgressInterval(0))

	got, err := client.Acquire(context.Background(), pipeline.Request{
		URL:       srv.URL + "/media/My%20Clip.mp4",
		OutputDir: dir,
	}, log.emit)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}

	want := filepath.Join(dir, "My Clip.mp4")
	if len(got.Files) != 1 || got.Files[0].Path != want {
		t.Fatalf("Files = %+v, want %s", got.Files, want)
	}
	data, err := os.ReadFile(want)
	if err != nil || len(data) != len(body) {
		t.Errorf("file has %d bytes (err %v), want %d", len(data), err, len(body))
	}
	if _, err := os.Stat(want + ".part"); !os.IsNotExist(err) {
		t.Error("partial file left behind")
	}

	fr := log.fractions()
	if len(fr) < 2 || fr[0] != 0 || fr[len(fr)-1] != 1 {
		t.Errorf("fractions = %v, want 0 ... 1", fr)
	}
	for i := 1; i < len(fr); i++ {
		if fr[i] < fr[i-1] {
			t.Errorf("fractions not increasing: %v", fr)
			break
		}
	}
	if got.Metadata.FilePath != want {
		t.Errorf("Metadata.FilePath = %q", got.Metadata.FilePath)
	}
}

func TestClient_Acquire_UnknownLength(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "audio/mpeg")
		flusher := w.(http.Flusher)
		w.Write([]byte("first chunk"))
		flusher.Flush()
		w.Write([]byte("second chunk"))
	}))
	defer srv.Close()

	log := &eventLog{}
	_, err := NewClient(WithProgressInterval(0)).Acquire(context.Background(), pipeline.Request{
		URL:       srv.URL + "/stream",
		OutputDir: t.TempDir(),
	}, log.emit)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}

	fr := log.fractions()
	if fr[0] != model.IndeterminateFraction {
		t.Errorf("first fraction = %v, want indeterminate", fr[0])
	}
	if fr[len(fr)-1] != 1 {
		t.Errorf("last fraction = %v, want 1", fr[len(fr)-1])
	}
}

func TestClient_Acquire_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		wantErr error
	}{
		{
			name: "not found",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.NotFound(w, r)
			},
		},
		{
			name: "forbidden",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusForbidden)
			},
			wantErr: model.ErrAuthRequired,
		},
		{
			name: "html page",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "text/html; charset=utf-8")
				w.Write([]byte("<html></html>"))
			},
			wantErr: model.ErrNotMedia,
		},
		{
			name: "empty body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "video/mp4")
				w.Header().Set("Content-Length", "0")
			},
			wantErr: model.ErrEmptyBody,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			dir := t.TempDir()
			_, err := NewClient().Acquire(context.Background(), pipeline.Request{
				URL:       srv.URL + "/video.mp4",
				OutputDir: dir,
			}, func(pipeline.AcquireEvent) {})
			if err == nil {
				t.Fatal("Acquire() error = nil")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Acquire() error = %v, want %v", err, tt.wantErr)
			}

			entries, _ := os.ReadDir(dir)
			if len(entries) != 0 {
				t.Errorf("output dir not empty after failure: %d entries", len(entries))
			}
		})
	}
}

func TestClient_Acquire_Cancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "video/mp4")
		w.Write([]byte("x"))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewClient().Acquire(ctx, pipeline.Request{URL: srv.URL + "/a.mp4", OutputDir: t.TempDir()}, func(pipeline.AcquireEvent) {})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Acquire() error = %v, want context.Canceled", err)
	}
}

func TestClient_GetBytes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("jpeg-bytes"))
	}))
	defer srv.Close()

	data, err := NewClient().GetBytes(context.Background(), srv.URL+"/thumb.jpg")
	if err != nil || string(data) != "jpeg-bytes" {
		t.Errorf("GetBytes() = %q, %v", data, err)
	}
}

func TestFileNameFor(t *testing.T) {
	tests := []struct {
		url, disposition, contentType string
		want                          string
	}{
		{"https://x.example/a/clip.mp4", "", "video/mp4", "clip.mp4"},
		{"https://x.example/a/clip.mp4", `attachment; filename="Other: Name.webm"`, "video/webm", "Other_ Name.webm"},
		{"https://x.example/a/weird?.mp4", "", "", "weird"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			got := fileNameFor(tt.url, tt.disposition, tt.contentType)
			if got != tt.want {
				t.Errorf("fileNameFor() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFileNameFor_ExtensionFromContentType(t *testing.T) {
	// .png is in Go's built-in mime table on every system.
	if got := fileNameFor("https://x.example/a/cover", "", "image/png"); got != "cover.png" {
		t.Errorf("fileNameFor() = %q, want cover.png", got)
	}
}

func TestIsMedia(t *testing.T) {
	tests := map[string]bool{
		"":                         true,
		"video/mp4":                true,
		"audio/mpeg":               true,
		"application/octet-stream": true,
		"text/html; charset=utf-8": false,
		"application/json":         false,
	}
	for ct, want := range tests {
		if got := isMedia(ct); got != want {
			t.Errorf("isMedia(%q) = %v, want %v", ct, got, want)
		}
	}
}
