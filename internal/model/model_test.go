package model

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"testing"
)

func TestParseTargetFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    TargetFormat
		wantErr bool
	}{
		{"", FormatMP3, false},
		{"mp3", FormatMP3, false},
		{" MP3 ", FormatMP3, false},
		{"audio", FormatMP3, false},
		{"mp4", FormatMP4, false},
		{"video", FormatMP4, false},
		{"flac", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseTargetFormat(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseTargetFormat(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseTargetFormat(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestTargetFormat_Extension(t *testing.T) {
	if got := FormatMP3.Extension(); got != ".mp3" {
		t.Errorf("FormatMP3.Extension() = %q", got)
	}
	if got := FormatMP4.Extension(); got != ".mp4" {
		t.Errorf("FormatMP4.Extension() = %q", got)
	}
	if FormatMP3.IsVideo() || !FormatMP4.IsVideo() {
		t.Error("IsVideo() mismatch")
	}
}

func TestClamp01(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{-1, 0},
		{-0.3, 0},
		{0, 0},
		{0.42, 0.42},
		{1, 1},
		{1.7, 1},
		{math.NaN(), 0},
	}

	for _, tt := range tests {
		if got := Clamp01(tt.in); got != tt.want {
			t.Errorf("Clamp01(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestProgressEvent_Percent(t *testing.T) {
	if got := (ProgressEvent{Fraction: 0.355}).Percent(); got != 36 {
		t.Errorf("Percent() = %d, want 36", got)
	}
	if got := (ProgressEvent{Fraction: IndeterminateFraction}).Percent(); got != 0 {
		t.Errorf("indeterminate Percent() = %d, want 0", got)
	}
	if !(ProgressEvent{Fraction: -0.5}).IsIndeterminate() {
		t.Error("negative fraction should be indeterminate")
	}
}

func TestPlaceholderTitle(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://cdn.example.com/media/clip.mp4", "clip"},
		{"https://cdn.example.com/media/My%20Song.mp3", "My Song"},
		{"https://www.youtube.com/watch?v=abc123", "abc123"},
		{"https://www.example.com/", "example.com"},
		{"", "Untitled"},
		{"not a url", "not a url"},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			if got := PlaceholderTitle(tt.url); got != tt.want {
				t.Errorf("PlaceholderTitle(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}

func TestNewConversionResult(t *testing.T) {
	items := []VideoItem{
		{Title: "One", FileName: "one.mp3", FilePath: "/out/one.mp3", FileSizeBytes: 100, DurationMillis: 1000},
		{Title: "Two", FileName: "two.mp3", FilePath: "/out/two.mp3", FileSizeBytes: 50, DurationMillis: 500},
	}

	r := NewConversionResult("https://example.com/list", FormatMP3, "", "thumb.jpg", items)
	items[0].Title = "changed"

	if r.Title != "One" {
		t.Errorf("Title = %q, want %q", r.Title, "One")
	}
	if r.Items[0].Title != "One" {
		t.Error("result items must not alias the caller's slice")
	}
	if r.FileSizeBytes != 150 || r.DurationMillis != 1500 {
		t.Errorf("totals = %d bytes / %d ms, want 150 / 1500", r.FileSizeBytes, r.DurationMillis)
	}
	if !r.IsPlaylist() {
		t.Error("IsPlaylist() = false, want true")
	}
	if r.Dir() != "/out" {
		t.Errorf("Dir() = %q, want /out", r.Dir())
	}
	if r.IsVideo {
		t.Error("mp3 result should not be video")
	}
}

func TestNewConversionResult_PlaceholderTitle(t *testing.T) {
	r := NewConversionResult("https://cdn.example.com/a/b/video.mp4", FormatMP4, "", "", nil)
	if r.Title != "video" {
		t.Errorf("Title = %q, want %q", r.Title, "video")
	}
	if r.IsPlaylist() {
		t.Error("empty result should not be a playlist")
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want FailureKind
	}{
		{"plain", errors.New("boom"), KindAcquisitionFailed},
		{"wrapped kind", fmt.Errorf("outer: %w", NewConversionError(KindTranscodeFailed, errors.New("ffmpeg"))), KindTranscodeFailed},
		{"unavailable sentinel", fmt.Errorf("yt-dlp: %w", ErrExtractorUnavailable), KindAcquisitionUnavailable},
		{"context canceled", context.Canceled, KindCancelledByUser},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewConversionError_KeepsInnerKind(t *testing.T) {
	inner := NewConversionError(KindAcquisitionUnavailable, errors.New("missing"))
	outer := NewConversionError(KindAcquisitionFailed, inner)
	if KindOf(outer) != KindAcquisitionUnavailable {
		t.Errorf("KindOf() = %v, want %v", KindOf(outer), KindAcquisitionUnavailable)
	}
	if NewConversionError(KindTranscodeFailed, nil) != nil {
		t.Error("nil error should stay nil")
	}
}

func TestConversionState_Generation(t *testing.T) {
	states := []ConversionState{
		InProgress{Gen: 3},
		Succeeded{Gen: 3},
		Failed{Gen: 3},
		Cancelled{Gen: 3},
	}
	for _, s := range states {
		gen, ok := s.Generation()
		if !ok || gen != 3 {
			t.Errorf("%s.Generation() = %d, %v", s.Name(), gen, ok)
		}
	}
	if _, ok := (Idle{}).Generation(); ok {
		t.Error("Idle should carry no generation")
	}
	if IsTerminal(InProgress{}) || !IsTerminal(Cancelled{}) {
		t.Error("IsTerminal mismatch")
	}
}

func TestCredentials_Redacted(t *testing.T) {
	var none *Credentials
	if !none.IsZero() || none.Redacted() != (Credentials{}) {
		t.Error("nil credentials should be zero")
	}

	creds := &Credentials{Username: "alice", Password: "hunter2", CookiesFile: "/tmp/cookies.txt"}
	r := creds.Redacted()
	if r.Password != "***" || r.Username != "alice" || creds.Password != "hunter2" {
		t.Errorf("Redacted() = %+v, original = %+v", r, creds)
	}

	var buf bytes.Buffer
	slog.New(slog.NewTextHandler(&buf, nil)).Info("login", slog.Any("credentials", *creds))
	out := buf.String()
	if strings.Contains(out, "hunter2") {
		t.Errorf("log leaked the password: %s", out)
	}
	for _, want := range []string{"credentials.username=alice", "credentials.password=***", "credentials.cookies_file=/tmp/cookies.txt"} {
		if !strings.Contains(out, want) {
			t.Errorf("log %q missing %q", out, want)
		}
	}
	if strings.Contains(out, "cookies_from_browser") {
		t.Errorf("empty field logged: %s", out)
	}
}
