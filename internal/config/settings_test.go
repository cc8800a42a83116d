package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/handiism/vidconv/internal/audio"
	"github.com/handiism/vidconv/internal/model"
)

func TestDefaultSettings_Valid(t *testing.T) {
	s := DefaultSettings()
	if err := s.Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
	if s.Format() != model.FormatMP3 || s.Playlist() != audio.FormatM3U {
		t.Errorf("Format() = %v, Playlist() = %v", s.Format(), s.Playlist())
	}
	if s.MetadataGrace.D() != 750*time.Millisecond {
		t.Errorf("MetadataGrace = %v", s.MetadataGrace)
	}
}

func TestLoad_Missing(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "none.json"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if diff := cmp.Diff(DefaultSettings(), s); diff != "" {
		t.Errorf("Load() of a missing file differs from defaults:\n%s", diff)
	}
}

func TestSaveLoad(t *testing.T) {
	for _, name := range []string{"config.json", "config.yaml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "sub", name)
			want := DefaultSettings()
			want.TargetFormat = "mp4"
			want.PlatformDomains = []string{"example.tv"}
			want.FFmpegStallTimeout = Duration(5 * time.Second)

			if err := want.Save(path); err != nil {
				t.Fatalf("Save() error = %v", err)
			}
			got, err := Load(path)
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLoad_Durations(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "c.yml")
	os.WriteFile(yamlPath, []byte("metadata_grace: 1.5\nffmpeg_stall_timeout: 2m\n"), 0o644)
	s, err := Load(yamlPath)
	if err != nil {
		t.Fatalf("Load(yaml) error = %v", err)
	}
	if s.MetadataGrace.D() != 1500*time.Millisecond || s.FFmpegStallTimeout.D() != 2*time.Minute {
		t.Errorf("yaml durations = %v, %v", s.MetadataGrace, s.FFmpegStallTimeout)
	}

	jsonPath := filepath.Join(dir, "c.json")
	os.WriteFile(jsonPath, []byte(`{"metadata_grace": 2, "http_timeout": "10s"}`), 0o644)
	s, err = Load(jsonPath)
	if err != nil {
		t.Fatalf("Load(json) error = %v", err)
	}
	if s.MetadataGrace.D() != 2*time.Second || s.HTTPTimeout.D() != 10*time.Second {
		t.Errorf("json durations = %v, %v", s.MetadataGrace, s.HTTPTimeout)
	}

	os.WriteFile(jsonPath, []byte(`{"metadata_grace": "soon"}`), 0o644)
	if _, err := Load(jsonPath); err == nil {
		t.Error("Load() accepted a bad duration")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Settings)
		want   string
	}{
		{"negative weight", func(s *Settings) { s.AcquireWeight, s.TranscodeWeight = -0.2, 1.2 }, "negative"},
		{"weights sum", func(s *Settings) { s.AcquireWeight = 0.5 }, "sum"},
		{"format", func(s *Settings) { s.TargetFormat = "flac" }, "flac"},
		{"playlist", func(s *Settings) { s.PlaylistFormat = "xspf" }, "xspf"},
		{"concurrency", func(s *Settings) { s.MaxConcurrentTranscodes = 0 }, "max_concurrent_transcodes"},
		{"duration", func(s *Settings) { s.MetadataGrace = Duration(-time.Second) }, "metadata_grace"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultSettings()
			tt.modify(s)
			err := s.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Validate() = %v, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestDomains(t *testing.T) {
	s := &Settings{PlatformDomains: []string{" a.tv ", "", "b.tv"}}
	if diff := cmp.Diff([]string{"a.tv", "b.tv"}, s.Domains()); diff != "" {
		t.Errorf("Domains() mismatch:\n%s", diff)
	}
}
