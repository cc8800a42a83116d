package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/handiism/vidconv/internal/audio"
	ioutils "github.com/handiism/vidconv/internal/io"
	"github.com/handiism/vidconv/internal/model"
	"github.com/handiism/vidconv/internal/pipeline"
)

// AppName names the per-user config directory.
const AppName = "vidconv"

// Settings holds all configuration options.
type Settings struct {
	// Output
	DownloadsPath  string `json:"downloads_path" yaml:"downloads_path"`
	TargetFormat   string `json:"target_format" yaml:"target_format"` // mp3, mp4
	AllowPlaylist  bool   `json:"allow_playlist" yaml:"allow_playlist"`
	KeepSourceFile bool   `json:"keep_source_files" yaml:"keep_source_files"`

	// Progress
	AcquireWeight    float64  `json:"acquire_weight" yaml:"acquire_weight"`
	TranscodeWeight  float64  `json:"transcode_weight" yaml:"transcode_weight"`
	MetadataGrace    Duration `json:"metadata_grace" yaml:"metadata_grace"`
	ProgressInterval Duration `json:"progress_interval" yaml:"progress_interval"`

	// Acquisition
	PlatformDomains     []string `json:"platform_domains" yaml:"platform_domains"`
	ExtractorTranscodes bool     `json:"extractor_transcodes" yaml:"extractor_transcodes"`
	HTTPTimeout         Duration `json:"http_timeout" yaml:"http_timeout"`
	UserAgent           string   `json:"user_agent" yaml:"user_agent"`

	// Transcoding
	MaxConcurrentTranscodes int      `json:"max_concurrent_transcodes" yaml:"max_concurrent_transcodes"`
	FFmpegStallTimeout      Duration `json:"ffmpeg_stall_timeout" yaml:"ffmpeg_stall_timeout"`

	// Tag settings
	TagOutput        bool `json:"tag_output" yaml:"tag_output"`
	EmbedThumbnail   bool `json:"embed_thumbnail" yaml:"embed_thumbnail"`
	ThumbnailMaxSize int  `json:"thumbnail_max_size" yaml:"thumbnail_max_size"`

	// Playlist settings
	CreatePlaylist bool   `json:"create_playlist" yaml:"create_playlist"`
	PlaylistFormat string `json:"playlist_format" yaml:"playlist_format"` // m3u, pls, wpl, zpl
	M3UExtended    bool   `json:"m3u_extended" yaml:"m3u_extended"`

	// History
	HistoryDBPath string `json:"history_db_path" yaml:"history_db_path"`
}

// DefaultSettings returns settings with default values.
func DefaultSettings() *Settings {
	homeDir, _ := os.UserHomeDir()
	return &Settings{
		DownloadsPath: filepath.Join(homeDir, "Downloads", "vidconv"),
		TargetFormat:  string(model.FormatMP3),

		AcquireWeight:    pipeline.DefaultWeights().Acquire,
		TranscodeWeight:  pipeline.DefaultWeights().Transcode,
		MetadataGrace:    Duration(750 * time.Millisecond),
		ProgressInterval: Duration(200 * time.Millisecond),

		HTTPTimeout: 0,
		UserAgent:   "vidconv/1.0",

		MaxConcurrentTranscodes: 2,
		FFmpegStallTimeout:      Duration(30 * time.Second),

		TagOutput:        true,
		EmbedThumbnail:   true,
		ThumbnailMaxSize: 600,

		CreatePlaylist: true,
		PlaylistFormat: "m3u",
		M3UExtended:    true,

		HistoryDBPath: filepath.Join(DefaultDir(), "history.db"),
	}
}

// DefaultDir returns the per-user directory holding config and history.
func DefaultDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, AppName)
}

// DefaultPath returns the default settings file.
func DefaultPath() string {
	return filepath.Join(DefaultDir(), "config.json")
}

// Load reads settings from a JSON or YAML file, picked by extension. A
// missing file yields the defaults.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultSettings(), nil
		}
		return nil, err
	}

	settings := DefaultSettings()
	if isYAML(path) {
		err = yaml.Unmarshal(data, settings)
	} else {
		err = json.Unmarshal(data, settings)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}

	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return settings, nil
}

// Save writes settings to a JSON or YAML file, picked by extension.
func (s *Settings) Save(path string) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(s)
	} else {
		data, err = json.MarshalIndent(s, "", "  ")
	}
	if err != nil {
		return err
	}

	if err := ioutils.EnsureDir(filepath.Dir(path)); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	return ioutils.WriteFile(context.Background(), path, data)
}

// Validate checks the values that would otherwise fail deep inside a
// conversion.
func (s *Settings) Validate() error {
	var errs []error

	if _, err := model.ParseTargetFormat(s.TargetFormat); err != nil {
		errs = append(errs, err)
	}
	if _, err := audio.ParsePlaylistFormat(s.PlaylistFormat); err != nil {
		errs = append(errs, err)
	}
	if err := s.Weights().Validate(); err != nil {
		errs = append(errs, err)
	}
	if s.MaxConcurrentTranscodes < 1 {
		errs = append(errs, fmt.Errorf("max_concurrent_transcodes must be at least 1, got %d", s.MaxConcurrentTranscodes))
	}
	if s.ThumbnailMaxSize < 0 {
		errs = append(errs, fmt.Errorf("thumbnail_max_size must not be negative"))
	}
	for name, d := range map[string]Duration{
		"metadata_grace":       s.MetadataGrace,
		"progress_interval":    s.ProgressInterval,
		"http_timeout":         s.HTTPTimeout,
		"ffmpeg_stall_timeout": s.FFmpegStallTimeout,
	} {
		if d < 0 {
			errs = append(errs, fmt.Errorf("%s must not be negative", name))
		}
	}

	return errors.Join(errs...)
}

// Weights returns the progress split.
func (s *Settings) Weights() pipeline.Weights {
	return pipeline.Weights{Acquire: s.AcquireWeight, Transcode: s.TranscodeWeight}
}

// Format returns the parsed target format, MP3 when invalid.
func (s *Settings) Format() model.TargetFormat {
	f, err := model.ParseTargetFormat(s.TargetFormat)
	if err != nil {
		return model.FormatMP3
	}
	return f
}

// Playlist returns the parsed playlist format, M3U when invalid.
func (s *Settings) Playlist() audio.PlaylistFormat {
	f, _ := audio.ParsePlaylistFormat(s.PlaylistFormat)
	return f
}

// Domains returns the platform domains with blanks removed.
func (s *Settings) Domains() []string {
	var out []string
	for _, d := range s.PlatformDomains {
		if d = strings.TrimSpace(d); d != "" {
			out = append(out, d)
		}
	}
	return out
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	default:
		return false
	}
}

// Duration is a time.Duration written as "750ms" in config files. Plain
// numbers are read as seconds.
type Duration time.Duration

// D returns the value as a time.Duration.
func (d Duration) D() time.Duration { return time.Duration(d) }

// String implements fmt.Stringer.
func (d Duration) String() string { return time.Duration(d).String() }

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	return d.set(v)
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return d.String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var v any
	if err := node.Decode(&v); err != nil {
		return err
	}
	return d.set(v)
}

func (d *Duration) set(v any) error {
	switch x := v.(type) {
	case string:
		parsed, err := time.ParseDuration(x)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", x, err)
		}
		*d = Duration(parsed)
	case float64:
		*d = Duration(math.Round(x * float64(time.Second)))
	case int:
		*d = Duration(time.Duration(x) * time.Second)
	default:
		return fmt.Errorf("invalid duration %v", v)
	}
	return nil
}
