package model

import (
	"fmt"
	"strings"
)

// TargetFormat is the container the user asked for.
type TargetFormat string

const (
	// FormatMP3 produces an audio-only MP3 file.
	FormatMP3 TargetFormat = "mp3"

	// FormatMP4 produces a video file in an MP4 container.
	FormatMP4 TargetFormat = "mp4"
)

// ParseTargetFormat parses a user supplied format name.
func ParseTargetFormat(s string) (TargetFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "mp3", "audio":
		return FormatMP3, nil
	case "mp4", "video":
		return FormatMP4, nil
	default:
		return "", fmt.Errorf("unknown target format %q (expected mp3 or mp4)", s)
	}
}

// Extension returns the file extension for the format, including the dot.
func (f TargetFormat) Extension() string {
	if f == FormatMP4 {
		return ".mp4"
	}
	return ".mp3"
}

// IsVideo reports whether the format keeps the video track.
func (f TargetFormat) IsVideo() bool {
	return f == FormatMP4
}

// String returns the string representation of TargetFormat.
func (f TargetFormat) String() string {
	return string(f)
}
