package model

import (
	"net/url"
	"path"
	"path/filepath"
	"strings"
)

// VideoItem is one file produced by a conversion attempt.
type VideoItem struct {
	Title          string
	FileName       string
	FileSizeBytes  int64
	FilePath       string
	Thumbnail      string // URL, empty when unknown
	DurationMillis int64
}

// ConversionResult is the final, immutable outcome of a successful attempt.
//
// The top-level fields describe the first item so single-file conversions can
// be rendered without looking at Items. Items always holds every produced
// file in acquisition order.
type ConversionResult struct {
	Title          string
	Thumbnail      string
	FileName       string
	FileSizeBytes  int64
	FilePath       string
	DurationMillis int64
	IsVideo        bool
	SourceURL      string
	Items          []VideoItem
}

// NewConversionResult assembles a result from the produced items.
//
// title and thumbnail override the first item's values when non-empty. The
// items slice is copied so later changes by the caller do not leak into the
// result.
func NewConversionResult(sourceURL string, format TargetFormat, title, thumbnail string, items []VideoItem) *ConversionResult {
	r := &ConversionResult{
		SourceURL: sourceURL,
		IsVideo:   format.IsVideo(),
		Items:     append([]VideoItem(nil), items...),
		Title:     title,
		Thumbnail: thumbnail,
	}

	if len(r.Items) > 0 {
		first := r.Items[0]
		r.FileName = first.FileName
		r.FilePath = first.FilePath
		if r.Title == "" {
			r.Title = first.Title
		}
		if r.Thumbnail == "" {
			r.Thumbnail = first.Thumbnail
		}
		for _, item := range r.Items {
			r.FileSizeBytes += item.FileSizeBytes
			r.DurationMillis += item.DurationMillis
		}
	}

	if r.Title == "" {
		r.Title = PlaceholderTitle(sourceURL)
	}

	return r
}

// IsPlaylist reports whether the attempt produced more than one file.
func (r *ConversionResult) IsPlaylist() bool {
	return len(r.Items) > 1
}

// Dir returns the directory holding the first produced file.
func (r *ConversionResult) Dir() string {
	if r.FilePath == "" {
		return ""
	}
	return filepath.Dir(r.FilePath)
}

// PlaceholderTitle derives a display title from a URL when no metadata is
// available: the last path segment without extension, or the host.
func PlaceholderTitle(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		if rawURL == "" {
			return "Untitled"
		}
		return rawURL
	}

	base := path.Base(u.Path)
	if base != "" && base != "/" && base != "." {
		if ext := path.Ext(base); ext != "" && len(ext) < len(base) {
			base = strings.TrimSuffix(base, ext)
		}
		if unescaped, err := url.PathUnescape(base); err == nil {
			base = unescaped
		}
		if base != "watch" {
			return base
		}
	}

	if v := u.Query().Get("v"); v != "" {
		return v
	}

	return strings.TrimPrefix(u.Host, "www.")
}
