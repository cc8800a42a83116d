package pipeline

import (
	"context"

	"github.com/handiism/vidconv/internal/model"
)

// Request describes one acquisition.
type Request struct {
	URL         string
	Format      model.TargetFormat
	Credentials *model.Credentials

	// OutputDir is where acquired and transcoded files are written.
	OutputDir string

	// AllowPlaylist lets the extractor produce more than one file.
	AllowPlaylist bool
}

// Metadata is what an acquirer learns about the source. Any field may be
// empty.
type Metadata struct {
	Title          string
	Uploader       string
	Thumbnail      string
	DurationMillis int64

	// FilePath is the first acquired file, once known.
	FilePath string
}

// IsZero reports whether no field is set.
func (m Metadata) IsZero() bool {
	return m == Metadata{}
}

// Merge fills empty fields of m from other.
func (m Metadata) Merge(other Metadata) Metadata {
	if m.Title == "" {
		m.Title = other.Title
	}
	if m.Uploader == "" {
		m.Uploader = other.Uploader
	}
	if m.Thumbnail == "" {
		m.Thumbnail = other.Thumbnail
	}
	if m.DurationMillis == 0 {
		m.DurationMillis = other.DurationMillis
	}
	if m.FilePath == "" {
		m.FilePath = other.FilePath
	}
	return m
}

// AcquireEvent is reported by an Acquirer while it works. Exactly one of the
// fields is set.
type AcquireEvent struct {
	Progress *model.ProgressEvent
	Metadata *Metadata
}

// ProgressOf builds a progress AcquireEvent.
func ProgressOf(fraction float64, message string) AcquireEvent {
	return AcquireEvent{Progress: &model.ProgressEvent{Fraction: fraction, Message: message}}
}

// MetadataOf builds a metadata AcquireEvent.
func MetadataOf(m Metadata) AcquireEvent {
	return AcquireEvent{Metadata: &m}
}

// AcquiredFile is one file written by an Acquirer.
type AcquiredFile struct {
	Path           string
	Title          string
	Thumbnail      string
	DurationMillis int64
}

// Acquired is the outcome of a successful acquisition.
type Acquired struct {
	Files    []AcquiredFile
	Metadata Metadata
}

// Acquirer fetches a source to local files.
//
// emit may be called from any goroutine but never after Acquire returns.
type Acquirer interface {
	Acquire(ctx context.Context, req Request, emit func(AcquireEvent)) (Acquired, error)
}

// FinalFormatter is implemented by acquirers that can already deliver the
// target container for a request, making transcoding a pass-through.
type FinalFormatter interface {
	ProducesFinal(req Request) bool
}

// Transcoded is the outcome of one transcode.
type Transcoded struct {
	OutputPath     string
	SizeBytes      int64
	DurationMillis int64
}

// Transcoder converts one local file to format.
type Transcoder interface {
	Transcode(ctx context.Context, inputPath string, format model.TargetFormat, emit func(model.ProgressEvent)) (Transcoded, error)
}

// Tagger writes metadata into a finished audio file.
type Tagger interface {
	Tag(ctx context.Context, item model.VideoItem, meta Metadata) error
}
