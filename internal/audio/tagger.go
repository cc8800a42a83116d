package audio

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bogem/id3v2"

	ioutils "github.com/handiism/vidconv/internal/io"
	"github.com/handiism/vidconv/internal/model"
	"github.com/handiism/vidconv/internal/pipeline"
)

// TagEditAction defines how to handle individual ID3 tags.
type TagEditAction int

const (
	// TagEmpty clears the tag value.
	TagEmpty TagEditAction = iota

	// TagModify updates the tag with the value from the video metadata.
	TagModify

	// TagDoNotModify leaves the existing tag value unchanged.
	TagDoNotModify
)

// TagConfig holds tagging configuration for each ID3 field.
//
// Example:
//
//	cfg := &TagConfig{
//	    ModifyTags:  true,
//	    TrackTitle:  TagModify,      // video title
//	    Artist:      TagModify,      // uploader
//	    AlbumArtist: TagDoNotModify, // keep whatever yt-dlp wrote
//	    Comments:    TagEmpty,       // drop encoder comments
//	}
type TagConfig struct {
	// ModifyTags is a master switch. If false, no string tags are modified.
	ModifyTags bool

	// TrackTitle controls the TIT2 (Title) frame.
	TrackTitle TagEditAction

	// Artist controls the TPE1 (Lead artist) frame, filled from the uploader.
	Artist TagEditAction

	// AlbumArtist controls the TPE2 (Album artist) frame, filled from the
	// uploader.
	AlbumArtist TagEditAction

	// Length controls the TLEN (Length) frame, in milliseconds.
	Length TagEditAction

	// Comments controls the COMM (Comments) frame.
	Comments TagEditAction

	// EmbedArtwork attaches the video thumbnail as front cover.
	EmbedArtwork bool

	// ArtworkMaxSize bounds the cover in pixels. Zero keeps the original size.
	ArtworkMaxSize int
}

// DefaultTagConfig returns the default tag configuration: title, artist and
// length are written, comments are cleared and the thumbnail is embedded at
// up to 600 pixels.
func DefaultTagConfig() *TagConfig {
	return &TagConfig{
		ModifyTags:     true,
		TrackTitle:     TagModify,
		Artist:         TagModify,
		AlbumArtist:    TagModify,
		Length:         TagModify,
		Comments:       TagEmpty,
		EmbedArtwork:   true,
		ArtworkMaxSize: 600,
	}
}

// Tagger writes ID3 tags to converted MP3 files. It implements
// pipeline.Tagger.
//
// Example:
//
//	tagger := NewTagger(DefaultTagConfig(), ioutils.NewArtworkService(client), logger)
//	err := tagger.Tag(ctx, item, meta)
type Tagger struct {
	config  *TagConfig
	artwork *ioutils.ArtworkService
	logger  *slog.Logger
}

// NewTagger creates a new Tagger. A nil config means DefaultTagConfig and a
// nil artwork service disables cover embedding.
func NewTagger(config *TagConfig, artwork *ioutils.ArtworkService, logger *slog.Logger) *Tagger {
	if config == nil {
		config = DefaultTagConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Tagger{config: config, artwork: artwork, logger: logger}
}

// Tag implements pipeline.Tagger.
//
// A thumbnail that cannot be fetched is logged and skipped; the text frames
// are still saved.
func (t *Tagger) Tag(ctx context.Context, item model.VideoItem, meta pipeline.Metadata) error {
	tag, err := id3v2.Open(item.FilePath, id3v2.Options{Parse: true})
	if err != nil {
		return fmt.Errorf("open %s: %w", item.FileName, err)
	}
	defer tag.Close()

	if meta.Title == "" {
		meta.Title = item.Title
	}
	if meta.Thumbnail == "" {
		meta.Thumbnail = item.Thumbnail
	}
	if meta.DurationMillis == 0 {
		meta.DurationMillis = item.DurationMillis
	}

	if t.config.ModifyTags {
		t.updateStringTags(tag, meta)
	}

	if t.config.EmbedArtwork && t.artwork != nil && meta.Thumbnail != "" {
		cover, err := t.artwork.Artwork(ctx, meta.Thumbnail, t.config.ArtworkMaxSize)
		if err != nil {
			t.logger.WarnContext(ctx, "thumbnail not embedded",
				slog.String("file", item.FilePath),
				slog.String("thumbnail", meta.Thumbnail),
				slog.Any("error", err),
			)
		} else {
			updateArtwork(tag, cover)
		}
	}

	return tag.Save()
}

// updateStringTags updates text-based ID3 frames based on configuration.
func (t *Tagger) updateStringTags(tag *id3v2.Tag, meta pipeline.Metadata) {
	switch t.config.TrackTitle {
	case TagEmpty:
		tag.SetTitle("")
	case TagModify:
		if meta.Title != "" {
			tag.SetTitle(meta.Title)
		}
	}

	switch t.config.Artist {
	case TagEmpty:
		tag.SetArtist("")
	case TagModify:
		if meta.Uploader != "" {
			tag.SetArtist(meta.Uploader)
		}
	}

	switch t.config.AlbumArtist {
	case TagEmpty:
		tag.DeleteFrames("TPE2")
	case TagModify:
		if meta.Uploader != "" {
			tag.DeleteFrames("TPE2")
			tag.AddTextFrame("TPE2", id3v2.EncodingUTF8, meta.Uploader)
		}
	}

	switch t.config.Length {
	case TagEmpty:
		tag.DeleteFrames("TLEN")
	case TagModify:
		if meta.DurationMillis > 0 {
			tag.DeleteFrames("TLEN")
			tag.AddTextFrame("TLEN", id3v2.EncodingUTF8, fmt.Sprintf("%d", meta.DurationMillis))
		}
	}

	if t.config.Comments == TagEmpty {
		tag.DeleteFrames(tag.CommonID("Comments"))
	}
}

// updateArtwork embeds cover art as an attached picture frame.
func updateArtwork(tag *id3v2.Tag, artwork []byte) {
	tag.DeleteFrames(tag.CommonID("Attached picture"))

	tag.AddAttachedPicture(id3v2.PictureFrame{
		Encoding:    id3v2.EncodingUTF8,
		MimeType:    "image/jpeg",
		PictureType: id3v2.PTFrontCover,
		Description: "Cover",
		Picture:     artwork,
	})
}
