// Package audio provides ID3 tagging and playlist generation for converted
// files.
//
// # ID3 Tagging
//
// Tagger implements pipeline.Tagger for MP3 outputs:
//
//	tagger := audio.NewTagger(audio.DefaultTagConfig(), artwork, logger)
//	err := tagger.Tag(ctx, item, meta)
//
// The tagger writes:
//   - Title and Length
//   - Artist and Album Artist, from the uploader
//   - Cover art, from the video thumbnail
//
// # Playlist Generation
//
// Multi-item results can be written as a playlist:
//
//	creator := audio.NewPlaylistCreator(audio.FormatM3U, true) // extended M3U
//	content := creator.CreatePlaylist(result)
//
// Supported formats:
//   - M3U (with optional extended info)
//   - PLS
//   - WPL (Windows Media Player)
//   - ZPL (Zune Media Player)
package audio
