// Package ioutils provides file system and image processing utilities.
//
// This package contains functions for:
//   - Atomic file writes
//   - Filename sanitization for cross-platform compatibility
//   - Directory creation
//   - Thumbnail download, resizing and JPEG conversion
//
// # Filename Sanitization
//
// Use SanitizeFileName to remove invalid characters from filenames:
//
//	safe := ioutils.SanitizeFileName("Song: Part 1/2") // Returns "Song_ Part 1_2"
//
// # Artwork
//
// The ArtworkService prepares thumbnails for embedding in ID3 tags:
//
//	svc := ioutils.NewArtworkService(httpClient)
//	jpeg, err := svc.Artwork(ctx, thumbnailURL, 1000)
package ioutils
