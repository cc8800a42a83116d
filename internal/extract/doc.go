// Package extract acquires media from video platforms through yt-dlp.
//
// The Extractor in this package handles:
//   - Checking that the yt-dlp binary is on PATH
//   - Picking formats for the target (merged MP4, or best audio)
//   - Forwarding credentials and browser cookies
//   - Reporting download progress and video metadata
//
// # Basic Usage
//
//	ex := extract.New(extract.WithAudioExtraction(true))
//	if err := ex.Available(); err != nil {
//	    // fall back to a direct media URL
//	}
//
//	// Acquire implements pipeline.Acquirer
//	acquired, err := ex.Acquire(ctx, req, emit)
//
// When audio extraction is enabled yt-dlp runs its own ffmpeg post-processor
// and the result is already MP3, so the pipeline skips its transcode phase.
package extract
