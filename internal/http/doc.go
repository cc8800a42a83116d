// Package http fetches direct media URLs.
//
// The Client in this package handles:
//   - Streaming a media URL to disk with byte-based progress
//   - Rejecting error statuses, non-media responses and empty bodies
//   - Small in-memory downloads such as thumbnails
//
// # Basic Usage
//
//	client := http.NewClient(http.WithUserAgent("vidconv/1.0"))
//
//	// Acquire a media file (implements pipeline.Acquirer)
//	acquired, err := client.Acquire(ctx, req, emit)
//
//	// Fetch a thumbnail
//	data, err := client.GetBytes(ctx, thumbnailURL)
//
// # Progress Tracking
//
// Progress fractions are written/Content-Length. When the server sends no
// length the fraction is model.IndeterminateFraction. Events are throttled to
// one per progress interval, except the final one.
//
// The ProgressWriter type can be used to wrap any io.Writer for progress tracking:
//
//	pw := &http.ProgressWriter{
//	    Writer:   file,
//	    Total:    contentLength,
//	    OnUpdate: func(written, total int64) { /* update UI */ },
//	}
package http
