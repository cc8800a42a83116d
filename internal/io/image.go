package ioutils

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png" // PNG decoder registration

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // WebP decoder registration, common for video thumbnails
)

// Fetcher downloads small remote files.
type Fetcher interface {
	GetBytes(ctx context.Context, url string) ([]byte, error)
}

// ArtworkService turns a thumbnail URL into JPEG cover art for embedding.
//
// Example usage:
//
//	svc := NewArtworkService(httpClient)
//	jpeg, err := svc.Artwork(ctx, thumbnailURL, 1000)
type ArtworkService struct {
	fetcher Fetcher
}

// NewArtworkService creates an ArtworkService that downloads with fetcher.
func NewArtworkService(fetcher Fetcher) *ArtworkService {
	return &ArtworkService{fetcher: fetcher}
}

// Artwork downloads the image at url and returns it as JPEG resized to fit
// within maxSize×maxSize. A maxSize of 0 keeps the original dimensions.
func (s *ArtworkService) Artwork(ctx context.Context, url string, maxSize int) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("no artwork URL")
	}
	data, err := s.fetcher.GetBytes(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetch artwork: %w", err)
	}
	if maxSize <= 0 {
		return ConvertToJPEG(data)
	}
	return ResizeImage(data, maxSize, maxSize)
}

// ResizeImage resizes an image to fit within the specified maximum dimensions.
//
// The aspect ratio is preserved. Images already within the bounds are only
// re-encoded. The result is always JPEG.
//
// The Catmull-Rom algorithm is used for high-quality resizing.
//
// Example:
//
//	// Resize to fit within 1000x1000, maintaining aspect ratio
//	resized, err := ResizeImage(imageData, 1000, 1000)
//	// A 1500x1000 image becomes 1000x666
func ResizeImage(data []byte, maxWidth, maxHeight int) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	if width > maxWidth || height > maxHeight {
		ratio := float64(width) / float64(height)
		if float64(maxWidth)/float64(maxHeight) > ratio {
			width = int(float64(maxHeight) * ratio)
			height = maxHeight
		} else {
			height = int(float64(maxWidth) / ratio)
			width = maxWidth
		}
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)

	return encodeJPEG(dst)
}

// ConvertToJPEG re-encodes any supported image as JPEG.
func ConvertToJPEG(data []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return encodeJPEG(img)
}

func encodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
