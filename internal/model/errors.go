package model

import (
	"context"
	"errors"
	"fmt"
)

// FailureKind classifies why an attempt did not succeed.
type FailureKind int

const (
	// KindAcquisitionFailed covers network, authentication, geo and
	// availability failures while fetching.
	KindAcquisitionFailed FailureKind = iota

	// KindAcquisitionUnavailable means the platform extractor could not be
	// used at all on this machine.
	KindAcquisitionUnavailable

	// KindTranscodeFailed means conversion failed after a successful fetch.
	KindTranscodeFailed

	// KindSuperseded marks an attempt silently replaced by a newer one.
	// It is never shown to the user.
	KindSuperseded

	// KindCancelledByUser marks an explicit cancellation.
	KindCancelledByUser
)

// String returns the string representation of FailureKind.
func (k FailureKind) String() string {
	switch k {
	case KindAcquisitionFailed:
		return "acquisition_failed"
	case KindAcquisitionUnavailable:
		return "acquisition_unavailable"
	case KindTranscodeFailed:
		return "transcode_failed"
	case KindSuperseded:
		return "superseded"
	case KindCancelledByUser:
		return "cancelled_by_user"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

var (
	// ErrUnsupportedURL is returned when no capability accepts a URL.
	ErrUnsupportedURL = errors.New("unsupported URL")

	// ErrAuthRequired is returned when the source needs credentials.
	ErrAuthRequired = errors.New("authentication required")

	// ErrNotMedia is returned when a direct URL does not serve media.
	ErrNotMedia = errors.New("response is not a media file")

	// ErrEmptyBody is returned when a direct URL serves zero bytes.
	ErrEmptyBody = errors.New("response body is empty")

	// ErrExtractorUnavailable is returned when yt-dlp cannot run here.
	ErrExtractorUnavailable = errors.New("platform extractor is unavailable; try a direct media URL instead")
)

// ConversionError attaches a FailureKind to an underlying error.
type ConversionError struct {
	Kind FailureKind
	Err  error
}

// NewConversionError wraps err with kind. A nil err yields nil.
func NewConversionError(kind FailureKind, err error) error {
	if err == nil {
		return nil
	}
	var ce *ConversionError
	if errors.As(err, &ce) {
		return err
	}
	return &ConversionError{Kind: kind, Err: err}
}

func (e *ConversionError) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return e.Err.Error()
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}

// KindOf classifies err. Context cancellation maps to KindCancelledByUser and
// unclassified errors to KindAcquisitionFailed.
func KindOf(err error) FailureKind {
	var ce *ConversionError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	if errors.Is(err, ErrExtractorUnavailable) {
		return KindAcquisitionUnavailable
	}
	if errors.Is(err, context.Canceled) {
		return KindCancelledByUser
	}
	return KindAcquisitionFailed
}
