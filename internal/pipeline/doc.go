// Package pipeline runs one conversion: acquire the source, transcode every
// acquired file to the target format and report a single composite progress
// stream while doing so.
//
// # Capabilities
//
// Acquisition and transcoding are external capabilities behind the Acquirer
// and Transcoder interfaces. The pipeline never looks inside them; it only
// weights and forwards what they report:
//
//	p := pipeline.New(acquirer, transcoder,
//	    pipeline.WithWeights(pipeline.DefaultWeights()),
//	    pipeline.WithLogger(logger),
//	)
//	out, err := p.Run(ctx, req, pipeline.Hooks{
//	    OnProgress: func(ev model.ProgressEvent) { ... },
//	    OnMetadata: func(m pipeline.Metadata) { ... },
//	})
//
// # Progress
//
// The composite fraction is acquireWeight*acquired during acquisition and
// acquireWeight + transcodeWeight*transcoded afterwards. Producer fractions
// are clamped to [0, 1] and a negative (indeterminate) acquisition fraction
// is reported as 0 with the message "Downloading…". The stream never moves
// backwards within one Run.
//
// When the acquirer already produces the target container (see
// FinalFormatter) the weights fold to {1, 0} so acquisition covers the whole
// bar.
//
// # Failures
//
// Errors are returned wrapped in model.ConversionError: acquisition problems
// as model.KindAcquisitionFailed (or KindAcquisitionUnavailable when the
// acquirer says so) and transcoding problems as model.KindTranscodeFailed.
// No completion event is emitted on failure.
package pipeline
