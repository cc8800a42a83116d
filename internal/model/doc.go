// Package model defines the core data structures shared by the conversion
// pipeline, the session controller and the front ends.
//
// # Results
//
// ConversionResult describes what a finished attempt produced. It holds one
// VideoItem per output file, so playlist acquisitions are represented the
// same way as single videos:
//
//	result := model.NewConversionResult(url, model.FormatMP3, "Title", "", items)
//	if result.IsPlaylist() {
//	    // more than one file was produced
//	}
//
// # State
//
// ConversionState is the observable state of one session controller. It is a
// closed set of variants: Idle, InProgress, Succeeded, Failed and Cancelled.
// Every variant except Idle carries the generation of the attempt it belongs
// to:
//
//	switch s := state.(type) {
//	case model.InProgress:
//	    fmt.Printf("%.0f%% %s\n", s.Progress.Fraction*100, s.Progress.Message)
//	case model.Succeeded:
//	    fmt.Println(s.Result.FilePath)
//	}
//
// # Failures
//
// Errors crossing the attempt boundary are classified with FailureKind. Use
// KindOf to read the kind of an arbitrary error.
package model
