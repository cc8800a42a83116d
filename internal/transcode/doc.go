// Package transcode converts acquired files into the target format.
//
// Three pipeline.Transcoder implementations are provided:
//   - Passthrough returns files that already have the target extension
//   - FFmpeg runs ffmpeg, reading progress from "-progress pipe:2"
//   - Auto picks Passthrough when it can and a converter otherwise
//
// # Progress
//
// The total duration comes from ffprobe, or from the "Duration:" line ffmpeg
// prints for its input when ffprobe is missing. Each out_time_us value is
// divided by it. Without a duration the fraction stays at 0 until ffmpeg
// reports progress=end.
//
// # Stalls
//
// Every line ffmpeg writes resets a watchdog. When nothing arrives for the
// stall timeout the process is killed and Transcode returns ErrStalled.
package transcode
