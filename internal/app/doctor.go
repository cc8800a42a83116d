package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Check is the outcome of one environment check.
type Check struct {
	Name    string
	OK      bool
	Message string
}

// Doctor checks the external tools and directories a conversion needs.
func (a *App) Doctor() []Check {
	checks := make([]Check, 0, 4)

	if err := a.Extractor.Available(); err != nil {
		checks = append(checks, Check{Name: "dependency:yt-dlp", Message: err.Error() + " (direct media URLs still work)"})
	} else {
		checks = append(checks, Check{Name: "dependency:yt-dlp", OK: true, Message: "found"})
	}

	if path, err := a.FFmpeg.Available(); err != nil {
		checks = append(checks, Check{Name: "dependency:ffmpeg", Message: err.Error()})
	} else {
		checks = append(checks, Check{Name: "dependency:ffmpeg", OK: true, Message: path})
	}

	// ffprobe is optional.
	if path, err := a.FFmpeg.ProbeAvailable(); err != nil {
		checks = append(checks, Check{Name: "dependency:ffprobe", OK: true, Message: "not found; durations are read from ffmpeg output"})
	} else {
		checks = append(checks, Check{Name: "dependency:ffprobe", OK: true, Message: path})
	}

	checks = append(checks, checkWritable("output", a.Settings.DownloadsPath))
	return checks
}

// Healthy reports whether every check passed.
func Healthy(checks []Check) bool {
	for _, c := range checks {
		if !c.OK {
			return false
		}
	}
	return true
}

func checkWritable(name, dir string) Check {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Check{Name: name, Message: fmt.Sprintf("cannot create %s: %v", dir, err)}
	}
	probe := filepath.Join(dir, ".vidconv-"+uuid.NewString())
	f, err := os.Create(probe)
	if err != nil {
		return Check{Name: name, Message: fmt.Sprintf("%s is not writable: %v", dir, err)}
	}
	f.Close()
	os.Remove(probe)
	return Check{Name: name, OK: true, Message: dir}
}
