package transcode

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	progressTimePrefix = "out_time_us="
	progressEndLine    = "progress=end"
	durationMarker     = "Duration:"
)

// scanLines is a bufio.SplitFunc that ends a line at the first '\r' or '\n',
// with "\r\n" counted as one terminator, since ffmpeg rewrites its status
// line in place.
func scanLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		if data[i] == '\n' {
			return i + 1, data[:i], nil
		}
		switch {
		case i+1 < len(data) && data[i+1] == '\n':
			return i + 2, data[:i], nil
		case i+1 < len(data) || atEOF:
			return i + 1, data[:i], nil
		}
		// A trailing '\r' may be the first half of "\r\n".
		return 0, nil, nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// progressParser turns ffmpeg "-progress" output into fractions.
type progressParser struct {
	total time.Duration
}

// feed consumes one line and reports the fraction when the line carried one.
// Lines seen before the total duration is known yield nothing.
func (p *progressParser) feed(line string) (float64, bool) {
	line = strings.TrimSpace(line)

	switch {
	case line == progressEndLine:
		return 1, true

	case strings.HasPrefix(line, progressTimePrefix):
		if p.total <= 0 {
			return 0, false
		}
		us, err := strconv.ParseInt(strings.TrimPrefix(line, progressTimePrefix), 10, 64)
		if err != nil || us < 0 {
			return 0, false
		}
		f := float64(time.Duration(us)*time.Microsecond) / float64(p.total)
		if f > 1 {
			f = 1
		}
		return f, true

	case p.total <= 0 && strings.Contains(line, durationMarker):
		if d, ok := parseHeaderDuration(line); ok {
			p.total = d
		}
	}
	return 0, false
}

// parseHeaderDuration reads the "Duration: 00:03:12.48" line ffmpeg prints
// for its input.
func parseHeaderDuration(line string) (time.Duration, bool) {
	i := strings.Index(line, durationMarker)
	if i < 0 {
		return 0, false
	}
	var h, m, s, cs int64
	_, err := fmt.Sscanf(strings.TrimSpace(line[i+len(durationMarker):]), "%d:%d:%d.%d", &h, &m, &s, &cs)
	if err != nil {
		return 0, false
	}
	d := time.Duration(h)*time.Hour + time.Duration(m)*time.Minute +
		time.Duration(s)*time.Second + time.Duration(cs)*10*time.Millisecond
	return d, d > 0
}

// parseProbeDuration parses ffprobe's "format=duration" csv output, in
// seconds.
func parseProbeDuration(out []byte) (time.Duration, error) {
	s := strings.TrimSpace(string(out))
	if s == "" || s == "N/A" {
		return 0, fmt.Errorf("no duration reported")
	}
	secs, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", s, err)
	}
	return time.Duration(secs * float64(time.Second)), nil
}
