package audio

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/handiism/vidconv/internal/model"
)

// PlaylistFormat represents supported playlist file formats.
//
// Each format has different features and compatibility:
//   - M3U: Simple text format, widely supported
//   - PLS: INI-style format, used by Winamp
//   - WPL: XML format, Windows Media Player
//   - ZPL: XML format, Zune/Groove Music
type PlaylistFormat int

const (
	// FormatM3U creates .m3u files (most compatible).
	FormatM3U PlaylistFormat = iota

	// FormatPLS creates .pls files (Winamp/SHOUTcast format).
	FormatPLS

	// FormatWPL creates .wpl files (Windows Media Player).
	FormatWPL

	// FormatZPL creates .zpl files (Zune/Groove Music).
	FormatZPL
)

// ParsePlaylistFormat parses a format name such as "m3u" or "pls".
func ParsePlaylistFormat(s string) (PlaylistFormat, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "", "m3u", "m3u8":
		return FormatM3U, nil
	case "pls":
		return FormatPLS, nil
	case "wpl":
		return FormatWPL, nil
	case "zpl":
		return FormatZPL, nil
	default:
		return FormatM3U, fmt.Errorf("unknown playlist format %q", s)
	}
}

// Extension returns the file extension including the dot.
func (f PlaylistFormat) Extension() string {
	switch f {
	case FormatPLS:
		return ".pls"
	case FormatWPL:
		return ".wpl"
	case FormatZPL:
		return ".zpl"
	default:
		return ".m3u"
	}
}

// String returns the format name.
func (f PlaylistFormat) String() string {
	return strings.TrimPrefix(f.Extension(), ".")
}

// PlaylistCreator generates playlist files for multi-item conversions.
//
// Entries are file names relative to the playlist, which is expected to sit
// in the same directory as the converted files.
//
// Example:
//
//	creator := NewPlaylistCreator(FormatM3U, true)
//	content := creator.CreatePlaylist(result)
//
//	// Result:
//	// #EXTM3U
//	// #EXTINF:180,Song Title
//	// Song_Title_[abc].mp3
type PlaylistCreator struct {
	format   PlaylistFormat
	extended bool // For M3U: include EXTINF lines with duration/title
}

// NewPlaylistCreator creates a new PlaylistCreator. extended only affects
// M3U output.
func NewPlaylistCreator(format PlaylistFormat, extended bool) *PlaylistCreator {
	return &PlaylistCreator{
		format:   format,
		extended: extended,
	}
}

// Format returns the playlist format.
func (p *PlaylistCreator) Format() PlaylistFormat {
	return p.format
}

// CreatePlaylist generates playlist content for the items of result.
func (p *PlaylistCreator) CreatePlaylist(result *model.ConversionResult) string {
	switch p.format {
	case FormatPLS:
		return p.createPLS(result)
	case FormatWPL:
		return p.createWPL(result)
	case FormatZPL:
		return p.createZPL(result)
	default:
		return p.createM3U(result)
	}
}

// createM3U generates an M3U playlist.
func (p *PlaylistCreator) createM3U(result *model.ConversionResult) string {
	var sb strings.Builder

	if p.extended {
		sb.WriteString("#EXTM3U\n")
		sb.WriteString(fmt.Sprintf("#PLAYLIST:%s\n", result.Title))
	}

	for _, item := range result.Items {
		if p.extended {
			sb.WriteString(fmt.Sprintf("#EXTINF:%d,%s\n", seconds(item.DurationMillis), item.Title))
		}
		sb.WriteString(entryName(item) + "\n")
	}

	return sb.String()
}

// createPLS generates a PLS playlist.
//
//	[playlist]
//	File1=filename1.mp3
//	Title1=Song Title
//	Length1=180
//	NumberOfEntries=1
//	Version=2
func (p *PlaylistCreator) createPLS(result *model.ConversionResult) string {
	var sb strings.Builder

	sb.WriteString("[playlist]\n")

	for i, item := range result.Items {
		idx := i + 1
		sb.WriteString(fmt.Sprintf("File%d=%s\n", idx, entryName(item)))
		sb.WriteString(fmt.Sprintf("Title%d=%s\n", idx, item.Title))
		length := seconds(item.DurationMillis)
		if length == 0 {
			length = -1
		}
		sb.WriteString(fmt.Sprintf("Length%d=%d\n", idx, length))
	}

	sb.WriteString(fmt.Sprintf("NumberOfEntries=%d\n", len(result.Items)))
	sb.WriteString("Version=2\n")

	return sb.String()
}

// createWPL generates a Windows Media Player playlist.
func (p *PlaylistCreator) createWPL(result *model.ConversionResult) string {
	var sb strings.Builder

	sb.WriteString("<?wpl version=\"1.0\"?>\n")
	sb.WriteString("<smil>\n")
	sb.WriteString("  <head>\n")
	sb.WriteString(fmt.Sprintf("    <title>%s</title>\n", escapeXML(result.Title)))
	sb.WriteString("  </head>\n")
	sb.WriteString("  <body>\n")
	sb.WriteString("    <seq>\n")

	for _, item := range result.Items {
		sb.WriteString(fmt.Sprintf("      <media src=\"%s\"/>\n", escapeXML(entryName(item))))
	}

	sb.WriteString("    </seq>\n")
	sb.WriteString("  </body>\n")
	sb.WriteString("</smil>\n")

	return sb.String()
}

// createZPL generates a Zune/Groove Music playlist, which adds per-entry
// title and duration to the WPL layout.
func (p *PlaylistCreator) createZPL(result *model.ConversionResult) string {
	var sb strings.Builder

	sb.WriteString("<?zpl version=\"2.0\"?>\n")
	sb.WriteString("<smil>\n")
	sb.WriteString("  <head>\n")
	sb.WriteString(fmt.Sprintf("    <title>%s</title>\n", escapeXML(result.Title)))
	sb.WriteString("    <meta name=\"Generator\" content=\"vidconv\"/>\n")
	sb.WriteString(fmt.Sprintf("    <meta name=\"ItemCount\" content=\"%d\"/>\n", len(result.Items)))
	sb.WriteString("  </head>\n")
	sb.WriteString("  <body>\n")
	sb.WriteString("    <seq>\n")

	for _, item := range result.Items {
		sb.WriteString(fmt.Sprintf("      <media src=\"%s\" albumTitle=\"%s\" trackTitle=\"%s\" duration=\"%d\"/>\n",
			escapeXML(entryName(item)),
			escapeXML(result.Title),
			escapeXML(item.Title),
			item.DurationMillis))
	}

	sb.WriteString("    </seq>\n")
	sb.WriteString("  </body>\n")
	sb.WriteString("</smil>\n")

	return sb.String()
}

func entryName(item model.VideoItem) string {
	if item.FileName != "" {
		return item.FileName
	}
	return filepath.Base(item.FilePath)
}

func seconds(millis int64) int64 {
	return (millis + 500) / 1000
}

// escapeXML escapes special XML characters in a string.
func escapeXML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	s = strings.ReplaceAll(s, "\"", "&quot;")
	s = strings.ReplaceAll(s, "'", "&apos;")
	return s
}
