package audio

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Format identifies a supported input container.
type Format string

const (
	// FormatWAV is uncompressed PCM WAV, decoded directly.
	FormatWAV Format = "wav"
	// FormatM4A is AAC in an MPEG-4 container, transcoded to WAV before decoding.
	FormatM4A Format = "m4a"
)

// SupportedExtensions lists the input extensions accepted by the segmenter.
var SupportedExtensions = []string{".m4a", ".wav"}

// FormatFromPath returns the Format for path based on its extension.
// Unknown extensions yield ErrUnsupportedFormat.
func FormatFromPath(path string) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".wav":
		return FormatWAV, nil
	case ".m4a":
		return FormatM4A, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// NeedsTranscode reports whether the format must be converted to WAV first.
func (f Format) NeedsTranscode() bool {
	return f != FormatWAV
}

// BaseName returns the file name of path without directory or extension.
func BaseName(path string) string {
	name := filepath.Base(path)
	return strings.TrimSuffix(name, filepath.Ext(name))
}
