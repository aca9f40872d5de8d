package audio

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path    string
		want    Format
		wantErr bool
	}{
		{"a.wav", FormatWAV, false},
		{"dir/b.WAV", FormatWAV, false},
		{"c.m4a", FormatM4A, false},
		{"d.M4A", FormatM4A, false},
		{"e.mp3", "", true},
		{"noext", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := FormatFromPath(tt.path)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedFormat)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormat_NeedsTranscode(t *testing.T) {
	assert.False(t, FormatWAV.NeedsTranscode())
	assert.True(t, FormatM4A.NeedsTranscode())
}

func TestBaseName(t *testing.T) {
	assert.Equal(t, "interview", BaseName("/data/in/interview.m4a"))
	assert.Equal(t, "take.2", BaseName("take.2.wav"))
}
