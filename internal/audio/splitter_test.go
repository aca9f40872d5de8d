package audio

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitOpts_Validate(t *testing.T) {
	assert.NoError(t, DefaultSplitOpts().Validate())

	tests := []struct {
		name   string
		mutate func(*SplitOpts)
	}{
		{"zero min silence", func(o *SplitOpts) { o.MinSilenceMs = 0 }},
		{"zero threshold", func(o *SplitOpts) { o.SilenceThreshDB = 0 }},
		{"negative keep silence", func(o *SplitOpts) { o.KeepSilenceMs = -1 }},
		{"negative padding", func(o *SplitOpts) { o.PaddingMs = -1 }},
		{"zero cap", func(o *SplitOpts) { o.MaxSegments = 0 }},
		{"zero seek step", func(o *SplitOpts) { o.SeekStepMs = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultSplitOpts()
			tt.mutate(&opts)
			assert.ErrorIs(t, opts.Validate(), ErrInvalidSplitOpts)
		})
	}
}
