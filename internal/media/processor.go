// Package media wraps the ffmpeg CLI for the audio conversions that are not
// done in process: container transcoding, resampling and tempo/pitch effects.
package media

import "context"

// PCMFormat describes a 16-bit PCM WAV target.
type PCMFormat struct {
	SampleRate int
	Channels   int
}

// Transcoder defines the ffmpeg-backed audio conversions.
type Transcoder interface {
	// ToPCM converts src to a 16-bit PCM WAV at dst with the given sample
	// rate and channel count.
	ToPCM(ctx context.Context, src, dst string, format PCMFormat) error

	// TimeStretch writes src played back rate times faster to dst, keeping pitch.
	// A positive channels downmixes or upmixes the result.
	TimeStretch(ctx context.Context, src, dst string, rate float64, channels int) error

	// PitchShift writes src shifted by semitones to dst, keeping duration.
	// format.SampleRate is the sample rate of src and of the result.
	PitchShift(ctx context.Context, src, dst string, format PCMFormat, semitones float64) error
}
