package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/riff"
	"github.com/go-audio/wav"
)

// WAVE format tags.
const (
	wavFormatPCM        = 1
	wavFormatExtensible = 0xFFFE
)

// pcmSubFormatTail is the part of the KSDATAFORMAT_SUBTYPE_* GUID shared by
// every sub-format; the first two bytes carry the format tag.
var pcmSubFormatTail = []byte{0x00, 0x00, 0x00, 0x00, 0x10, 0x00, 0x80, 0x00, 0x00, 0xAA, 0x00, 0x38, 0x9B, 0x71}

// Waveform is a decoded block of PCM audio.
// Samples are interleaved by channel and stored at the source bit depth.
// A Waveform is not modified after it is loaded; slices share its backing array.
type Waveform struct {
	SampleRate int
	Channels   int
	BitDepth   int
	Samples    []int
}

// Frames returns the number of sample frames (one sample per channel).
func (w *Waveform) Frames() int {
	if w.Channels == 0 {
		return 0
	}
	return len(w.Samples) / w.Channels
}

// DurationMs returns the length of the waveform in whole milliseconds, rounded.
func (w *Waveform) DurationMs() int {
	if w.SampleRate == 0 {
		return 0
	}
	return int(math.Round(1000 * float64(w.Frames()) / float64(w.SampleRate)))
}

// MaxAmplitude returns the largest absolute sample value for the bit depth.
func (w *Waveform) MaxAmplitude() float64 {
	return math.Exp2(float64(w.BitDepth - 1))
}

// frameAt converts a millisecond offset to a frame index, clamped to the waveform.
func (w *Waveform) frameAt(ms int) int {
	if ms <= 0 {
		return 0
	}
	f := int(int64(ms) * int64(w.SampleRate) / 1000)
	if n := w.Frames(); f > n {
		return n
	}
	return f
}

// Slice returns the [startMs, endMs) range of the waveform.
// The result shares samples with w.
func (w *Waveform) Slice(startMs, endMs int) *Waveform {
	start := w.frameAt(startMs) * w.Channels
	end := w.frameAt(endMs) * w.Channels
	if end < start {
		end = start
	}
	return &Waveform{
		SampleRate: w.SampleRate,
		Channels:   w.Channels,
		BitDepth:   w.BitDepth,
		Samples:    w.Samples[start:end],
	}
}

// Padded returns a copy of w with padMs of digital silence before and after it.
func (w *Waveform) Padded(padMs int) *Waveform {
	pad := 0
	if padMs > 0 {
		pad = int(int64(padMs)*int64(w.SampleRate)/1000) * w.Channels
	}
	samples := make([]int, pad+len(w.Samples)+pad)
	copy(samples[pad:], w.Samples)
	return &Waveform{
		SampleRate: w.SampleRate,
		Channels:   w.Channels,
		BitDepth:   w.BitDepth,
		Samples:    samples,
	}
}

// Mono returns w downmixed to one channel by averaging each frame.
// A mono waveform is returned unchanged.
func (w *Waveform) Mono() *Waveform {
	if w.Channels <= 1 {
		return w
	}
	frames := w.Frames()
	samples := make([]int, frames)
	for f := range frames {
		sum := 0
		for _, v := range w.Samples[f*w.Channels : (f+1)*w.Channels] {
			sum += v
		}
		samples[f] = int(math.Round(float64(sum) / float64(w.Channels)))
	}
	return &Waveform{
		SampleRate: w.SampleRate,
		Channels:   1,
		BitDepth:   w.BitDepth,
		Samples:    samples,
	}
}

// DecodeWAV reads a PCM WAV stream into a Waveform.
// Plain and WAVE_FORMAT_EXTENSIBLE integer PCM at 8, 16, 24 and 32 bits are
// accepted. 8-bit samples are unsigned on disk and re-centred on zero here.
// Any structural problem with the stream is reported as ErrDecodeFailed.
func DecodeWAV(r io.ReadSeeker) (*Waveform, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%w: not a valid RIFF/WAVE stream", ErrDecodeFailed)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("%w: read pcm: %w", ErrDecodeFailed, err)
	}

	switch dec.WavAudioFormat {
	case wavFormatPCM:
	case wavFormatExtensible:
		sub, err := extensibleSubFormat(r)
		if err != nil {
			return nil, fmt.Errorf("%w: read extensible format: %w", ErrDecodeFailed, err)
		}
		if sub != wavFormatPCM {
			return nil, fmt.Errorf("%w: extensible sub-format %d is not PCM", ErrDecodeFailed, sub)
		}
	default:
		return nil, fmt.Errorf("%w: audio format %d is not PCM", ErrDecodeFailed, dec.WavAudioFormat)
	}
	switch dec.BitDepth {
	case 8, 16, 24, 32:
	default:
		return nil, fmt.Errorf("%w: unsupported bit depth %d", ErrDecodeFailed, dec.BitDepth)
	}
	if buf.Format == nil || buf.Format.NumChannels < 1 || buf.Format.SampleRate < 1 {
		return nil, fmt.Errorf("%w: missing format information", ErrDecodeFailed)
	}

	// Drop a trailing partial frame so Samples is always whole frames.
	n := len(buf.Data) - len(buf.Data)%buf.Format.NumChannels
	if dec.BitDepth == 8 {
		for i := range buf.Data[:n] {
			buf.Data[i] -= 128
		}
	}

	return &Waveform{
		SampleRate: buf.Format.SampleRate,
		Channels:   buf.Format.NumChannels,
		BitDepth:   int(dec.BitDepth),
		Samples:    buf.Data[:n],
	}, nil
}

// extensibleSubFormat rewinds r and returns the format tag held in the
// sub-format GUID of a WAVE_FORMAT_EXTENSIBLE fmt chunk.
func extensibleSubFormat(r io.ReadSeeker) (uint16, error) {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return 0, err
	}
	p := riff.New(r)
	if err := p.ParseHeaders(); err != nil {
		return 0, err
	}
	for {
		ch, err := p.NextChunk()
		if err != nil {
			return 0, err
		}
		if ch.ID != riff.FmtID {
			ch.Drain()
			continue
		}
		data := make([]byte, ch.Size)
		if _, err := io.ReadFull(ch, data); err != nil {
			return 0, err
		}
		// 16 byte base header, cbSize, valid bits, channel mask, then the GUID
		if len(data) < 40 || !bytes.Equal(data[26:40], pcmSubFormatTail) {
			return 0, errors.New("fmt chunk has no sub-format GUID")
		}
		return binary.LittleEndian.Uint16(data[24:26]), nil
	}
}

// ReadWAVFile opens and decodes the WAV file at path.
func ReadWAVFile(path string) (*Waveform, error) {
	f, err := os.Open(path) // #nosec G304 - path comes from the batch input listing
	if err != nil {
		return nil, fmt.Errorf("open wav: %w", err)
	}
	defer func() { _ = f.Close() }()

	w, err := DecodeWAV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return w, nil
}

// WriteWAVFile encodes w as a PCM WAV file at path, replacing any existing file.
// A partially written file is removed on error.
func WriteWAVFile(path string, w *Waveform) (err error) {
	f, err := os.Create(path) // #nosec G304 - output paths are derived by the segmenter
	if err != nil {
		return fmt.Errorf("create wav: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close wav: %w", cerr)
		}
		if err != nil {
			_ = os.Remove(path)
		}
	}()

	enc := wav.NewEncoder(f, w.SampleRate, w.BitDepth, w.Channels, wavFormatPCM)
	if err := enc.Write(w.intBuffer()); err != nil {
		return fmt.Errorf("encode wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finalize wav: %w", err)
	}
	return nil
}

func (w *Waveform) intBuffer() *goaudio.IntBuffer {
	data := w.Samples
	if w.BitDepth == 8 {
		data = make([]int, len(w.Samples))
		for i, v := range w.Samples {
			data[i] = v + 128
		}
	}
	return &goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: w.Channels,
			SampleRate:  w.SampleRate,
		},
		Data:           data,
		SourceBitDepth: w.BitDepth,
	}
}
