package media

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// skipIfNoFFmpeg skips the test if ffmpeg is not available.
func skipIfNoFFmpeg(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not found in PATH, skipping test")
	}
}

// fakeFFmpeg writes a shell script standing in for ffmpeg. It records its
// arguments one per line and either creates the output file (its last
// argument) or fails with exitCode.
func fakeFFmpeg(t *testing.T, exitCode int) (bin, argsFile string) {
	t.Helper()
	dir := t.TempDir()
	bin = filepath.Join(dir, "ffmpeg")
	argsFile = filepath.Join(dir, "args")

	script := fmt.Sprintf("#!/bin/sh\nfor a in \"$@\"; do echo \"$a\"; done > '%s'\nfor last; do :; done\n", argsFile)
	if exitCode != 0 {
		script += fmt.Sprintf("echo 'Invalid data found when processing input' >&2\nexit %d\n", exitCode)
	} else {
		script += "printf 'RIFF' > \"$last\"\n"
	}
	require.NoError(t, os.WriteFile(bin, []byte(script), 0700)) // #nosec G306 - test script must be executable
	return bin, argsFile
}

func readArgs(t *testing.T, argsFile string) []string {
	t.Helper()
	data, err := os.ReadFile(argsFile)
	require.NoError(t, err)
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n")
}

func TestNewFFmpegTranscoder(t *testing.T) {
	t.Run("default path", func(t *testing.T) {
		p := NewFFmpegTranscoder("")
		assert.Equal(t, "ffmpeg", p.ffmpegPath)
	})

	t.Run("custom path", func(t *testing.T) {
		p := NewFFmpegTranscoder("/usr/local/bin/ffmpeg")
		assert.Equal(t, "/usr/local/bin/ffmpeg", p.ffmpegPath)
	})
}

func TestToPCM_Args(t *testing.T) {
	bin, argsFile := fakeFFmpeg(t, 0)
	dst := filepath.Join(t.TempDir(), "out.wav")

	err := NewFFmpegTranscoder(bin).ToPCM(context.Background(), "in.m4a", dst, PCMFormat{SampleRate: 44100, Channels: 2})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"-hide_banner", "-loglevel", "error",
		"-y", "-i", "in.m4a",
		"-acodec", "pcm_s16le", "-ar", "44100", "-ac", "2",
		dst,
	}, readArgs(t, argsFile))
	assert.FileExists(t, dst)
}

func TestToPCM_InvalidFormat(t *testing.T) {
	err := NewFFmpegTranscoder("").ToPCM(context.Background(), "in.wav", "out.wav", PCMFormat{SampleRate: 0, Channels: 1})
	assert.ErrorIs(t, err, ErrInvalidFormat)
}

func TestToPCM_Failure(t *testing.T) {
	bin, _ := fakeFFmpeg(t, 1)

	err := NewFFmpegTranscoder(bin).ToPCM(context.Background(), "in.m4a", filepath.Join(t.TempDir(), "out.wav"), PCMFormat{SampleRate: 44100, Channels: 2})
	require.Error(t, err)

	var ffErr *FFmpegError
	require.True(t, errors.As(err, &ffErr))
	assert.Equal(t, 1, ffErr.ExitCode())
	assert.Contains(t, ffErr.Stderr, "Invalid data")
}

func TestToPCM_Cancelled(t *testing.T) {
	bin, _ := fakeFFmpeg(t, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewFFmpegTranscoder(bin).ToPCM(ctx, "in.m4a", filepath.Join(t.TempDir(), "out.wav"), PCMFormat{SampleRate: 44100, Channels: 2})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTimeStretch_Args(t *testing.T) {
	bin, argsFile := fakeFFmpeg(t, 0)
	dst := filepath.Join(t.TempDir(), "a_stretched.wav")

	require.NoError(t, NewFFmpegTranscoder(bin).TimeStretch(context.Background(), "a.wav", dst, 1.2, 0))

	args := readArgs(t, argsFile)
	assert.Contains(t, args, "atempo=1.200000")
	assert.NotContains(t, args, "-ac")
	assert.Equal(t, dst, args[len(args)-1])
}

func TestTimeStretch_Mono(t *testing.T) {
	bin, argsFile := fakeFFmpeg(t, 0)
	dst := filepath.Join(t.TempDir(), "a_stretched.wav")

	require.NoError(t, NewFFmpegTranscoder(bin).TimeStretch(context.Background(), "a.wav", dst, 1.2, 1))

	assert.Contains(t, strings.Join(readArgs(t, argsFile), " "), "-ac 1 -acodec pcm_s16le")
}

func TestTimeStretch_InvalidRate(t *testing.T) {
	err := NewFFmpegTranscoder("").TimeStretch(context.Background(), "a.wav", "b.wav", 0, 1)
	assert.ErrorIs(t, err, ErrInvalidRate)
}

func TestPitchShift_Args(t *testing.T) {
	bin, argsFile := fakeFFmpeg(t, 0)
	dst := filepath.Join(t.TempDir(), "a_pitched.wav")

	require.NoError(t, NewFFmpegTranscoder(bin).PitchShift(context.Background(), "a.wav", dst, PCMFormat{SampleRate: 16000, Channels: 1}, 12))

	// One octave up doubles the rate and halves the tempo
	args := readArgs(t, argsFile)
	assert.Contains(t, args, "asetrate=32000,aresample=16000,atempo=0.500000")
	assert.Contains(t, strings.Join(args, " "), "-ac 1 -acodec pcm_s16le")
}

func TestPitchShift_InvalidSampleRate(t *testing.T) {
	err := NewFFmpegTranscoder("").PitchShift(context.Background(), "a.wav", "b.wav", PCMFormat{}, 1.5)
	assert.ErrorIs(t, err, ErrInvalidSampleRate)
}

func TestAtempoChain(t *testing.T) {
	tests := []struct {
		rate float64
		want string
	}{
		{1.2, "atempo=1.200000"},
		{0.5, "atempo=0.500000"},
		{0.25, "atempo=0.500000,atempo=0.500000"},
		{200, "atempo=100.000000,atempo=2.000000"},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.rate), func(t *testing.T) {
			assert.Equal(t, tt.want, atempoChain(tt.rate))
		})
	}
}

func TestToPCM_RealFFmpeg(t *testing.T) {
	skipIfNoFFmpeg(t)

	dir := t.TempDir()
	src := filepath.Join(dir, "tone.m4a")
	cmd := exec.Command("ffmpeg", "-y", "-f", "lavfi", "-i", "sine=frequency=440:duration=1", "-c:a", "aac", src)
	if output, err := cmd.CombinedOutput(); err != nil {
		t.Skipf("ffmpeg cannot encode aac: %v\n%s", err, output)
	}

	dst := filepath.Join(dir, "tone.wav")
	require.NoError(t, NewFFmpegTranscoder("").ToPCM(context.Background(), src, dst, PCMFormat{SampleRate: 16000, Channels: 1}))

	f, err := os.Open(dst)
	require.NoError(t, err)
	defer f.Close()

	dec := wav.NewDecoder(f)
	dec.ReadInfo()
	require.True(t, dec.IsValidFile())
	assert.Equal(t, uint32(16000), dec.SampleRate)
	assert.Equal(t, uint16(1), dec.NumChans)
	assert.Equal(t, uint16(16), dec.BitDepth)
}

func TestFFmpegError(t *testing.T) {
	err := &FFmpegError{
		Args:   []string{"-i", "input.m4a", "output.wav"},
		Stderr: "Error opening input file",
		Err:    fmt.Errorf("exit status 1"),
	}

	errStr := err.Error()
	assert.Contains(t, errStr, "exit status 1")
	assert.Contains(t, errStr, "Error opening input file")

	require.NotNil(t, err.Unwrap())
	assert.Equal(t, "exit status 1", err.Unwrap().Error())
	assert.Equal(t, -1, err.ExitCode())
}
