package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, root, rel string) string {
	t.Helper()
	p := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0750))
	require.NoError(t, os.WriteFile(p, nil, 0600))
	return p
}

func TestListInputs(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "b.m4a")
	touch(t, dir, "a.wav")
	touch(t, dir, "C.WAV")
	touch(t, dir, "song.mp3")
	touch(t, dir, "notes.txt")
	touch(t, dir, "sub/nested.wav")

	got, err := ListInputs(dir, []string{".m4a", ".wav"})

	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "C.WAV"),
		filepath.Join(dir, "a.wav"),
		filepath.Join(dir, "b.m4a"),
	}, got)
}

func TestListInputs_MissingDir(t *testing.T) {
	_, err := ListInputs(filepath.Join(t.TempDir(), "missing"), []string{".wav"})
	assert.Error(t, err)
}

func TestWalkInputs(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "z.wav")
	touch(t, dir, "spk1/a.wav")
	touch(t, dir, "spk1/deep/b.wav")
	touch(t, dir, "spk2/readme.md")

	got, err := WalkInputs(dir, []string{".wav"})

	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "spk1", "a.wav"),
		filepath.Join(dir, "spk1", "deep", "b.wav"),
		filepath.Join(dir, "z.wav"),
	}, got)
}
