package augment

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/maruel/natural"
)

// Clips returns the original .wav clips found in the immediate
// sub-directories of root. Sub-directories are visited in name order and the
// clips of each are sorted naturally, so "clip2" precedes "clip10".
func Clips(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read input directory: %w", err)
	}

	var clips []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dir := filepath.Join(root, e.Name())
		files, err := os.ReadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", dir, err)
		}

		var names []string
		for _, f := range files {
			name := f.Name()
			if f.Type().IsRegular() && strings.EqualFold(filepath.Ext(name), ".wav") && !IsVariant(name) {
				names = append(names, name)
			}
		}
		slices.SortFunc(names, natural.Compare)
		for _, name := range names {
			clips = append(clips, filepath.Join(dir, name))
		}
	}
	return clips, nil
}
