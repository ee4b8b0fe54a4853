package coverage

import (
	"io/fs"
	"log/slog"
	"path/filepath"
	"slices"

	"git.home.luguber.info/inful/fwbuild/internal/logfields"
)

// Discover lists gcov note and data files under root. Unreadable directories are skipped.
func Discover(root string, extensions []string) []string {
	var found []string
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			slog.Debug("Skipping unreadable path", logfields.Path(path), logfields.Error(err))
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if slices.Contains(extensions, filepath.Ext(path)) {
			found = append(found, path)
		}
		return nil
	})
	return found
}
