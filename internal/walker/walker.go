// Package walker discovers MP3 sources under a library root and computes
// their mirrored Opus destinations.
package walker

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
)

// Entry pairs one discovered source file with its destination path. The
// destination mirrors the source's position under the library root, with
// the extension swapped.
type Entry struct {
	SourcePath   string
	RelativePath string
	DestPath     string
}

// Discover walks sourceRoot and returns every MP3 file in lexical order,
// paired with its mirrored path under destRoot. Hidden files and
// AppleDouble sidecars are skipped.
func Discover(sourceRoot, destRoot string) ([]Entry, error) {
	sourceRoot = filepath.Clean(sourceRoot)
	destRoot = filepath.Clean(destRoot)

	var entries []Entry
	err := filepath.WalkDir(sourceRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			if path != sourceRoot && strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if strings.HasPrefix(name, ".") {
			return nil
		}
		if !strings.EqualFold(filepath.Ext(name), ".mp3") {
			return nil
		}

		rel, err := filepath.Rel(sourceRoot, path)
		if err != nil {
			return fmt.Errorf("relativize %s: %w", path, err)
		}
		entries = append(entries, Entry{
			SourcePath:   path,
			RelativePath: rel,
			DestPath:     filepath.Join(destRoot, swapExt(rel)),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", sourceRoot, err)
	}
	return entries, nil
}

func swapExt(rel string) string {
	return strings.TrimSuffix(rel, filepath.Ext(rel)) + ".opus"
}
