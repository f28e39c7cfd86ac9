// Package corpus turns a directory of labeled reference photos into the
// engine's recognition artifacts: embedding records for the vector store
// and trained classifier artifacts.
//
// Layout: one subdirectory per label, photos directly inside. Directory
// names use underscores for spaces ("gates_hall" -> "Gates Hall").
package corpus

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// stagingDir is reserved for photos not yet sorted into a label and is
// skipped during scans.
const stagingDir = "todo"

var imageExts = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
}

var titleCaser = cases.Title(language.English)

// ImageFile is one labeled reference photo found by Scan.
type ImageFile struct {
	Label string
	Path  string
}

// LabelFromDir derives the display label from a corpus directory name:
// underscores become spaces and each word is title-cased.
func LabelFromDir(name string) string {
	return titleCaser.String(strings.ReplaceAll(name, "_", " "))
}

// Scan walks the corpus root and returns every labeled photo in
// deterministic order. Non-directories at the root, the staging directory
// and files without a known image extension are skipped.
func Scan(root string) ([]ImageFile, error) {
	dirs, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read corpus root %q: %w", root, err)
	}

	var files []ImageFile
	for _, dir := range dirs {
		if !dir.IsDir() || strings.EqualFold(dir.Name(), stagingDir) {
			continue
		}
		label := LabelFromDir(dir.Name())

		entries, err := os.ReadDir(filepath.Join(root, dir.Name()))
		if err != nil {
			return nil, fmt.Errorf("read label directory %q: %w", dir.Name(), err)
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			ext := strings.ToLower(filepath.Ext(entry.Name()))
			if _, ok := imageExts[ext]; !ok {
				continue
			}
			files = append(files, ImageFile{
				Label: label,
				Path:  filepath.Join(root, dir.Name(), entry.Name()),
			})
		}
	}
	return files, nil
}

// groupByLabel buckets scanned files per label, preserving scan order both
// of labels and of files within a label.
func groupByLabel(files []ImageFile) ([]string, map[string][]ImageFile) {
	groups := make(map[string][]ImageFile)
	var labels []string
	for _, f := range files {
		if _, ok := groups[f.Label]; !ok {
			labels = append(labels, f.Label)
		}
		groups[f.Label] = append(groups[f.Label], f)
	}
	return labels, groups
}
