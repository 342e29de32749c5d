package scanner

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// FileEntry is one discovered log file together with the project it belongs
// to. The project name is the top-level directory under the scan root.
type FileEntry struct {
	Project string
	Path    string
}

// FileScanner enumerates JSONL log files under a root directory laid out as
// root/<project>/<conversation>.jsonl, possibly with nested subdirectories
// inside a project.
type FileScanner struct {
	baseDir string
	log     zerolog.Logger
}

// NewFileScanner creates a scanner for the given root directory.
func NewFileScanner(baseDir string, log zerolog.Logger) *FileScanner {
	return &FileScanner{baseDir: baseDir, log: log}
}

// Scan returns every log file across all project directories, in no
// particular order. Unreadable subtrees are skipped with a warning; only a
// missing or unreadable root is an error, since then there is nothing to
// aggregate at all.
func (s *FileScanner) Scan() ([]FileEntry, error) {
	projects, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, err
	}

	var files []FileEntry
	for _, proj := range projects {
		// Symlinked project directories are not followed; WalkDir below does
		// not follow symlinks either, so cycles cannot occur.
		if !proj.IsDir() {
			continue
		}

		project := proj.Name()
		root := filepath.Join(s.baseDir, project)

		walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				s.log.Warn().Str("path", path).Err(err).Msg("skipping unreadable entry")
				if d != nil && d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				return nil
			}
			if strings.HasSuffix(strings.ToLower(path), ".jsonl") {
				files = append(files, FileEntry{Project: project, Path: path})
			}
			return nil
		})
		if walkErr != nil {
			s.log.Warn().Str("project", project).Err(walkErr).Msg("project walk failed")
		}
	}

	s.log.Debug().Int("files", len(files)).Str("dir", s.baseDir).Msg("scan completed")
	return files, nil
}
