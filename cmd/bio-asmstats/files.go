package main

import (
	"os"
	"path/filepath"

	"github.com/grailbio/asmstats/encoding/seqfile"
	"github.com/grailbio/base/errors"
)

// expandDirectories lists the regular files, or symlinks to regular files,
// with a sequence file extension in each directory, in directory then name
// order.  Subdirectories are not searched.
func expandDirectories(dirs []string) ([]string, error) {
	var paths []string
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, errors.E(err, "read directory", dir)
		}
		for _, e := range entries {
			if !seqfile.IsSequenceFile(e.Name()) {
				continue
			}
			path := filepath.Join(dir, e.Name())
			if info, err := os.Stat(path); err != nil || !info.Mode().IsRegular() {
				continue
			}
			paths = append(paths, path)
		}
	}
	return paths, nil
}
