package utils

import "path/filepath"

// AnchorPath resolves path against baseDir. Absolute paths come back
// unchanged; relative paths are anchored at baseDir so they mean the same
// thing no matter where the command runs.
func AnchorPath(baseDir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}
