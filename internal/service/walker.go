package service

import (
	"io/fs"
	"path/filepath"

	log "github.com/sirupsen/logrus"
)

// WalkTree enumerates every regular file under root and invokes fn with
// the file's absolute path and its root-relative key. Keys always use
// forward slashes regardless of host OS, matching the object key
// namespace.
//
// Unreadable entries, symlinks and other non-regular files are skipped
// with a log line so a partially readable tree still syncs the rest.
// Only an error returned by fn stops the walk.
func WalkTree(root string, fn func(path, key string) error) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			log.Warnf("Skipping unreadable entry %s: %v", path, err)
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if !d.Type().IsRegular() {
			log.Debugf("Skipping non-regular entry %s", path)
			return nil
		}

		key, err := filepath.Rel(root, path)
		if err != nil {
			log.Warnf("Skipping entry %s outside root %s: %v", path, root, err)
			return nil
		}

		return fn(path, filepath.ToSlash(key))
	})
}
