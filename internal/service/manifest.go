package service

import (
	"context"

	"github.com/zzenonn/sitesync/internal/errors"
	"github.com/zzenonn/sitesync/internal/repository/objectstore"
)

// Manifest maps every object key in one bucket to its entity tag, as a
// point-in-time snapshot. It is built once per sync pass and read-only
// afterwards, which is what lets the pass avoid a remote round-trip per
// candidate file.
type Manifest map[string]string

// NeedsUpload reports whether the local fingerprint differs from the
// bucket's recorded state. Comparison is exact string equality; an empty
// localETag means an empty file, which has nothing to compare and is
// always re-sent.
func (m Manifest) NeedsUpload(key, localETag string) bool {
	if localETag == "" {
		return true
	}
	remote, ok := m[key]
	return !ok || remote != localETag
}

// LoadManifest performs the full paginated bucket listing and aggregates
// it into a Manifest. Any listing failure aborts with no manifest; a
// partial one would silently suppress uploads.
func LoadManifest(ctx context.Context, repo objectstore.ObjectRepository) (Manifest, error) {
	objects, err := repo.ListObjects(ctx)
	if err != nil {
		return nil, errors.ManifestLoadError(repo.GetBucketName(), err)
	}

	manifest := make(Manifest, len(objects))
	for _, obj := range objects {
		manifest[obj.Key] = obj.ETag
	}
	return manifest, nil
}
