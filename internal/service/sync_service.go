// Package service implements the sync engine: content fingerprinting,
// the remote manifest snapshot, and the diff-and-upload pass that only
// transfers changed files.
package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/zzenonn/sitesync/internal/domain"
	"github.com/zzenonn/sitesync/internal/repository/objectstore"
)

// SyncService mirrors a local directory tree into one bucket.
type SyncService struct {
	objectRepo objectstore.ObjectRepository
	chunkSize  int64
	workers    int
}

// NewSyncService creates a SyncService. chunkSize is both the ETag chunk
// size and the multipart part size; workers bounds the upload pool, and
// 1 gives strictly sequential behavior.
func NewSyncService(objectRepo objectstore.ObjectRepository, chunkSize int64, workers int) *SyncService {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if workers < 1 {
		workers = 1
	}
	return &SyncService{
		objectRepo: objectRepo,
		chunkSize:  chunkSize,
		workers:    workers,
	}
}

type syncTask struct {
	path string
	key  string
}

// Sync walks root and uploads every file whose fingerprint differs from
// the bucket manifest. A manifest load failure aborts before any upload;
// per-file hash or upload failures are accumulated in the report and
// never stop the pass. Cancelling ctx stops scheduling new files while
// in-flight uploads finish. With dryRun set, files that would upload are
// counted and logged but never transferred.
func (s *SyncService) Sync(ctx context.Context, root string, quiet, dryRun bool) (domain.SyncReport, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return domain.SyncReport{}, err
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return domain.SyncReport{}, err
	}
	if !info.IsDir() {
		return domain.SyncReport{}, fmt.Errorf("sync root %s is not a directory", absRoot)
	}

	manifest, err := LoadManifest(ctx, s.objectRepo)
	if err != nil {
		return domain.SyncReport{}, err
	}
	log.Debugf("Loaded manifest with %d objects from bucket %s", len(manifest), s.objectRepo.GetBucketName())

	var (
		mu     sync.Mutex
		report domain.SyncReport
		wg     sync.WaitGroup
	)

	tasks := make(chan syncTask)
	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for task := range tasks {
				s.syncFile(ctx, manifest, task, quiet, dryRun, &mu, &report)
			}
		}()
	}

	walkErr := WalkTree(absRoot, func(path, key string) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case tasks <- syncTask{path: path, key: key}:
			return nil
		}
	})

	close(tasks)
	wg.Wait()

	if walkErr != nil {
		return report, walkErr
	}

	log.Infof("Sync of %s complete: %d uploaded, %d skipped, %d failed",
		absRoot, report.Uploaded, report.Skipped, report.Failed)
	return report, nil
}

func (s *SyncService) syncFile(ctx context.Context, manifest Manifest, task syncTask, quiet, dryRun bool, mu *sync.Mutex, report *domain.SyncReport) {
	fail := func(err error) {
		log.Warnf("Failed to sync %s: %v", task.key, err)
		mu.Lock()
		report.Failed++
		report.FailedKeys = append(report.FailedKeys, task.key)
		mu.Unlock()
	}

	etag, err := GenerateETag(task.path, s.chunkSize)
	if err != nil {
		fail(err)
		return
	}

	if !manifest.NeedsUpload(task.key, etag) {
		log.Debugf("Skipping %s, bucket copy is current", task.key)
		mu.Lock()
		report.Skipped++
		mu.Unlock()
		return
	}

	if dryRun {
		log.Infof("Would upload %s", task.key)
		mu.Lock()
		report.Uploaded++
		mu.Unlock()
		return
	}

	file, err := os.Open(task.path)
	if err != nil {
		fail(err)
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		fail(err)
		return
	}

	contentType := contentTypeForKey(task.key)
	if info.Size() > s.chunkSize {
		_, err = s.objectRepo.UploadMultipart(ctx, task.key, file, contentType, s.chunkSize, quiet)
	} else {
		_, err = s.objectRepo.Upload(ctx, task.key, file, contentType, quiet)
	}
	if err != nil {
		fail(err)
		return
	}

	log.Infof("Uploaded %s (%s)", task.key, contentType)
	mu.Lock()
	report.Uploaded++
	mu.Unlock()
}
