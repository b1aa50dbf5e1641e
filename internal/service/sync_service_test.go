package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/zzenonn/sitesync/internal/domain"
)

const testChunkSize = 8

func newTestSyncService(repo *mockObjectRepository, workers int) *SyncService {
	return NewSyncService(repo, testChunkSize, workers)
}

// TestSyncService_FirstPassUploadsEverything verifies an empty bucket
// receives the whole tree.
func TestSyncService_FirstPassUploadsEverything(t *testing.T) {
	root := buildTestTree(t)
	repo := newMockObjectRepository("test-bucket", testChunkSize)

	report, err := newTestSyncService(repo, 4).Sync(context.Background(), root, true, false)
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}

	if report.Uploaded != 4 || report.Skipped != 0 || report.Failed != 0 {
		t.Errorf("Report = %+v, want 4 uploaded, 0 skipped, 0 failed", report)
	}

	want := []string{"about.html", "css/main.css", "img/icons/logo.png", "index.html"}
	got := repo.uploadedKeys()
	if len(got) != len(want) {
		t.Fatalf("Uploaded keys = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Uploaded key %d = %q, want %q", i, got[i], want[i])
		}
	}
}

// TestSyncService_Idempotence verifies a second pass over an unchanged
// tree uploads nothing.
func TestSyncService_Idempotence(t *testing.T) {
	root := buildTestTree(t)
	repo := newMockObjectRepository("test-bucket", testChunkSize)
	syncService := newTestSyncService(repo, 2)

	if _, err := syncService.Sync(context.Background(), root, true, false); err != nil {
		t.Fatalf("First Sync() error = %v", err)
	}

	report, err := syncService.Sync(context.Background(), root, true, false)
	if err != nil {
		t.Fatalf("Second Sync() error = %v", err)
	}
	if report.Uploaded != 0 || report.Skipped != 4 {
		t.Errorf("Second pass report = %+v, want 0 uploaded, 4 skipped", report)
	}
}

// TestSyncService_ChangeDetection verifies modifying one file re-uploads
// that key only.
func TestSyncService_ChangeDetection(t *testing.T) {
	root := buildTestTree(t)
	repo := newMockObjectRepository("test-bucket", testChunkSize)
	syncService := newTestSyncService(repo, 2)

	if _, err := syncService.Sync(context.Background(), root, true, false); err != nil {
		t.Fatalf("First Sync() error = %v", err)
	}

	changed := filepath.Join(root, "css", "main.css")
	if err := os.WriteFile(changed, []byte("body { color: red }"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	report, err := syncService.Sync(context.Background(), root, true, false)
	if err != nil {
		t.Fatalf("Second Sync() error = %v", err)
	}
	if report.Uploaded != 1 || report.Skipped != 3 {
		t.Errorf("Report = %+v, want 1 uploaded, 3 skipped", report)
	}
}

// TestSyncService_EmptyFileAlwaysUploads verifies the absent-fingerprint
// rule: a zero-byte file is re-sent on every pass.
func TestSyncService_EmptyFileAlwaysUploads(t *testing.T) {
	root := buildTestTree(t)
	if err := os.WriteFile(filepath.Join(root, "empty.txt"), nil, 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	repo := newMockObjectRepository("test-bucket", testChunkSize)
	syncService := newTestSyncService(repo, 2)

	if _, err := syncService.Sync(context.Background(), root, true, false); err != nil {
		t.Fatalf("First Sync() error = %v", err)
	}

	report, err := syncService.Sync(context.Background(), root, true, false)
	if err != nil {
		t.Fatalf("Second Sync() error = %v", err)
	}
	if report.Uploaded != 1 || report.Skipped != 4 {
		t.Errorf("Second pass report = %+v, want only the empty file re-uploaded", report)
	}
}

// TestSyncService_MultipartThreshold verifies files above one chunk go
// through the multipart path with part size equal to the chunk size.
func TestSyncService_MultipartThreshold(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "small.bin"), patternBytes(testChunkSize), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "large.bin"), patternBytes(20), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	repo := newMockObjectRepository("test-bucket", testChunkSize)
	report, err := newTestSyncService(repo, 1).Sync(context.Background(), root, true, false)
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if report.Uploaded != 2 {
		t.Fatalf("Report = %+v, want 2 uploaded", report)
	}

	if _, ok := repo.partSizes["small.bin"]; ok {
		t.Error("small.bin went through the multipart path")
	}
	partSize, ok := repo.partSizes["large.bin"]
	if !ok {
		t.Fatal("large.bin did not go through the multipart path")
	}
	if partSize != testChunkSize {
		t.Errorf("Multipart part size = %d, want %d", partSize, testChunkSize)
	}
}

// TestSyncService_PartialUploadFailure verifies one failing upload never
// aborts the rest of the pass.
func TestSyncService_PartialUploadFailure(t *testing.T) {
	root := buildTestTree(t)
	repo := newMockObjectRepository("test-bucket", testChunkSize)
	repo.uploadFunc = func(key string) error {
		if key == "about.html" {
			return errors.New("access denied")
		}
		return nil
	}

	report, err := newTestSyncService(repo, 2).Sync(context.Background(), root, true, false)
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}

	if report.Uploaded != 3 || report.Failed != 1 {
		t.Errorf("Report = %+v, want 3 uploaded, 1 failed", report)
	}
	if len(report.FailedKeys) != 1 || report.FailedKeys[0] != "about.html" {
		t.Errorf("FailedKeys = %v, want [about.html]", report.FailedKeys)
	}
}

// TestSyncService_UnreadableFileContinues mirrors deploying a tree where
// one file cannot be hashed: the other files still sync.
func TestSyncService_UnreadableFileContinues(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("Permission checks do not apply to root")
	}

	root := t.TempDir()
	for _, name := range []string{"a.txt", "b.txt", "c.txt"} {
		if err := os.WriteFile(filepath.Join(root, name), []byte(name), 0644); err != nil {
			t.Fatalf("WriteFile failed: %v", err)
		}
	}
	if err := os.Chmod(filepath.Join(root, "b.txt"), 0000); err != nil {
		t.Fatalf("Chmod failed: %v", err)
	}
	t.Cleanup(func() { os.Chmod(filepath.Join(root, "b.txt"), 0644) })

	repo := newMockObjectRepository("test-bucket", testChunkSize)
	report, err := newTestSyncService(repo, 1).Sync(context.Background(), root, true, false)
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}

	if report.Uploaded != 2 || report.Failed != 1 {
		t.Errorf("Report = %+v, want 2 uploaded, 1 failed", report)
	}
	if len(report.FailedKeys) != 1 || report.FailedKeys[0] != "b.txt" {
		t.Errorf("FailedKeys = %v, want [b.txt]", report.FailedKeys)
	}
}

// TestSyncService_DryRun verifies a dry run reports would-be uploads
// without transferring anything.
func TestSyncService_DryRun(t *testing.T) {
	root := buildTestTree(t)
	repo := newMockObjectRepository("test-bucket", testChunkSize)
	syncService := newTestSyncService(repo, 2)

	report, err := syncService.Sync(context.Background(), root, true, true)
	if err != nil {
		t.Fatalf("Dry run Sync() error = %v", err)
	}
	if report.Uploaded != 4 || report.Skipped != 0 {
		t.Errorf("Dry run report = %+v, want 4 would-upload, 0 skipped", report)
	}
	if keys := repo.uploadedKeys(); len(keys) != 0 {
		t.Errorf("Dry run transferred objects: %v", keys)
	}

	// A real pass, one change, then a dry run sees exactly that change.
	if _, err := syncService.Sync(context.Background(), root, true, false); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	changed := filepath.Join(root, "about.html")
	if err := os.WriteFile(changed, []byte("updated"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	report, err = syncService.Sync(context.Background(), root, true, true)
	if err != nil {
		t.Fatalf("Dry run Sync() error = %v", err)
	}
	if report.Uploaded != 1 || report.Skipped != 3 {
		t.Errorf("Dry run report = %+v, want 1 would-upload, 3 skipped", report)
	}
	if string(repo.storage["about.html"]) == "updated" {
		t.Error("Dry run wrote the changed content to the bucket")
	}
}

// TestSyncService_CancellationStopsScheduling verifies cancelling the
// context stops feeding new files to the pool while the upload already
// in flight completes.
func TestSyncService_CancellationStopsScheduling(t *testing.T) {
	root := t.TempDir()
	for i := 0; i < 8; i++ {
		name := fmt.Sprintf("file%d.txt", i)
		if err := os.WriteFile(filepath.Join(root, name), []byte(name), 0644); err != nil {
			t.Fatalf("WriteFile failed: %v", err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())

	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once

	repo := newMockObjectRepository("test-bucket", testChunkSize)
	repo.uploadFunc = func(key string) error {
		once.Do(func() { close(started) })
		<-release
		return nil
	}

	type result struct {
		report domain.SyncReport
		err    error
	}
	done := make(chan result, 1)
	go func() {
		report, err := newTestSyncService(repo, 1).Sync(ctx, root, true, false)
		done <- result{report, err}
	}()

	// The single worker is now blocked inside its first upload and the
	// walker is blocked handing over the next file. Cancel, give the
	// walker a moment to observe it, then let the upload finish.
	<-started
	cancel()
	time.Sleep(50 * time.Millisecond)
	close(release)

	res := <-done
	if !errors.Is(res.err, context.Canceled) {
		t.Fatalf("Sync() error = %v, want context.Canceled", res.err)
	}
	if res.report.Uploaded < 1 {
		t.Error("Expected the in-flight upload to finish")
	}
	if res.report.Uploaded >= 8 {
		t.Errorf("Uploaded = %d, cancellation did not stop scheduling", res.report.Uploaded)
	}
	if keys := repo.uploadedKeys(); len(keys) != res.report.Uploaded {
		t.Errorf("Stored objects = %v, want %d", keys, res.report.Uploaded)
	}
}

// TestSyncService_ManifestLoadFailureAborts verifies a listing failure
// prevents any upload attempt.
func TestSyncService_ManifestLoadFailureAborts(t *testing.T) {
	root := buildTestTree(t)
	repo := newMockObjectRepository("test-bucket", testChunkSize)
	repo.listErr = errors.New("pagination failed")

	_, err := newTestSyncService(repo, 2).Sync(context.Background(), root, true, false)
	if err == nil {
		t.Fatal("Expected manifest load failure to abort the sync")
	}
	if len(repo.uploadedKeys()) != 0 {
		t.Errorf("Expected no uploads after manifest failure, got %v", repo.uploadedKeys())
	}
}

// TestSyncService_MissingRoot verifies a nonexistent root is an error.
func TestSyncService_MissingRoot(t *testing.T) {
	repo := newMockObjectRepository("test-bucket", testChunkSize)

	_, err := newTestSyncService(repo, 1).Sync(context.Background(), filepath.Join(t.TempDir(), "absent"), true, false)
	if err == nil {
		t.Fatal("Expected error for missing sync root")
	}
}

// TestContentTypeForKey covers the extension mapping and its fallback.
func TestContentTypeForKey(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"index.html", "text/html; charset=utf-8"},
		{"img/logo.png", "image/png"},
		{"notes/README", "text/plain"},
		{"archive.bin.unknownext", "text/plain"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if got := contentTypeForKey(tt.key); got != tt.want {
				t.Errorf("contentTypeForKey(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}
