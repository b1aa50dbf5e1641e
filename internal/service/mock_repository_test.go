package service

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/zzenonn/sitesync/internal/domain"
)

func newContentReader(content string) io.Reader {
	return strings.NewReader(content)
}

// mockObjectRepository is an in-memory object repository. It computes
// entity tags for stored objects with the same chunking convention the
// real store uses, so manifests loaded from it behave like S3's.
type mockObjectRepository struct {
	mu         sync.Mutex
	bucketName string
	chunkSize  int64
	storage    map[string][]byte
	etags      map[string]string
	partSizes  map[string]int64
	uploadFunc func(key string) error
	listErr    error
}

func newMockObjectRepository(bucketName string, chunkSize int64) *mockObjectRepository {
	return &mockObjectRepository{
		bucketName: bucketName,
		chunkSize:  chunkSize,
		storage:    make(map[string][]byte),
		etags:      make(map[string]string),
		partSizes:  make(map[string]int64),
	}
}

func (m *mockObjectRepository) store(key string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}

	etag, err := generateETag(bytes.NewReader(data), m.chunkSize)
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	m.storage[key] = data
	m.etags[key] = etag
	m.mu.Unlock()
	return m.bucketName + "/" + key, nil
}

func (m *mockObjectRepository) Upload(ctx context.Context, key string, r io.Reader, contentType string, quiet bool) (string, error) {
	if m.uploadFunc != nil {
		if err := m.uploadFunc(key); err != nil {
			return "", err
		}
	}
	return m.store(key, r)
}

func (m *mockObjectRepository) UploadMultipart(ctx context.Context, key string, r io.Reader, contentType string, partSize int64, quiet bool) (string, error) {
	if m.uploadFunc != nil {
		if err := m.uploadFunc(key); err != nil {
			return "", err
		}
	}
	m.mu.Lock()
	m.partSizes[key] = partSize
	m.mu.Unlock()
	return m.store(key, r)
}

func (m *mockObjectRepository) ListObjects(ctx context.Context) ([]domain.ObjectInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.listErr != nil {
		return nil, m.listErr
	}

	var objects []domain.ObjectInfo
	for key, data := range m.storage {
		objects = append(objects, domain.ObjectInfo{
			Key:  key,
			ETag: m.etags[key],
			Size: int64(len(data)),
		})
	}
	sort.Slice(objects, func(i, j int) bool { return objects[i].Key < objects[j].Key })
	return objects, nil
}

func (m *mockObjectRepository) Download(ctx context.Context, key string, quiet bool) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return io.NopCloser(bytes.NewReader(m.storage[key])), nil
}

func (m *mockObjectRepository) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.storage, key)
	delete(m.etags, key)
	return nil
}

func (m *mockObjectRepository) GetBucketName() string {
	return m.bucketName
}

func (m *mockObjectRepository) GetStorageType() string {
	return "mock"
}

func (m *mockObjectRepository) uploadedKeys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	keys := make([]string, 0, len(m.storage))
	for key := range m.storage {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
