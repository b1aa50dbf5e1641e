package service

import (
	"crypto/md5"
	"fmt"
	"io"
	"os"
)

// DefaultChunkSize is 8 MiB, the part size S3's transfer managers default
// to when splitting multipart uploads.
const DefaultChunkSize int64 = 8 * 1024 * 1024

// GenerateETag computes the S3 entity tag a file would carry after upload
// with the given multipart part size. Files of one chunk or less get the
// plain form `"<hex>"`; larger files get the composite form `"<hex>-<k>"`
// where the hex is the MD5 of the concatenated per-chunk MD5 digests and
// k is the chunk count. An empty file has no chunks and yields "".
//
// The chunk size here must equal the part size used on upload; S3 hashes
// its own part boundaries, so any mismatch makes the tags incomparable.
func GenerateETag(path string, chunkSize int64) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	return generateETag(file, chunkSize)
}

func generateETag(r io.Reader, chunkSize int64) (string, error) {
	if chunkSize <= 0 {
		return "", fmt.Errorf("chunk size must be positive, got %d", chunkSize)
	}

	var (
		digests []byte
		last    [md5.Size]byte
		count   int
	)

	buf := make([]byte, chunkSize)
	for {
		n, err := io.ReadFull(r, buf)
		if n > 0 {
			last = md5.Sum(buf[:n])
			digests = append(digests, last[:]...)
			count++
		}
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			break
		}
		if err != nil {
			return "", err
		}
	}

	switch count {
	case 0:
		return "", nil
	case 1:
		return fmt.Sprintf("\"%x\"", last), nil
	default:
		combined := md5.Sum(digests)
		return fmt.Sprintf("\"%x-%d\"", combined, count), nil
	}
}
