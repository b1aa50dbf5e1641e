package objectstore

import (
	"context"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/schollz/progressbar/v3"

	"github.com/zzenonn/sitesync/internal/domain"
)

// S3ObjectRepository manages S3 interactions for objects.
type S3ObjectRepository struct {
	client     *s3.Client
	bucketName string
}

// NewS3ObjectRepository initializes a new S3ObjectRepository.
func NewS3ObjectRepository(client *s3.Client, bucketName string) S3ObjectRepository {
	return S3ObjectRepository{
		client:     client,
		bucketName: bucketName,
	}
}

// GetBucketName returns the bucket name.
func (r *S3ObjectRepository) GetBucketName() string {
	return r.bucketName
}

// GetStorageType returns the object store type.
func (r *S3ObjectRepository) GetStorageType() string {
	return "s3"
}

// Upload puts an object to S3 in a single request.
func (r *S3ObjectRepository) Upload(ctx context.Context, key string, reader io.Reader, contentType string, quiet bool) (string, error) {
	size := seekerSize(reader)

	var proxyReader io.Reader = reader
	if !quiet {
		bar := progressbar.DefaultBytes(size, "uploading "+key)
		pbReader := progressbar.NewReader(reader, bar)
		proxyReader = &pbReader
	}

	input := &s3.PutObjectInput{
		Bucket:      aws.String(r.bucketName),
		Key:         aws.String(key),
		Body:        proxyReader,
		ContentType: aws.String(contentType),
	}
	if size > 0 {
		input.ContentLength = &size
	}

	_, err := r.client.PutObject(ctx, input)
	if err != nil {
		return "", err
	}
	return r.bucketName + "/" + key, nil
}

// UploadMultipart transfers an object in parts of exactly partSize bytes.
// The part size must equal the chunk size used for the local ETag, or the
// ETag S3 computes for the completed upload will never match it.
func (r *S3ObjectRepository) UploadMultipart(ctx context.Context, key string, reader io.Reader, contentType string, partSize int64, quiet bool) (string, error) {
	size := seekerSize(reader)

	var proxyReader io.Reader = reader
	if !quiet {
		bar := progressbar.DefaultBytes(size, "uploading "+key)
		pbReader := progressbar.NewReader(reader, bar)
		proxyReader = &pbReader
	}

	uploader := manager.NewUploader(r.client, func(u *manager.Uploader) {
		u.PartSize = partSize
	})

	_, err := uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(r.bucketName),
		Key:         aws.String(key),
		Body:        proxyReader,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", err
	}
	return r.bucketName + "/" + key, nil
}

// ListObjects walks every page of the bucket listing. ETags are returned
// exactly as S3 reports them, surrounding quotes included, so they compare
// byte-for-byte against locally generated ones.
func (r *S3ObjectRepository) ListObjects(ctx context.Context) ([]domain.ObjectInfo, error) {
	var objects []domain.ObjectInfo

	paginator := s3.NewListObjectsV2Paginator(r.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(r.bucketName),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}

		for _, obj := range page.Contents {
			objects = append(objects, domain.ObjectInfo{
				Key:  aws.ToString(obj.Key),
				ETag: aws.ToString(obj.ETag),
				Size: aws.ToInt64(obj.Size),
			})
		}
	}

	return objects, nil
}

// Delete removes an object from S3.
func (r *S3ObjectRepository) Delete(ctx context.Context, key string) error {
	_, err := r.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(r.bucketName),
		Key:    aws.String(key),
	})
	return err
}

// Download fetches an object from S3.
func (r *S3ObjectRepository) Download(ctx context.Context, key string, quiet bool) (io.ReadCloser, error) {
	result, err := r.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, err
	}

	size := result.ContentLength
	if !quiet {
		bar := progressbar.DefaultBytes(*size, "downloading")
		proxyReader := progressbar.NewReader(result.Body, bar)
		return &progressReaderCloser{Reader: &proxyReader, Closer: result.Body}, nil
	}
	return result.Body, nil
}

type progressReaderCloser struct {
	io.Reader
	io.Closer
}

// seekerSize reports the remaining bytes of a seekable reader, or -1.
func seekerSize(reader io.Reader) int64 {
	seeker, ok := reader.(io.Seeker)
	if !ok {
		return -1
	}
	current, err := seeker.Seek(0, io.SeekCurrent)
	if err != nil {
		return -1
	}
	end, err := seeker.Seek(0, io.SeekEnd)
	if err != nil {
		return -1
	}
	seeker.Seek(current, io.SeekStart)
	return end - current
}
