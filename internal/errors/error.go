package errors

import (
	"errors"
	"fmt"
)

var (
	ErrNotImplemented    = errors.New("this function is not yet implemented")
	ErrUnknownRegion     = errors.New("no website endpoint known for region")
	ErrNoHostedZone      = errors.New("no hosted zone matches the domain")
	ErrNoCertificate     = errors.New("no issued certificate matches the domain")
	ErrNoDistribution    = errors.New("no distribution matches the domain")
	ErrInvalidBucketName = errors.New("bucket name cannot be empty")
)

// ManifestLoadError wraps a listing failure. The whole sync invocation
// aborts on it, so the bucket name belongs in the message.
func ManifestLoadError(bucket string, err error) error {
	return fmt.Errorf("failed to load manifest for bucket %s: %w", bucket, err)
}

func ConfigNotSetError(config string) error {
	return fmt.Errorf("The %s configuration value must be set", config)
}
