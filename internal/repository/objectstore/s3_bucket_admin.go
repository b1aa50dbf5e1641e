package objectstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/resourcegroupstaggingapi"
	taggingtypes "github.com/aws/aws-sdk-go-v2/service/resourcegroupstaggingapi/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	log "github.com/sirupsen/logrus"

	"github.com/zzenonn/sitesync/internal/domain"
	siteerrors "github.com/zzenonn/sitesync/internal/errors"
)

const managedByTag = "sitesync"

// publicReadPolicy grants anonymous GetObject on every key, which static
// website hosting requires.
const publicReadPolicy = `{
    "Version": "2012-10-17",
    "Statement": [{
        "Sid": "PublicReadForGetBucketObjects",
        "Effect": "Allow",
        "Principal": "*",
        "Action": ["s3:GetObject"],
        "Resource": ["arn:aws:s3:::%s/*"]
    }]
}`

// BucketAdmin performs one-shot bucket provisioning operations: creation,
// policy, website configuration and tagging.
type BucketAdmin struct {
	client        *s3.Client
	taggingClient *resourcegroupstaggingapi.Client
}

// NewBucketAdmin initializes a new BucketAdmin.
func NewBucketAdmin(store *S3Store) BucketAdmin {
	return BucketAdmin{
		client:        store.Client,
		taggingClient: store.TaggingClient,
	}
}

// CreateBucket creates the bucket in the given region. A bucket that
// already exists and is owned by the caller is not an error.
func (a *BucketAdmin) CreateBucket(ctx context.Context, name, region string) error {
	input := &s3.CreateBucketInput{
		Bucket: aws.String(name),
	}
	// us-east-1 rejects an explicit LocationConstraint
	if region != "us-east-1" {
		input.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(region),
		}
	}

	_, err := a.client.CreateBucket(ctx, input)
	if err != nil {
		var owned *types.BucketAlreadyOwnedByYou
		if errors.As(err, &owned) {
			log.Debugf("Bucket %s already owned, reusing it", name)
			return nil
		}
		return fmt.Errorf("failed to create bucket %s: %w", name, err)
	}
	return nil
}

// SetPublicReadPolicy makes every object in the bucket world-readable.
func (a *BucketAdmin) SetPublicReadPolicy(ctx context.Context, name string) error {
	_, err := a.client.PutBucketPolicy(ctx, &s3.PutBucketPolicyInput{
		Bucket: aws.String(name),
		Policy: aws.String(strings.TrimSpace(fmt.Sprintf(publicReadPolicy, name))),
	})
	if err != nil {
		return fmt.Errorf("failed to set policy on bucket %s: %w", name, err)
	}
	return nil
}

// ConfigureWebsite enables static website hosting on the bucket.
func (a *BucketAdmin) ConfigureWebsite(ctx context.Context, name, indexDoc, errorDoc string) error {
	_, err := a.client.PutBucketWebsite(ctx, &s3.PutBucketWebsiteInput{
		Bucket: aws.String(name),
		WebsiteConfiguration: &types.WebsiteConfiguration{
			IndexDocument: &types.IndexDocument{Suffix: aws.String(indexDoc)},
			ErrorDocument: &types.ErrorDocument{Key: aws.String(errorDoc)},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to configure website on bucket %s: %w", name, err)
	}
	return nil
}

// TagBucket marks the bucket as managed by this tool so it shows up in
// ListManagedBuckets.
func (a *BucketAdmin) TagBucket(ctx context.Context, name string) error {
	arn := "arn:aws:s3:::" + name
	_, err := a.taggingClient.TagResources(ctx, &resourcegroupstaggingapi.TagResourcesInput{
		ResourceARNList: []string{arn},
		Tags:            map[string]string{"ManagedBy": managedByTag},
	})
	if err != nil {
		return fmt.Errorf("failed to tag bucket %s: %w", name, err)
	}
	return nil
}

// ListBuckets returns the names of all buckets in the account.
func (a *BucketAdmin) ListBuckets(ctx context.Context) ([]string, error) {
	result, err := a.client.ListBuckets(ctx, &s3.ListBucketsInput{})
	if err != nil {
		return nil, fmt.Errorf("failed to list buckets: %w", err)
	}

	names := make([]string, 0, len(result.Buckets))
	for _, bucket := range result.Buckets {
		names = append(names, aws.ToString(bucket.Name))
	}
	return names, nil
}

// ListManagedBuckets returns the buckets previously tagged by TagBucket,
// via the Resource Groups Tagging API.
func (a *BucketAdmin) ListManagedBuckets(ctx context.Context) ([]string, error) {
	var names []string

	paginator := resourcegroupstaggingapi.NewGetResourcesPaginator(a.taggingClient, &resourcegroupstaggingapi.GetResourcesInput{
		ResourceTypeFilters: []string{"s3:bucket"},
		TagFilters: []taggingtypes.TagFilter{
			{Key: aws.String("ManagedBy"), Values: []string{managedByTag}},
		},
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list managed buckets: %w", err)
		}
		for _, mapping := range page.ResourceTagMappingList {
			arn := aws.ToString(mapping.ResourceARN)
			if idx := strings.LastIndex(arn, ":::"); idx >= 0 {
				names = append(names, arn[idx+3:])
			}
		}
	}

	return names, nil
}

// GetBucketRegion resolves the region a bucket lives in.
func (a *BucketAdmin) GetBucketRegion(ctx context.Context, name string) (string, error) {
	result, err := a.client.GetBucketLocation(ctx, &s3.GetBucketLocationInput{
		Bucket: aws.String(name),
	})
	if err != nil {
		return "", fmt.Errorf("failed to get location of bucket %s: %w", name, err)
	}

	// Legacy API quirk: us-east-1 is reported as an empty constraint.
	region := string(result.LocationConstraint)
	if region == "" {
		region = "us-east-1"
	}
	return region, nil
}

// WebsiteURL returns the public website URL for a hosted bucket.
func (a *BucketAdmin) WebsiteURL(ctx context.Context, name string) (string, error) {
	region, err := a.GetBucketRegion(ctx, name)
	if err != nil {
		return "", err
	}

	endpoint, ok := domain.GetWebsiteEndpoint(region)
	if !ok {
		return "", fmt.Errorf("%w: %s", siteerrors.ErrUnknownRegion, region)
	}
	return fmt.Sprintf("http://%s.%s", name, endpoint.Host), nil
}
