// Package cdn manages CloudFront distributions and their certificates.
package cdn

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudfront"
	"github.com/aws/aws-sdk-go-v2/service/cloudfront/types"

	siteerrors "github.com/zzenonn/sitesync/internal/errors"
)

// DistributionManager manages CloudFront interactions.
type DistributionManager struct {
	client *cloudfront.Client
}

// NewDistributionManager initializes a new DistributionManager.
func NewDistributionManager(awsConfig aws.Config) DistributionManager {
	return DistributionManager{
		client: cloudfront.NewFromConfig(awsConfig),
	}
}

// FindDistribution returns the distribution carrying domainName as an
// alias, walking every page of the listing.
func (m *DistributionManager) FindDistribution(ctx context.Context, domainName string) (*types.DistributionSummary, error) {
	paginator := cloudfront.NewListDistributionsPaginator(m.client, &cloudfront.ListDistributionsInput{})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list distributions: %w", err)
		}

		if page.DistributionList == nil {
			continue
		}
		for _, dist := range page.DistributionList.Items {
			if dist.Aliases == nil {
				continue
			}
			for _, alias := range dist.Aliases.Items {
				if alias == domainName {
					return &dist, nil
				}
			}
		}
	}

	return nil, fmt.Errorf("%w: %s", siteerrors.ErrNoDistribution, domainName)
}

// CreateDistribution fronts an S3 website endpoint with a distribution
// serving domainName over HTTPS. Website endpoints only speak HTTP, so
// the origin policy is http-only while viewers are redirected to HTTPS.
func (m *DistributionManager) CreateDistribution(ctx context.Context, domainName, originDomain, certARN string) (*types.Distribution, error) {
	originID := "sitesync-origin-" + domainName

	config := &types.DistributionConfig{
		CallerReference:   aws.String(fmt.Sprintf("sitesync-%d", time.Now().UnixNano())),
		Comment:           aws.String("Created by sitesync"),
		Enabled:           aws.Bool(true),
		DefaultRootObject: aws.String("index.html"),
		Aliases: &types.Aliases{
			Quantity: aws.Int32(1),
			Items:    []string{domainName},
		},
		Origins: &types.Origins{
			Quantity: aws.Int32(1),
			Items: []types.Origin{
				{
					Id:         aws.String(originID),
					DomainName: aws.String(originDomain),
					CustomOriginConfig: &types.CustomOriginConfig{
						HTTPPort:             aws.Int32(80),
						HTTPSPort:            aws.Int32(443),
						OriginProtocolPolicy: types.OriginProtocolPolicyHttpOnly,
					},
				},
			},
		},
		DefaultCacheBehavior: &types.DefaultCacheBehavior{
			TargetOriginId:       aws.String(originID),
			ViewerProtocolPolicy: types.ViewerProtocolPolicyRedirectToHttps,
			MinTTL:               aws.Int64(0),
			ForwardedValues: &types.ForwardedValues{
				QueryString: aws.Bool(false),
				Cookies: &types.CookiePreference{
					Forward: types.ItemSelectionNone,
				},
			},
			TrustedSigners: &types.TrustedSigners{
				Enabled:  aws.Bool(false),
				Quantity: aws.Int32(0),
			},
		},
		ViewerCertificate: &types.ViewerCertificate{
			ACMCertificateArn:      aws.String(certARN),
			SSLSupportMethod:       types.SSLSupportMethodSniOnly,
			MinimumProtocolVersion: types.MinimumProtocolVersionTLSv122021,
		},
	}

	result, err := m.client.CreateDistribution(ctx, &cloudfront.CreateDistributionInput{
		DistributionConfig: config,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create distribution for %s: %w", domainName, err)
	}

	return result.Distribution, nil
}

// WaitForDeployed blocks until the distribution finishes deploying.
func (m *DistributionManager) WaitForDeployed(ctx context.Context, distributionID string) error {
	waiter := cloudfront.NewDistributionDeployedWaiter(m.client)
	return waiter.Wait(ctx, &cloudfront.GetDistributionInput{
		Id: aws.String(distributionID),
	}, 30*time.Minute)
}
