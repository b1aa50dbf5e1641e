package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	route53types "github.com/aws/aws-sdk-go-v2/service/route53/types"
	"github.com/spf13/cobra"

	"github.com/zzenonn/sitesync/internal/domain"
	"github.com/zzenonn/sitesync/internal/repository/cdn"
	"github.com/zzenonn/sitesync/internal/repository/dns"
	siteerrors "github.com/zzenonn/sitesync/internal/errors"
)

var setupDomainCmd = &cobra.Command{
	Use:   "setup-domain [domain] [bucket]",
	Short: "Point a Route 53 domain at a bucket's website endpoint",
	Long:  "Finds or creates the hosted zone for DOMAIN and upserts an alias record targeting BUCKET's S3 website endpoint. The bucket name must equal the domain for S3 website hosting to resolve it.",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		domainName, bucketName := args[0], args[1]
		ctx := context.Background()

		region, err := bucketAdmin.GetBucketRegion(ctx, bucketName)
		if err != nil {
			fmt.Printf("Error resolving bucket region: %v\n", err)
			return
		}
		endpoint, ok := domain.GetWebsiteEndpoint(region)
		if !ok {
			fmt.Printf("Error: %v: %s\n", siteerrors.ErrUnknownRegion, region)
			return
		}

		domainManager := dns.NewDomainManager(cfg.AwsConfig)
		zone, err := findOrCreateZone(ctx, &domainManager, domainName)
		if err != nil {
			fmt.Printf("Error resolving hosted zone: %v\n", err)
			return
		}

		err = domainManager.UpsertAliasRecord(ctx, zoneID(zone), domainName, endpoint.Host, endpoint.HostedZoneID)
		if err != nil {
			fmt.Printf("Error upserting record: %v\n", err)
			return
		}
		fmt.Printf("Domain configured: http://%s\n", domainName)
	},
}

var setupCDNCmd = &cobra.Command{
	Use:   "setup-cdn [domain] [bucket]",
	Short: "Front a bucket website with a CloudFront distribution and SSL",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		domainName, bucketName := args[0], args[1]
		ctx := context.Background()

		// CloudFront only accepts certificates issued in us-east-1
		certConfig := cfg.AwsConfig.Copy()
		certConfig.Region = "us-east-1"
		certManager := cdn.NewCertificateManager(certConfig)

		certARN, err := certManager.FindMatchingCert(ctx, domainName)
		if err != nil {
			fmt.Printf("Error finding certificate: %v\n", err)
			return
		}

		distManager := cdn.NewDistributionManager(cfg.AwsConfig)
		distDomain, err := findOrCreateDistribution(ctx, &distManager, domainName, bucketName, certARN)
		if err != nil {
			fmt.Printf("Error resolving distribution: %v\n", err)
			return
		}

		domainManager := dns.NewDomainManager(cfg.AwsConfig)
		zone, err := findOrCreateZone(ctx, &domainManager, domainName)
		if err != nil {
			fmt.Printf("Error resolving hosted zone: %v\n", err)
			return
		}

		err = domainManager.UpsertAliasRecord(ctx, zoneID(zone), domainName, distDomain, domain.CloudFrontHostedZoneID)
		if err != nil {
			fmt.Printf("Error upserting record: %v\n", err)
			return
		}
		fmt.Printf("CDN configured: https://%s\n", domainName)
	},
}

func findOrCreateZone(ctx context.Context, manager *dns.DomainManager, domainName string) (*route53types.HostedZone, error) {
	zone, err := manager.FindHostedZone(ctx, domainName)
	if errors.Is(err, siteerrors.ErrNoHostedZone) {
		return manager.CreateHostedZone(ctx, domainName)
	}
	return zone, err
}

func findOrCreateDistribution(ctx context.Context, manager *cdn.DistributionManager, domainName, bucketName, certARN string) (string, error) {
	summary, err := manager.FindDistribution(ctx, domainName)
	if err == nil {
		return aws.ToString(summary.DomainName), nil
	}
	if !errors.Is(err, siteerrors.ErrNoDistribution) {
		return "", err
	}

	region, err := bucketAdmin.GetBucketRegion(ctx, bucketName)
	if err != nil {
		return "", err
	}
	endpoint, ok := domain.GetWebsiteEndpoint(region)
	if !ok {
		return "", fmt.Errorf("%w: %s", siteerrors.ErrUnknownRegion, region)
	}
	originDomain := fmt.Sprintf("%s.%s", bucketName, endpoint.Host)

	dist, err := manager.CreateDistribution(ctx, domainName, originDomain, certARN)
	if err != nil {
		return "", err
	}

	fmt.Println("Waiting for the distribution to deploy, this can take a while...")
	if err := manager.WaitForDeployed(ctx, aws.ToString(dist.Id)); err != nil {
		return "", err
	}
	return aws.ToString(dist.DomainName), nil
}

// zoneID strips the "/hostedzone/" prefix Route 53 puts on zone IDs.
func zoneID(zone *route53types.HostedZone) string {
	return strings.TrimPrefix(aws.ToString(zone.Id), "/hostedzone/")
}

func init() {
	rootCmd.AddCommand(setupDomainCmd)
	rootCmd.AddCommand(setupCDNCmd)
}
