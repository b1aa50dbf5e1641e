// Package dns manages Route 53 hosted zones and alias records for
// deployed sites.
package dns

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/route53"
	"github.com/aws/aws-sdk-go-v2/service/route53/types"
	log "github.com/sirupsen/logrus"

	siteerrors "github.com/zzenonn/sitesync/internal/errors"
)

// DomainManager manages Route 53 interactions for a domain.
type DomainManager struct {
	client *route53.Client
}

// NewDomainManager initializes a new DomainManager.
func NewDomainManager(awsConfig aws.Config) DomainManager {
	return DomainManager{
		client: route53.NewFromConfig(awsConfig),
	}
}

// FindHostedZone returns the hosted zone whose name is a suffix of
// domainName, walking every page of the zone listing.
func (m *DomainManager) FindHostedZone(ctx context.Context, domainName string) (*types.HostedZone, error) {
	paginator := route53.NewListHostedZonesPaginator(m.client, &route53.ListHostedZonesInput{})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list hosted zones: %w", err)
		}

		for _, zone := range page.HostedZones {
			// Zone names carry a trailing dot
			zoneName := strings.TrimSuffix(aws.ToString(zone.Name), ".")
			if domainName == zoneName || strings.HasSuffix(domainName, "."+zoneName) {
				return &zone, nil
			}
		}
	}

	return nil, fmt.Errorf("%w: %s", siteerrors.ErrNoHostedZone, domainName)
}

// CreateHostedZone creates a zone for the registrable part of domainName
// (its last two labels).
func (m *DomainManager) CreateHostedZone(ctx context.Context, domainName string) (*types.HostedZone, error) {
	labels := strings.Split(domainName, ".")
	if len(labels) > 2 {
		labels = labels[len(labels)-2:]
	}
	zoneName := strings.Join(labels, ".") + "."

	result, err := m.client.CreateHostedZone(ctx, &route53.CreateHostedZoneInput{
		Name:            aws.String(zoneName),
		CallerReference: aws.String(fmt.Sprintf("sitesync-%d", time.Now().UnixNano())),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create hosted zone %s: %w", zoneName, err)
	}

	log.Infof("Created hosted zone %s", zoneName)
	return result.HostedZone, nil
}

// UpsertAliasRecord points domainName at an alias target, either an S3
// website endpoint or a CloudFront distribution.
func (m *DomainManager) UpsertAliasRecord(ctx context.Context, zoneID, domainName, targetDNSName, targetZoneID string) error {
	_, err := m.client.ChangeResourceRecordSets(ctx, &route53.ChangeResourceRecordSetsInput{
		HostedZoneId: aws.String(zoneID),
		ChangeBatch: &types.ChangeBatch{
			Comment: aws.String("Created by sitesync"),
			Changes: []types.Change{
				{
					Action: types.ChangeActionUpsert,
					ResourceRecordSet: &types.ResourceRecordSet{
						Name: aws.String(domainName),
						Type: types.RRTypeA,
						AliasTarget: &types.AliasTarget{
							HostedZoneId:         aws.String(targetZoneID),
							DNSName:              aws.String(targetDNSName),
							EvaluateTargetHealth: false,
						},
					},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to upsert record for %s: %w", domainName, err)
	}
	return nil
}
