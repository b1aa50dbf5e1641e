package cdn

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/acm"
	"github.com/aws/aws-sdk-go-v2/service/acm/types"

	siteerrors "github.com/zzenonn/sitesync/internal/errors"
)

// CertificateManager looks up ACM certificates for distribution aliases.
// CloudFront only accepts certificates from us-east-1, so the caller must
// construct it from a config pinned to that region.
type CertificateManager struct {
	client *acm.Client
}

// NewCertificateManager initializes a new CertificateManager.
func NewCertificateManager(awsConfig aws.Config) CertificateManager {
	return CertificateManager{
		client: acm.NewFromConfig(awsConfig),
	}
}

// FindMatchingCert returns the ARN of an issued certificate covering
// domainName, either exactly or through a wildcard name.
func (m *CertificateManager) FindMatchingCert(ctx context.Context, domainName string) (string, error) {
	paginator := acm.NewListCertificatesPaginator(m.client, &acm.ListCertificatesInput{
		CertificateStatuses: []types.CertificateStatus{types.CertificateStatusIssued},
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return "", fmt.Errorf("failed to list certificates: %w", err)
		}

		for _, summary := range page.CertificateSummaryList {
			detail, err := m.client.DescribeCertificate(ctx, &acm.DescribeCertificateInput{
				CertificateArn: summary.CertificateArn,
			})
			if err != nil {
				return "", fmt.Errorf("failed to describe certificate: %w", err)
			}

			for _, name := range detail.Certificate.SubjectAlternativeNames {
				if certNameMatches(name, domainName) {
					return aws.ToString(summary.CertificateArn), nil
				}
			}
		}
	}

	return "", fmt.Errorf("%w: %s", siteerrors.ErrNoCertificate, domainName)
}

func certNameMatches(certName, domainName string) bool {
	if certName == domainName {
		return true
	}
	// "*.example.org" covers "www.example.org" but not "example.org"
	// or "a.b.example.org"
	if suffix, ok := strings.CutPrefix(certName, "*."); ok {
		rest, covered := strings.CutSuffix(domainName, "."+suffix)
		return covered && !strings.Contains(rest, ".")
	}
	return false
}
