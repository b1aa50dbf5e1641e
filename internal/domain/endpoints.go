package domain

// WebsiteEndpoint describes the S3 static-website endpoint for one region,
// together with the Route 53 hosted zone that alias records must target.
type WebsiteEndpoint struct {
	Host         string
	HostedZoneID string
}

// CloudFrontHostedZoneID is the fixed hosted zone for all CloudFront
// distribution aliases.
const CloudFrontHostedZoneID = "Z2FDTNDATAQYW2"

// Website endpoints are region-specific and not discoverable through the
// S3 API, so the table ships with the binary.
var websiteEndpoints = map[string]WebsiteEndpoint{
	"us-east-1":      {"s3-website-us-east-1.amazonaws.com", "Z3AQBSTGFYJSTF"},
	"us-east-2":      {"s3-website.us-east-2.amazonaws.com", "Z2O1EMRO9K5GLX"},
	"us-west-1":      {"s3-website-us-west-1.amazonaws.com", "Z2F56UZL2M1ACD"},
	"us-west-2":      {"s3-website-us-west-2.amazonaws.com", "Z3BJ6K6RIION7M"},
	"ca-central-1":   {"s3-website.ca-central-1.amazonaws.com", "Z1QDHH18159H29"},
	"eu-west-1":      {"s3-website-eu-west-1.amazonaws.com", "Z1BKCTXD74EZPE"},
	"eu-west-2":      {"s3-website.eu-west-2.amazonaws.com", "Z3GKZC51ZF0DB4"},
	"eu-west-3":      {"s3-website.eu-west-3.amazonaws.com", "Z3R1K369G5AVDG"},
	"eu-central-1":   {"s3-website.eu-central-1.amazonaws.com", "Z21DNDUVLTQW6Q"},
	"ap-south-1":     {"s3-website.ap-south-1.amazonaws.com", "Z11RGJOFQNVJUP"},
	"ap-northeast-1": {"s3-website-ap-northeast-1.amazonaws.com", "Z2M4EHUR26P7ZW"},
	"ap-northeast-2": {"s3-website.ap-northeast-2.amazonaws.com", "Z3W03O7B5YMIYP"},
	"ap-northeast-3": {"s3-website.ap-northeast-3.amazonaws.com", "Z2YQB5RD63NC85"},
	"ap-southeast-1": {"s3-website-ap-southeast-1.amazonaws.com", "Z3O0J2DXBE1FTB"},
	"ap-southeast-2": {"s3-website-ap-southeast-2.amazonaws.com", "Z1WCIGYICN2BYD"},
	"sa-east-1":      {"s3-website-sa-east-1.amazonaws.com", "Z7KQH4QJS55SO"},
}

// GetWebsiteEndpoint returns the website endpoint for a region.
func GetWebsiteEndpoint(region string) (WebsiteEndpoint, bool) {
	endpoint, ok := websiteEndpoints[region]
	return endpoint, ok
}
