package domain

// DeploymentRecord - one sync pass as stored in the deployment history table
type DeploymentRecord struct {
	BucketName string   `json:"bucket_name" dynamodbav:"bucket_name"` // Partition Key
	DeployedAt string   `json:"deployed_at" dynamodbav:"deployed_at"` // RFC 3339 timestamp - Sort Key
	Root       string   `json:"root" dynamodbav:"root"`
	Uploaded   int      `json:"uploaded" dynamodbav:"uploaded"`
	Skipped    int      `json:"skipped" dynamodbav:"skipped"`
	Failed     int      `json:"failed" dynamodbav:"failed"`
	FailedKeys []string `json:"failed_keys,omitempty" dynamodbav:"failed_keys,omitempty"`
}
