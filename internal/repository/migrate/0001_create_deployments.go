package migrate

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const DeploymentsVersion = "20260830000000_deployments_table"

// CreateDeploymentsTable provisions the table holding one item per sync
// pass, keyed by bucket name and deployment timestamp.
type CreateDeploymentsTable struct {
	TableName string
}

func (m *CreateDeploymentsTable) Version() string {
	return DeploymentsVersion
}

func (m *CreateDeploymentsTable) Up(ctx context.Context, client *dynamodb.Client) error {
	input := &dynamodb.CreateTableInput{
		AttributeDefinitions: []types.AttributeDefinition{
			{
				AttributeName: aws.String("bucket_name"),
				AttributeType: types.ScalarAttributeTypeS,
			},
			{
				AttributeName: aws.String("deployed_at"),
				AttributeType: types.ScalarAttributeTypeS,
			},
		},
		KeySchema: []types.KeySchemaElement{
			{
				AttributeName: aws.String("bucket_name"),
				KeyType:       types.KeyTypeHash, // Partition Key
			},
			{
				AttributeName: aws.String("deployed_at"),
				KeyType:       types.KeyTypeRange, // Sort Key
			},
		},
		TableName:   aws.String(m.TableName),
		BillingMode: types.BillingModePayPerRequest, // On-demand billing for variable workloads
		Tags: []types.Tag{
			{
				Key:   aws.String("Purpose"),
				Value: aws.String("DeploymentHistory"),
			},
			{
				Key:   aws.String("ManagedBy"),
				Value: aws.String("sitesync"),
			},
		},
	}

	// Create the table
	_, err := client.CreateTable(ctx, input)
	if err != nil {
		return err
	}

	// Wait for table to become active
	waiter := dynamodb.NewTableExistsWaiter(client)
	err = waiter.Wait(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(m.TableName),
	}, 5*time.Minute)

	return err
}

func (m *CreateDeploymentsTable) Down(ctx context.Context, client *dynamodb.Client) error {
	input := &dynamodb.DeleteTableInput{
		TableName: aws.String(m.TableName),
	}

	_, err := client.DeleteTable(ctx, input)
	return err
}
