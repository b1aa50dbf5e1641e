package db

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/zzenonn/sitesync/internal/domain"
)

// DeploymentRepository manages DynamoDB interactions for deployment history.
type DeploymentRepository struct {
	client    *dynamodb.Client
	tableName string
}

// NewDeploymentRepository initializes a new DeploymentRepository.
func NewDeploymentRepository(client *dynamodb.Client, tableName string) DeploymentRepository {
	return DeploymentRepository{
		client:    client,
		tableName: tableName,
	}
}

// RecordDeployment stores the outcome of one sync pass.
func (repo *DeploymentRepository) RecordDeployment(ctx context.Context, record domain.DeploymentRecord) (domain.DeploymentRecord, error) {
	recordMap, err := attributevalue.MarshalMap(record)
	if err != nil {
		return domain.DeploymentRecord{}, fmt.Errorf("failed to marshal deployment record: %w", err)
	}

	input := &dynamodb.PutItemInput{
		TableName: aws.String(repo.tableName),
		Item:      recordMap,
	}

	if _, err := repo.client.PutItem(ctx, input); err != nil {
		return domain.DeploymentRecord{}, fmt.Errorf("failed to record deployment: %w", err)
	}

	return record, nil
}

// ListDeployments retrieves the deployment history of one bucket, most
// recent first.
func (repo *DeploymentRepository) ListDeployments(ctx context.Context, bucketName string) ([]domain.DeploymentRecord, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(repo.tableName),
		KeyConditionExpression: aws.String("bucket_name = :bucket_name"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":bucket_name": &types.AttributeValueMemberS{Value: bucketName},
		},
		ScanIndexForward: aws.Bool(false),
	}

	result, err := repo.client.Query(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to query deployments for %s: %w", bucketName, err)
	}

	var records []domain.DeploymentRecord
	for _, item := range result.Items {
		var record domain.DeploymentRecord
		if err := attributevalue.UnmarshalMap(item, &record); err != nil {
			return nil, fmt.Errorf("failed to unmarshal deployment record: %w", err)
		}
		records = append(records, record)
	}

	return records, nil
}
