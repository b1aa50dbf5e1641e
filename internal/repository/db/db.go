package db

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	log "github.com/sirupsen/logrus"

	"github.com/zzenonn/sitesync/internal/repository/migrate"
)

type DynamoDb struct {
	Client *dynamodb.Client
}

func NewDatabase(awsConfig aws.Config) (*DynamoDb, error) {
	client := dynamodb.NewFromConfig(awsConfig)
	if client == nil {
		log.Fatal("Failed to create DynamoDB client")
	}

	return &DynamoDb{
		Client: client,
	}, nil
}

// MigrateDb creates the deployment history table.
func (d *DynamoDb) MigrateDb(ctx context.Context, tableName string) error {
	migration := migrate.CreateDeploymentsTable{TableName: tableName}
	return migration.Up(ctx, d.Client)
}

// MigrateDown deletes the deployment history table.
func (d *DynamoDb) MigrateDown(ctx context.Context, tableName string) error {
	migration := migrate.CreateDeploymentsTable{TableName: tableName}
	return migration.Down(ctx, d.Client)
}
