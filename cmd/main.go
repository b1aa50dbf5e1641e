package main

import (
	"context"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/zzenonn/sitesync/internal/config"
	"github.com/zzenonn/sitesync/internal/logging"
	"github.com/zzenonn/sitesync/internal/repository/db"
	"github.com/zzenonn/sitesync/internal/repository/objectstore"
)

var (
	cfg         *config.Config
	configPath  string
	s3Store     *objectstore.S3Store
	bucketAdmin objectstore.BucketAdmin
	repoFactory *objectstore.ObjectRepositoryFactory
)

var rootCmd = &cobra.Command{
	Use:   "sitesync",
	Short: "Deploy static websites to object storage",
	Long:  "sitesync mirrors a local directory into an object storage bucket, uploading only changed files, and wires up hosting, DNS and CDN for the result",
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file")
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the deployment history table",
	Run: func(cmd *cobra.Command, args []string) {
		dynamoDb, err := db.NewDatabase(cfg.AwsConfig)
		if err != nil {
			fmt.Printf("Failed to connect to the database: %v\n", err)
			return
		}

		if err := dynamoDb.MigrateDb(context.Background(), cfg.DynamoDBTable); err != nil {
			fmt.Printf("Failed to migrate the database: %v\n", err)
			return
		}

		fmt.Println("Deployment history table created successfully")
	},
}

var downCmd = &cobra.Command{
	Use:   "down",
	Short: "Delete the deployment history table",
	Run: func(cmd *cobra.Command, args []string) {
		dynamoDb, err := db.NewDatabase(cfg.AwsConfig)
		if err != nil {
			fmt.Printf("Failed to connect to the database: %v\n", err)
			return
		}

		if err := dynamoDb.MigrateDown(context.Background(), cfg.DynamoDBTable); err != nil {
			fmt.Printf("Failed to roll back migrations: %v\n", err)
			return
		}

		fmt.Println("Deployment history table deleted successfully")
	},
}

func initConfig() {
	var err error
	cfg, err = config.LoadConfig(configPath, rootCmd)
	if err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}

	logging.InitLogger(cfg.LogLevel)

	s3Store = objectstore.NewS3ObjectStore(cfg.AwsConfig)
	bucketAdmin = objectstore.NewBucketAdmin(s3Store)
	repoFactory = objectstore.NewObjectRepositoryFactory(cfg.AwsConfig, cfg.GcsClient)
}

func init() {
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(downCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
