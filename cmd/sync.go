package main

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/zzenonn/sitesync/internal/domain"
	"github.com/zzenonn/sitesync/internal/repository/db"
	"github.com/zzenonn/sitesync/internal/service"
)

var syncCmd = &cobra.Command{
	Use:   "sync [path] [bucket]",
	Short: "Sync a local directory tree into a bucket",
	Long:  "Uploads every file under PATH whose content differs from the bucket's copy, skipping unchanged files by comparing entity tags",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		root, bucketStr := args[0], args[1]
		quiet, _ := cmd.Flags().GetBool("quiet")
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		workers, _ := cmd.Flags().GetInt("workers")
		if workers <= 0 {
			workers = cfg.SyncWorkers
		}

		repo, err := repositoryFor(bucketStr)
		if err != nil {
			fmt.Printf("Error resolving bucket: %v\n", err)
			return
		}

		syncService := service.NewSyncService(repo, cfg.ChunkSize, workers)

		ctx := context.Background()
		report, err := syncService.Sync(ctx, root, quiet, dryRun)
		if err != nil {
			fmt.Printf("Error syncing %s: %v\n", root, err)
			return
		}

		if dryRun {
			fmt.Printf("Dry run of %s against %s: %d would upload, %d up to date, %d failed\n",
				root, repo.GetBucketName(), report.Uploaded, report.Skipped, report.Failed)
			return
		}

		fmt.Printf("Synced %s to %s: %d uploaded, %d skipped, %d failed\n",
			root, repo.GetBucketName(), report.Uploaded, report.Skipped, report.Failed)
		for _, key := range report.FailedKeys {
			fmt.Printf("  failed: %s\n", key)
		}

		recordDeployment(ctx, root, repo.GetBucketName(), report)
	},
}

// recordDeployment appends the pass to the history table. History is
// best-effort; a missing table or write failure never fails the sync.
func recordDeployment(ctx context.Context, root, bucketName string, report domain.SyncReport) {
	dynamoDb, err := db.NewDatabase(cfg.AwsConfig)
	if err != nil {
		log.Warnf("Skipping deployment history: %v", err)
		return
	}

	deploymentRepo := db.NewDeploymentRepository(dynamoDb.Client, cfg.DynamoDBTable)
	_, err = deploymentRepo.RecordDeployment(ctx, domain.DeploymentRecord{
		BucketName: bucketName,
		DeployedAt: time.Now().UTC().Format(time.RFC3339),
		Root:       root,
		Uploaded:   report.Uploaded,
		Skipped:    report.Skipped,
		Failed:     report.Failed,
		FailedKeys: report.FailedKeys,
	})
	if err != nil {
		log.Warnf("Failed to record deployment history: %v", err)
	}
}

var deploymentsCmd = &cobra.Command{
	Use:   "deployments [bucket]",
	Short: "Show the deployment history of a bucket",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		dynamoDb, err := db.NewDatabase(cfg.AwsConfig)
		if err != nil {
			fmt.Printf("Failed to connect to the database: %v\n", err)
			return
		}

		deploymentRepo := db.NewDeploymentRepository(dynamoDb.Client, cfg.DynamoDBTable)
		records, err := deploymentRepo.ListDeployments(context.Background(), args[0])
		if err != nil {
			fmt.Printf("Error listing deployments: %v\n", err)
			return
		}

		for _, record := range records {
			fmt.Printf("%s  %s  %d uploaded, %d skipped, %d failed\n",
				record.DeployedAt, record.Root, record.Uploaded, record.Skipped, record.Failed)
		}
	},
}

func init() {
	syncCmd.Flags().BoolP("quiet", "q", false, "Suppress progress bars")
	syncCmd.Flags().Bool("dry-run", false, "Report what would upload without transferring anything")
	syncCmd.Flags().Int("workers", 0, "Number of concurrent uploads (default from config)")
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(deploymentsCmd)
}
