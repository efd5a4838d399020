package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"tipwave/config"
	"tipwave/storage"

	"github.com/spf13/cobra"
)

var minioCmd = &cobra.Command{
	Use:   "minio",
	Short: "Show MinIO bucket status",
	Long:  `Connect to the configured MinIO bucket and print object count, total size and last modification time.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()

		store, err := storage.NewMinioStore(cfg)
		if err != nil {
			log.Fatalf("Failed to connect to MinIO: %v", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		stats, err := store.Stats(ctx)
		if err != nil {
			log.Fatalf("Failed to read bucket stats: %v", err)
		}

		fmt.Printf("Bucket: %s\n", cfg.MinioBucket)
		fmt.Printf("Objects: %d\n", stats.TotalObjects)
		fmt.Printf("Total size: %s\n", storage.FormatSize(stats.TotalSize))
		if !stats.LastModified.IsZero() {
			fmt.Printf("Last modified: %s\n", stats.LastModified.Format(time.RFC3339))
		}
	},
}

func init() {
	rootCmd.AddCommand(minioCmd)
}
