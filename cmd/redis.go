package cmd

import (
	"fmt"
	"log"

	"tipwave/config"
	"tipwave/db"

	"github.com/spf13/cobra"
)

var redisCmd = &cobra.Command{
	Use:   "redis",
	Short: "Test the Redis connection",
	Long:  `Connect to Redis and run a basic set/get/del round trip.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()
		fmt.Printf("Redis: %s:%s, DB: %d\n", cfg.RedisHost, cfg.RedisPort, cfg.RedisDB)

		if err := db.ConnectRedis(cfg); err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}

		if err := db.TestRedis(); err != nil {
			log.Fatalf("Redis round trip failed: %v", err)
		}
		fmt.Println("Redis round trip succeeded.")

		if err := db.CloseRedis(); err != nil {
			log.Printf("Error closing Redis connection: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(redisCmd)
}
