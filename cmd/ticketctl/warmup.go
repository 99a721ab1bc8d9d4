package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/odyssey-erp/ticketdash/internal/platform/cache"
	"github.com/odyssey-erp/ticketdash/jobs"
)

// Warmup command flags.
var (
	warmupRedis      string
	warmupInvalidate bool
)

// warmupCmd enqueues a dataset warmup on the worker queue.
var warmupCmd = &cobra.Command{
	Use:   "warmup",
	Short: "Ask the worker to reload the dataset and warm the dashboard cache",
	Long: `Enqueue a dataset:warmup task. The worker re-reads the spreadsheet,
optionally drops cached dashboards, and pre-builds the default dashboard.`,
	Args: cobra.NoArgs,
	RunE: runWarmup,
}

func init() {
	warmupCmd.Flags().StringVar(&warmupRedis, "redis", envOr("REDIS_ADDR", "127.0.0.1:6379"), "redis address used by the worker queue")
	warmupCmd.Flags().BoolVar(&warmupInvalidate, "invalidate", true, "drop cached dashboards before warming")
}

func runWarmup(cmd *cobra.Command, _ []string) error {
	client, err := jobs.NewClient(cache.Options{Addr: warmupRedis, Password: os.Getenv("REDIS_PASSWORD")}.Queue())
	if err != nil {
		return err
	}
	defer client.Close()

	info, err := client.EnqueueDatasetWarmup(cmd.Context(), jobs.DatasetWarmupPayload{Invalidate: warmupInvalidate})
	if err != nil {
		return fmt.Errorf("enqueue warmup: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "enqueued %s %s on queue %s\n", info.Type, colorBold.Sprint(info.ID), info.Queue)
	return nil
}
