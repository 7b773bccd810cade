package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wookiisky/think-bot/internal/config"
	"github.com/wookiisky/think-bot/internal/sync"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run a settings sync round now",
	Long: `Synchronizes models, quick inputs, and basic settings with the
configured WebDAV endpoint, then exits. Configure the endpoint under the
"sync" section of the config file.`,
	RunE: runSync,
}

var syncTestCmd = &cobra.Command{
	Use:   "test",
	Short: "Test the sync connection",
	RunE:  runSyncTest,
}

func init() {
	syncCmd.AddCommand(syncTestCmd)
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	result, err := sync.NewClient().Run(ctx, cfg)
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}
	switch {
	case result.Merged && result.Uploaded:
		fmt.Println("Sync complete: merged remote changes and uploaded.")
	case result.Uploaded:
		fmt.Println("Sync complete: uploaded local settings.")
	case result.Merged:
		fmt.Println("Sync complete: merged remote changes.")
	default:
		fmt.Println("Sync complete: already up to date.")
	}
	if result.CleanedUp > 0 {
		fmt.Printf("Removed %d deleted entries.\n", result.CleanedUp)
	}
	return nil
}

func runSyncTest(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := sync.NewClient().TestConnection(ctx, cfg.GetBasic().Sync); err != nil {
		return fmt.Errorf("connection test failed: %w", err)
	}
	fmt.Println("Sync connection OK.")
	return nil
}
