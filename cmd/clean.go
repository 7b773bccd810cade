package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wookiisky/think-bot/internal/logger"
	"github.com/wookiisky/think-bot/internal/storage"
)

var skipConfirm bool

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Delete all cached pages and conversations",
	Long: `Clears the local cache: extracted page content, conversation histories,
and the recent-pages list. Settings (models, quick inputs, sync) are kept.

Prompts for confirmation unless --yes is given.`,
	RunE: runClean,
}

func init() {
	cleanCmd.Flags().BoolVarP(&skipConfirm, "yes", "y", false, "Skip confirmation prompt")
	rootCmd.AddCommand(cleanCmd)
}

func runClean(cmd *cobra.Command, args []string) error {
	return runCleanWithReader(os.Stdin)
}

// runCleanWithReader allows injecting a reader for testing
func runCleanWithReader(input io.Reader) error {
	store, err := storage.Open(storage.DefaultPath())
	if err != nil {
		return fmt.Errorf("error opening cache: %w", err)
	}
	defer store.Close()

	usage, err := store.Usage()
	if err == nil && usage.UsedBytes == 0 {
		fmt.Println("Cache is already empty.")
		return nil
	}

	if !skipConfirm {
		if err == nil {
			fmt.Printf("This deletes all cached pages and conversations (%d bytes).\n", usage.UsedBytes)
		} else {
			fmt.Println("This deletes all cached pages and conversations.")
		}
		fmt.Print("Continue? [y/N] ")

		reader := bufio.NewReader(input)
		answer, _ := reader.ReadString('\n')
		answer = strings.ToLower(strings.TrimSpace(answer))
		if answer != "y" && answer != "yes" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	if err := store.ClearAll(); err != nil {
		return fmt.Errorf("error clearing cache: %w", err)
	}
	logger.Info("Clean: cleared cache")
	fmt.Println("Cache cleared.")
	return nil
}
