package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wookiisky/think-bot/internal/config"
)

var exportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Export settings to a JSON file",
	Long: `Writes models, quick inputs, and basic settings to a JSON file that
another machine can import. API keys are included, so treat the file as a
secret.`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	if err := cfg.ExportToFile(args[0], "thinkbot "+version); err != nil {
		return fmt.Errorf("error writing export: %w", err)
	}
	fmt.Printf("Settings exported to %s\n", args[0])
	return nil
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import settings from an exported JSON file",
	Long: `Replaces local models, quick inputs, and basic settings with the
contents of an exported file. Prompts for confirmation unless --yes is
given.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

var importYes bool

func init() {
	importCmd.Flags().BoolVarP(&importYes, "yes", "y", false, "Skip confirmation prompt")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("error reading %s: %w", args[0], err)
	}

	result, err := config.ParseImport(data)
	if err != nil {
		return fmt.Errorf("invalid export file: %w", err)
	}

	if !importYes {
		fmt.Printf("Exported %s by %s\n", result.ExportedAt, result.ExportedBy)
		fmt.Printf("Contains %d models and %d quick inputs.\n", len(result.Models), len(result.QuickInputs))
		fmt.Println("This replaces your current settings.")
		fmt.Print("Continue? [y/N] ")

		var answer string
		fmt.Scanln(&answer)
		if answer != "y" && answer != "yes" && answer != "Y" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}
	result.Apply(cfg)
	if err := cfg.Save(); err != nil {
		return fmt.Errorf("error saving config: %w", err)
	}
	fmt.Println("Settings imported.")
	return nil
}
