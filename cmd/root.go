package cmd

import (
	"fmt"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/spf13/cobra"

	"github.com/wookiisky/think-bot/internal/app"
	"github.com/wookiisky/think-bot/internal/blacklist"
	"github.com/wookiisky/think-bot/internal/clipboard"
	"github.com/wookiisky/think-bot/internal/config"
	"github.com/wookiisky/think-bot/internal/logger"
	"github.com/wookiisky/think-bot/internal/storage"
)

var (
	debugMode             bool
	quietMode             bool
	version, commit, date string
)

// SetVersionInfo sets version information from ldflags
func SetVersionInfo(v, c, d string) {
	version, commit, date = v, c, d
}

var rootCmd = &cobra.Command{
	Use:   "thinkbot [url]",
	Short: "Terminal sidebar for chatting with LLMs about web pages",
	Long: `Think-bot extracts the readable content of a web page and lets you ask
multiple configured models about it side by side. Each question fans out to
every enabled model and the responses stream in as parallel branches.

Pass a URL to open it immediately, or start without arguments and press
ctrl+n inside the app.`,
	Args:          cobra.MaximumNArgs(1),
	RunE:          runTUI,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cobra.OnInitialize(initLogging)
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVarP(&quietMode, "quiet", "q", false, "Reduce logging to info level only")
}

func initLogging() {
	if quietMode {
		logger.SetDebug(false)
	} else if debugMode {
		logger.SetDebug(true)
	}
}

// Execute runs the root command
func Execute() error {
	rootCmd.Version = version
	rootCmd.SetVersionTemplate(versionTemplate())
	return rootCmd.Execute()
}

func versionTemplate() string {
	if commit != "none" && commit != "" {
		return fmt.Sprintf("thinkbot %s\n  commit: %s\n  built:  %s\n", version, commit, date)
	}
	return fmt.Sprintf("thinkbot %s\n", version)
}

func runTUI(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	store, err := storage.Open(storage.DefaultPath())
	if err != nil {
		return fmt.Errorf("error opening cache: %w", err)
	}
	defer store.Close()

	blocklist, err := blacklist.Load(blacklist.DefaultPath())
	if err != nil {
		logger.Warn("Main: blacklist load failed, using defaults: %v", err)
		blocklist, _ = blacklist.Load("")
	}

	// Clipboard support is optional; paste and copy degrade to a flash
	// message when unavailable.
	if err := clipboard.Init(); err != nil {
		logger.Info("Main: clipboard unavailable: %v", err)
	}

	defer logger.Close()

	m := app.New(app.Options{
		Config:    cfg,
		Store:     store,
		Blocklist: blocklist,
		Version:   version,
	})
	defer m.Shutdown()

	p := tea.NewProgram(m)

	watcher, err := config.Watch(cfg)
	if err != nil {
		logger.Warn("Main: config watcher unavailable: %v", err)
	} else {
		defer watcher.Close()
		go func() {
			for range watcher.Events() {
				p.Send(app.ConfigReloadedMsg{})
			}
		}()
	}

	stopSync := startSyncTicker(cfg, p)
	defer stopSync()

	if len(args) == 1 {
		go p.Send(app.OpenURLRequestMsg{URL: args[0]})
	}

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running app: %w", err)
	}
	return nil
}

// startSyncTicker kicks off periodic settings sync when it is configured.
// The returned func stops the ticker.
func startSyncTicker(cfg *config.Config, p *tea.Program) func() {
	sync := cfg.GetBasic().Sync
	if !sync.Enabled || sync.IntervalMinutes <= 0 {
		return func() {}
	}

	ticker := time.NewTicker(time.Duration(sync.IntervalMinutes) * time.Minute)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				p.Send(app.SyncRequestedMsg{})
			}
		}
	}()
	return func() {
		ticker.Stop()
		close(done)
	}
}
