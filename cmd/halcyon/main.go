package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/halcyontv/halcyon/internal/captions"
	"github.com/halcyontv/halcyon/internal/catalog"
	"github.com/halcyontv/halcyon/internal/config"
	"github.com/halcyontv/halcyon/internal/database"
	"github.com/halcyontv/halcyon/internal/history"
	"github.com/halcyontv/halcyon/internal/player/mpv"
	"github.com/halcyontv/halcyon/internal/progress"
	"github.com/halcyontv/halcyon/internal/session"
	"github.com/halcyontv/halcyon/internal/stream"
	"github.com/halcyontv/halcyon/pkg/ticks"
)

var (
	// Version information (set via ldflags during build)
	version = "dev"
	commit  = "none"
	date    = "unknown"

	// Global flags
	cfgFile  string
	logLevel string

	// Global config and logger
	cfg    *config.Config
	logger *slog.Logger
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "halcyon",
	Short: "A terminal client for Jellyfin-compatible media servers",
	Long: `halcyon plays movies and shows from a Jellyfin-compatible media server
in mpv, with resume, skip-intro, captions, up-next auto-advance and
server-side progress tracking.`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip config loading for config init command
		if cmd.Name() == "init" && cmd.Parent() != nil && cmd.Parent().Name() == "config" {
			return nil
		}

		if err := config.InitializeDirs(); err != nil {
			return fmt.Errorf("failed to initialize directories: %w", err)
		}

		var err error
		cfg, _, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if logLevel != "" {
			cfg.Logging.Level = logLevel
		}

		logger, err = config.InitLogger(&cfg.Logging)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		if err := database.Init(database.Config{
			Path:           cfg.Database.Path,
			MaxConnections: cfg.Database.MaxConnections,
			WALMode:        cfg.Database.WALMode,
		}); err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if err := database.Close(); err != nil && logger != nil {
			logger.Error("failed to close database", "error", err)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $XDG_CONFIG_HOME/halcyon/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

// playCmd plays one item and supervises the session interactively.
var playCmd = &cobra.Command{
	Use:   "play <item-id>",
	Short: "Play an item from the server",
	Long: `Play an item from the media server in mpv.

While playing, the following commands are read from stdin:
  p          pause / resume
  s <secs>   seek to an absolute position
  k          skip the active intro/credits segment
  n          play the offered next episode now
  c          cancel the up-next offer
  y / N      answer the resume prompt
  q          stop playback and quit`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		itemID := args[0]

		if cfg.Server.URL == "" {
			return fmt.Errorf("no server configured: set server.url in %s", filepath.Join(config.GetConfigDir(), "config.yaml"))
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		catalogClient := catalog.NewClient(catalog.ClientConfig{
			BaseURL: cfg.Server.URL,
			Token:   cfg.Server.Token,
			UserID:  cfg.Server.UserID,
			Timeout: cfg.Server.Timeout,
			Logger:  logger,
		})
		streamClient := stream.NewClient(stream.ClientConfig{
			BaseURL: cfg.Server.URL,
			Token:   cfg.Server.Token,
			UserID:  cfg.Server.UserID,
			Timeout: cfg.Server.Timeout,
			Logger:  logger,
		})
		sink := progress.NewHTTPSink(progress.SinkConfig{
			BaseURL: cfg.Server.URL,
			Token:   cfg.Server.Token,
			Logger:  logger,
		})
		driver, err := mpv.New(mpv.Options{
			Binary:         cfg.Player.Binary,
			LoadUserConfig: cfg.Player.LoadUserConfig,
			ExtraArgs:      cfg.Player.ExtraArgs,
			Logger:         logger,
		})
		if err != nil {
			return err
		}

		resumeThreshold := cfg.Playback.ResumeThreshold
		if resumeThreshold == 0 {
			// resume_threshold: 0s means any prior position offers resume.
			resumeThreshold = -1
		}

		ctrl, err := session.NewController(session.Deps{
			Catalog: catalogClient,
			Backend: streamClient,
			Sink:    sink,
			Player:  driver,
			History: history.NewService(database.DB),
			Logger:  logger,
			Config: session.Config{
				MaxBitrate:           cfg.Playback.MaxBitrate,
				ForceDirectPlay:      cfg.Playback.ForceDirectPlay,
				CaptionLanguage:      cfg.Captions.Language,
				DisableCaptions:      !cfg.Captions.Enabled,
				ResumeThreshold:      resumeThreshold,
				NearEndEpsilon:       cfg.Playback.NearEndEpsilon,
				AutoResumeDelay:      cfg.Playback.AutoResumeDelay,
				UpNextCountdown:      cfg.Playback.UpNextCountdown,
				UpNextTrailingWindow: cfg.Playback.UpNextTrailingWindow,
				ProgressInterval:     cfg.Playback.ProgressInterval,
			},
		})
		if err != nil {
			return err
		}

		done := make(chan struct{})
		ctrl.OnStateChange(func(snap session.Snapshot) {
			switch snap.State {
			case session.StatePlaying:
				if snap.Item != nil {
					fmt.Printf("Playing: %s\n", snap.Item.Name)
				}
			case session.StateBuffering:
				fmt.Println("Buffering...")
			case session.StateEnded:
				fmt.Println("Playback finished.")
				close(done)
			case session.StateFailed:
				fmt.Printf("Playback failed: %v\n", snap.Err)
				close(done)
			}
		})
		ctrl.OnCueChange(func(cue *captions.Cue) {
			if cue != nil {
				fmt.Printf("  %s\n", strings.ReplaceAll(cue.Text, "\n", " "))
			}
		})
		ctrl.OnResumeOffer(func(offer *session.ResumeOffer) {
			if offer == nil {
				return
			}
			fmt.Printf("Resume at %s? [Y/n] (auto-resume in %s)\n",
				formatTicks(offer.PositionTicks), offer.AutoResumeDelay)
		})
		ctrl.OnUpNextOffer(func(offer *session.UpNextOffer) {
			if offer == nil {
				fmt.Println("Up-next cancelled.")
				return
			}
			fmt.Printf("Up next: %s in %s (n = play now, c = cancel)\n",
				offer.NextItem.Name, offer.Countdown)
		})
		ctrl.OnSkipPrompt(func(w catalog.SegmentWindow) {
			fmt.Printf("%s segment, press k to skip (%s)\n",
				w.Type, formatTicks(w.EndTicks-w.StartTicks))
		})

		if err := ctrl.Start(ctx, itemID); err != nil {
			return err
		}
		defer ctrl.Teardown()

		go readCommands(ctx, ctrl, stop)

		select {
		case <-ctx.Done():
		case <-done:
		}
		return nil
	},
}

// readCommands drives the controller from stdin while playback runs.
func readCommands(ctx context.Context, ctrl *session.Controller, quit func()) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		var err error
		switch strings.ToLower(fields[0]) {
		case "y", "yes":
			err = ctrl.ChooseResume(true)
		case "no":
			err = ctrl.ChooseResume(false)
		case "p":
			if ctrl.State() == session.StatePaused {
				err = ctrl.Resume(ctx)
			} else {
				err = ctrl.Pause(ctx)
			}
		case "s":
			if len(fields) < 2 {
				fmt.Println("usage: s <seconds>")
				continue
			}
			var secs float64
			secs, err = strconv.ParseFloat(fields[1], 64)
			if err == nil {
				err = ctrl.Seek(ctx, secs)
			}
		case "k":
			err = ctrl.SkipSegment(ctx)
		case "n":
			// Doubles as "start over" while the resume prompt is open.
			if choiceErr := ctrl.ChooseResume(false); choiceErr == nil {
				continue
			}
			ctrl.PlayNextNow()
		case "c":
			ctrl.CancelUpNext()
		case "q":
			quit()
			return
		default:
			fmt.Printf("unknown command: %s\n", fields[0])
			continue
		}

		if err != nil {
			fmt.Printf("%v\n", err)
		}
	}
}

func formatTicks(t int64) string {
	return ticks.ToDuration(t).Round(time.Second).String()
}

// historyCmd lists recently watched items.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recently watched items",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		entries, err := history.NewService(database.DB).Recent(limit)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Println("No watch history yet.")
			return nil
		}

		for _, e := range entries {
			status := fmt.Sprintf("%.0f%%", e.ProgressPercent)
			if e.Completed {
				status = "finished"
			}
			fmt.Printf("%s  %-36s %8s  (%s)\n",
				e.WatchedAt.Format("2006-01-02 15:04"), e.ItemID, status,
				formatTicks(e.PositionTicks))
		}
		return nil
	},
}

var historyRemoveCmd = &cobra.Command{
	Use:   "remove <item-id>",
	Short: "Delete the history entry for an item",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := history.NewService(database.DB).DeleteByItemID(args[0]); err != nil {
			return err
		}
		fmt.Printf("Removed history for %s\n", args[0])
		return nil
	},
}

var historyPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete stale unfinished history entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := history.NewService(database.DB).Cleanup(); err != nil {
			return err
		}
		fmt.Println("Pruned stale history entries.")
		return nil
	},
}

func init() {
	historyCmd.Flags().IntP("limit", "n", 20, "number of entries to show")
	historyCmd.AddCommand(historyRemoveCmd)
	historyCmd.AddCommand(historyPruneCmd)
}

// versionCmd displays version information
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Display version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("halcyon version %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
	},
}

// configCmd handles configuration operations
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate default configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := cfgFile
		if configPath == "" {
			configPath = filepath.Join(config.GetConfigDir(), "config.yaml")
		}

		if _, err := os.Stat(configPath); err == nil {
			return fmt.Errorf("configuration file already exists: %s", configPath)
		}

		if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}

		if err := config.SaveDefaultConfig(configPath); err != nil {
			return fmt.Errorf("failed to save default configuration: %w", err)
		}

		fmt.Printf("Default configuration generated at: %s\n", configPath)
		fmt.Println("Set server.url, server.token and server.user_id to get started.")
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Display current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("Server: %s\n", cfg.Server.URL)
		fmt.Printf("Log level: %s\n", cfg.Logging.Level)
		fmt.Printf("Database: %s\n", cfg.Database.Path)
		fmt.Printf("Player: %s\n", cfg.Player.Binary)
		fmt.Printf("Caption language: %s\n", cfg.Captions.Language)
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Display configuration file path",
	Run: func(cmd *cobra.Command, args []string) {
		if cfgFile != "" {
			fmt.Println(cfgFile)
		} else {
			fmt.Println(config.GetConfigDir())
		}
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
}
