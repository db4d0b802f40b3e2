package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fakeyudi/screenrec/internal/config"
	"github.com/fakeyudi/screenrec/internal/logging"
	"github.com/fakeyudi/screenrec/internal/profile"
	"github.com/fakeyudi/screenrec/internal/session"
)

// cfg holds the merged configuration, populated in PersistentPreRunE.
var cfg config.Config

// activeProfile holds the loaded user profile.
var activeProfile *profile.Profile

// logger writes to the screenrec log file once PersistentPreRunE has run.
var logger = zap.NewNop()

var rootCmd = &cobra.Command{
	Use:           "screenrec",
	Short:         "Record a screen or window with microphone audio to a local file",
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// First-run: profile missing → run setup wizard automatically.
		// Only do this when stdin is an interactive terminal.
		if !profile.Exists() && isTerminal() {
			fmt.Fprintln(cmd.OutOrStdout())
			fmt.Fprintln(cmd.OutOrStdout(), "  Welcome to screenrec! Looks like this is your first time.")
			if err := runSetup(cmd, true); err != nil {
				return err
			}
		}

		// Load profile (optional, may not exist in non-interactive environments).
		activeProfile = nil
		if profile.Exists() {
			p, err := profile.Load()
			if err != nil {
				return fmt.Errorf("loading profile: %w", err)
			}
			activeProfile = p
		}

		loaded, err := config.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		cfg = withProfile(loaded, activeProfile)

		dir, err := session.DataDir()
		if err != nil {
			return fmt.Errorf("resolving data directory: %w", err)
		}
		l, err := logging.New(filepath.Join(dir, logging.FileName), cfg.LogLevel)
		if err != nil {
			return err
		}
		logger = l.With(zap.String("command", cmd.Name()))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

// withProfile fills config gaps from the profile. Values set in a config
// file win over the profile.
func withProfile(c config.Config, p *profile.Profile) config.Config {
	if p == nil {
		return c
	}
	d := config.Defaults()
	if c.OutputDir == d.OutputDir && p.OutputDir != "" {
		c.OutputDir = p.OutputDir
	}
	if c.AudioDevice == "" {
		c.AudioDevice = p.AudioDevice
	}
	if c.FrameRate == d.FrameRate && p.FrameRate > 0 {
		c.FrameRate = p.FrameRate
	}
	return c
}

// Execute runs the root command. Exits with code 1 on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// GetConfig returns the merged configuration for use by subcommands.
func GetConfig() config.Config {
	return cfg
}

// GetProfile returns the active user profile.
func GetProfile() *profile.Profile {
	return activeProfile
}
