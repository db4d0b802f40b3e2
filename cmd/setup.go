package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/screenrec/internal/capture"
	"github.com/fakeyudi/screenrec/internal/profile"
	"github.com/fakeyudi/screenrec/internal/shell"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Configure screenrec (re-run anytime to edit settings)",
	// Bypass the normal PersistentPreRunE so setup works before profile exists.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSetup(cmd, false)
	},
}

// microphones lists pulse sources for the wizard. Failure is not fatal; the
// wizard then asks for a device name instead.
var microphones = func(ctx context.Context) []string {
	p, ok := capture.NewPlatform(capture.Options{}, logger).(*capture.X11Platform)
	if !ok {
		return nil
	}
	devices, err := p.Microphones(ctx)
	if err != nil {
		return nil
	}
	return devices
}

// runSetup runs the interactive setup wizard.
// If firstRun is true, a welcome message is shown.
func runSetup(cmd *cobra.Command, firstRun bool) error {
	out := cmd.OutOrStdout()
	if firstRun {
		fmt.Fprintln(out, "  Let's get you set up.")
	}

	// Load existing profile as defaults if present.
	var existing *profile.Profile
	if profile.Exists() {
		p, err := profile.Load()
		if err == nil {
			existing = p
		}
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
	devices := microphones(ctx)
	cancel()

	prof, err := profile.RunSetup(existing, devices, cmd.InOrStdin(), out)
	if err != nil {
		return fmt.Errorf("setup cancelled: %w", err)
	}

	if err := profile.Save(prof); err != nil {
		return fmt.Errorf("saving profile: %w", err)
	}
	fmt.Fprintln(out, "  ✓ Profile saved.")

	// Install shell plugin if requested.
	if prof.ShellIndicator && prof.ShellPluginShell != "" {
		if err := shell.Install(prof.ShellPluginShell, out); err != nil {
			fmt.Fprintf(out, "  ⚠ Plugin install failed: %v\n", err)
			fmt.Fprintln(out, "    You can retry with: screenrec setup")
		}
	}

	fmt.Fprintln(out, "  Setup complete. Run 'screenrec record' to start recording.")
	fmt.Fprintln(out)
	return nil
}

func init() {
	rootCmd.AddCommand(setupCmd)
}
