package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fakeyudi/screenrec/internal/capture"
	"github.com/fakeyudi/screenrec/internal/config"
	"github.com/fakeyudi/screenrec/internal/controller"
	"github.com/fakeyudi/screenrec/internal/output"
	"github.com/fakeyudi/screenrec/internal/session"
	"github.com/fakeyudi/screenrec/internal/tui"
)

var (
	recordSource   string
	recordDuration time.Duration
	recordOutput   string
	recordPrompt   bool
)

// stopTimeout bounds how long the encoder may take to write its trailer.
const stopTimeout = 30 * time.Second

// isTerminal reports whether stdin is interactive. Swapped out in tests.
var isTerminal = func() bool { return term.IsTerminal(os.Stdin.Fd()) }

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record a screen or window with microphone audio",
	Long: `Record a screen or window with microphone audio.

Without flags on a terminal, record opens the interactive recorder. With
--source, --duration or --output, or when stdin is not a terminal, it
records headless until Ctrl+C, 'screenrec stop' or the duration elapses.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := session.NewStore()
		if err != nil {
			return err
		}

		// Only one recording per user at a time.
		if s, err := session.LoadLive(store); err == nil {
			return fmt.Errorf("already recording: screenrec (pid %d) holds %s", s.PID, targetName(s))
		} else if !errors.Is(err, session.ErrNoSession) {
			return err
		}

		live := &liveConfig{cfg: GetConfig()}
		ctrl := newController(live, store)
		defer ctrl.Reset()

		if recordSource != "" || recordDuration > 0 || recordOutput != "" || !isTerminal() {
			return recordHeadless(cmd, ctrl)
		}
		return recordInteractive(cmd, ctrl, live)
	},
}

func recordHeadless(cmd *cobra.Command, ctrl *controller.Controller) error {
	f := output.NewFormatter(cmd.OutOrStdout())

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	target, err := resolveSource(ctx, ctrl, recordSource)
	if err != nil {
		return err
	}
	if err := ctrl.Select(ctx, &target); err != nil {
		return userError{err}
	}
	f.SourceSelected(target)

	if err := ctrl.Start(ctx); err != nil {
		return userError{err}
	}
	sess := ctrl.Session()
	f.RecordingStarted(sess.Params().MIMEType())

	var deadline <-chan time.Time
	if recordDuration > 0 {
		timer := time.NewTimer(recordDuration)
		defer timer.Stop()
		deadline = timer.C
	}
	select {
	case <-ctx.Done():
	case <-deadline:
	case <-sess.Done():
	}
	// A second Ctrl+C from here on kills the process.
	stop()

	stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	stopErr := ctrl.Stop(stopCtx)
	if stopErr != nil && ctrl.State() != session.StateStopped {
		return userError{stopErr}
	}

	snap := sess.Snapshot()
	if stopErr != nil {
		if snap.Bytes == 0 {
			return userError{stopErr}
		}
		// Finalizing failed but the chunks are kept; save what we have.
		f.Warning(output.Message(stopErr))
	}
	var elapsed time.Duration
	if snap.StartedAt != nil && snap.StoppedAt != nil {
		elapsed = snap.StoppedAt.Sub(*snap.StartedAt)
	}
	f.RecordingStopped(elapsed, snap.Bytes)

	dialog, prompting := saveDialog(cmd)
	for {
		res, err := ctrl.Save(context.Background(), dialog)
		var werr *output.WriteError
		if prompting && errors.As(err, &werr) {
			f.Error(output.Message(err))
			continue
		}
		if err != nil {
			return userError{err}
		}
		f.Saved(res)
		return nil
	}
}

// saveDialog picks how a headless recording is saved: to --output, by
// asking on the terminal, or to the default path.
func saveDialog(cmd *cobra.Command) (output.Dialog, bool) {
	if recordOutput != "" {
		return output.StaticDialog{Path: recordOutput}, false
	}
	prof := GetProfile()
	if recordPrompt || (prof != nil && prof.PromptOnSave && isTerminal()) {
		return output.NewPromptDialog(cmd.InOrStdin(), cmd.OutOrStdout()), true
	}
	return output.StaticDialog{}, false
}

// resolveSource finds the target with the given ID. An empty ID picks the
// first screen.
func resolveSource(ctx context.Context, ctrl *controller.Controller, id string) (capture.Target, error) {
	targets, err := ctrl.Sources(ctx)
	if err != nil {
		return capture.Target{}, userError{err}
	}
	for _, t := range targets {
		if (id == "" && t.Kind == capture.KindScreen) || (id != "" && t.ID == id) {
			return t, nil
		}
	}
	if id == "" {
		return capture.Target{}, errors.New("no screen found to record")
	}
	return capture.Target{}, fmt.Errorf("unknown source %q (run 'screenrec sources' to list them)", id)
}

func recordInteractive(cmd *cobra.Command, ctrl *controller.Controller, live *liveConfig) error {
	p := tui.NewProgram(ctrl)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// The TUI owns the terminal, so Ctrl+C arrives as a key. Signals come
	// from 'screenrec stop' or the session manager.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigs)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case sig := <-sigs:
				if sig == syscall.SIGTERM {
					p.Quit()
					return
				}
				p.Send(tui.RemoteStopMsg{})
			}
		}
	}()

	paths := []string{config.ProjectFile}
	if global, err := config.GlobalPath(); err == nil {
		paths = append(paths, global)
	}
	go func() {
		err := config.Watch(ctx, paths, func() {
			c, err := config.Load()
			if err == nil {
				live.Set(withProfile(c, GetProfile()))
				logger.Info("config reloaded")
			}
			p.Send(tui.ConfigReloadedMsg{Err: err})
		})
		if err != nil {
			logger.Warn("watching config files", zap.Error(err))
		}
	}()

	_, err := p.Run()
	return err
}

func init() {
	recordCmd.Flags().StringVarP(&recordSource, "source", "s", "", "source ID to record (see 'screenrec sources'); defaults to the first screen")
	recordCmd.Flags().DurationVarP(&recordDuration, "duration", "d", 0, "stop automatically after this long, e.g. 90s")
	recordCmd.Flags().StringVarP(&recordOutput, "output", "o", "", "write the video here instead of asking")
	recordCmd.Flags().BoolVar(&recordPrompt, "prompt", false, "ask where to save when the recording stops")
	rootCmd.AddCommand(recordCmd)
}
