package cmd

import (
	"errors"
	"fmt"
	"syscall"

	"github.com/shirou/gopsutil/v3/process"
	"github.com/spf13/cobra"

	"github.com/fakeyudi/screenrec/internal/session"
)

// signalRecorder asks the recording process to stop. Swapped out in tests.
var signalRecorder = func(pid int) error {
	p, err := process.NewProcess(int32(pid))
	if err != nil {
		return err
	}
	return p.SendSignal(syscall.SIGINT)
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running recording; the recorder then saves it",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := session.NewStore()
		if err != nil {
			return err
		}

		s, err := session.LoadLive(store)
		if err != nil {
			if errors.Is(err, session.ErrNoSession) {
				return fmt.Errorf("not recording")
			}
			return err
		}
		if s.State != session.StateRecording {
			return fmt.Errorf("not recording (source %s is %s)", targetName(s), s.State)
		}

		if err := signalRecorder(s.PID); err != nil {
			return fmt.Errorf("signalling recorder (pid %d): %w", s.PID, err)
		}
		cmd.Printf("Stop requested for %s (pid %d)\n", targetName(s), s.PID)
		return nil
	},
}

func targetName(s *session.Snapshot) string {
	if s.Target == nil {
		return "no source"
	}
	return s.Target.DisplayName
}

func init() {
	rootCmd.AddCommand(stopCmd)
}
