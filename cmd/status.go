package cmd

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/screenrec/internal/output"
	"github.com/fakeyudi/screenrec/internal/session"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current recording status",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := session.NewStore()
		if err != nil {
			return err
		}

		s, err := session.LoadLive(store)
		if err != nil {
			if errors.Is(err, session.ErrNoSession) {
				cmd.Println("not recording")
				return nil
			}
			return err
		}

		cmd.Printf("State: %s\n", s.State)
		cmd.Printf("Source: %s\n", targetName(s))
		cmd.Printf("PID: %d\n", s.PID)
		if s.MIMEType != "" {
			cmd.Printf("Format: %s\n", s.MIMEType)
		}
		if s.StartedAt != nil {
			end := time.Now()
			if s.StoppedAt != nil {
				end = *s.StoppedAt
			}
			cmd.Printf("Duration: %s\n", output.FormatDuration(end.Sub(*s.StartedAt)))
		}
		cmd.Printf("Chunks: %d\n", s.ChunkCount)
		cmd.Printf("Size: %s\n", output.FormatBytes(s.Bytes))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
