package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"devd/internal/config"
	"devd/internal/report"
)

func newStatusCommand(configFlag *string) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show recent cold-boot sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, _, err := config.Load(*configFlag)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			store, err := report.Open(cfg)
			if err != nil {
				return fmt.Errorf("open boot report store: %w", err)
			}
			defer store.Close()

			sessions, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(sessions) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no cold-boot sessions recorded")
				return nil
			}

			rows := make([][]string, 0, len(sessions))
			for _, s := range sessions {
				rows = append(rows, []string{
					shortID(s.ID),
					formatTime(s.StartedAt),
					s.Duration.Round(time.Millisecond).String(),
					strconv.Itoa(s.Events),
					strconv.Itoa(s.Workers),
					formatMode(s.Parallel),
					s.Outcome,
				})
			}
			headers := []string{"Session", "Started", "Took", "Events", "Workers", "Mode", "Outcome"}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(headers, rows))
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "Maximum number of sessions to show")

	return cmd
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatTime(t time.Time) string {
	if isatty.IsTerminal(os.Stdout.Fd()) {
		return t.Local().Format("2006-01-02 15:04:05")
	}
	return t.UTC().Format(time.RFC3339)
}

func formatMode(parallel bool) string {
	if parallel {
		return "parallel"
	}
	return "sequential"
}
