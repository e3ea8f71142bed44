package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"devd/internal/coldboot"
	"devd/internal/config"
	"devd/internal/logging"
)

// newWorkerCommand is the hidden entry point for re-executed cold-boot
// workers. The snapshot region arrives on fd 3; see internal/coldboot.
func newWorkerCommand(configFlag *string) *cobra.Command {
	var index int
	var count int

	cmd := &cobra.Command{
		Use:    coldboot.WorkerCommand,
		Hidden: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if count < 1 || index < 0 || index >= count {
				return errors.New("invalid worker assignment")
			}

			cfg, _, _, err := config.Load(*configFlag)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			return coldboot.WorkerMain(cfg, index, count, logger)
		},
	}

	cmd.Flags().IntVar(&index, "index", 0, "Worker assignment index")
	cmd.Flags().IntVar(&count, "count", 0, "Total worker count")

	return cmd
}
