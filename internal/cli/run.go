package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"go-log-analyzer/internal/pipeline"
	"go-log-analyzer/internal/store"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Process the newest unprocessed access log",
	Long: `Finds the newest nginx-access-ui.log-YYYYMMDD[.gz] in the log dir that
is not listed in the registry, and generates its report. Exits cleanly when
there is nothing to process.`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	spec, err := setup()
	if err != nil {
		return err
	}
	defer store.CloseDB()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runID := uuid.New().String()
	return pipeline.Run(ctx, runID, spec)
}
