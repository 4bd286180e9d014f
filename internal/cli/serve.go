package cli

import (
	"github.com/spf13/cobra"

	"go-log-analyzer/internal/api"
	"go-log-analyzer/internal/store"
	"go-log-analyzer/pkg/router"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the run-history and report API",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "listen address")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	spec, err := setup()
	if err != nil {
		return err
	}
	defer store.CloseDB()

	r := router.New()
	api.RegisterRoutes(r, spec)
	return r.Start(serveAddr)
}
