// Command observer-server runs the External Observer backend.
package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "observer-server",
		Short:        "notes and habit tracking backend",
		Version:      version + " (" + buildDate + ")",
		SilenceUsage: true,
		Example: `observer-server serve --dsn postgres://... --jwt-key secret
observer-server migrate up --dsn postgres://...
observer-server migrate status`,
	}
	root.AddCommand(serveCmd())
	root.AddCommand(migrateCmd())
	root.CompletionOptions.HiddenDefaultCmd = true
	return root
}

func newLogger(dev bool) (*zap.Logger, error) {
	if dev {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
