// Command pbixctl inspects Power BI archives from the command line.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/pbixinspect/internal/config"
	"github.com/JonMunkholm/pbixinspect/internal/core"
	_ "github.com/JonMunkholm/pbixinspect/internal/core/rules" // Register best-practice rules
	"github.com/JonMunkholm/pbixinspect/internal/logging"
	"github.com/JonMunkholm/pbixinspect/internal/pbix"
	"github.com/JonMunkholm/pbixinspect/internal/store"
)

func main() {
	// A missing .env is fine; the environment wins over the file.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}

	// stdout carries the envelope; logs go to stderr.
	logging.SetupWriter(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)

	// Without a database the CLI keeps no history.
	history, closeHistory, err := store.Open(context.Background(), &cfg.Database, 0)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}

	svc, err := core.NewService(pbix.New(), history, core.ServiceOptions{MaxConcurrent: 1})
	if err != nil {
		closeHistory()
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}

	err = newRootCmd(svc).Execute()
	closeHistory()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		if core.IsUserFacing(err) {
			fmt.Fprintln(os.Stderr, core.FormatUserError(err))
		}
		os.Exit(1)
	}
}

func newRootCmd(svc *core.Service) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "pbixctl",
		Short: "Inspect Power BI (.pbix) archives",
		Long: `pbixctl opens a Power BI archive and prints its model: metadata,
columns, relationships, Power Query, measures and decodable table data.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(newInspectCmd(svc), newRulesCmd())
	return rootCmd
}
