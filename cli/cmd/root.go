// Package cmd holds the courtctl commands.
package cmd

import (
	"log/slog"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/JonathanAlbertoBarrera/casosLegales-Blockchain/cli/api"
)

var (
	serverURL string
	token     string
	insecure  bool
	output    string
	verbose   bool

	logger = slog.New(pterm.NewSlogHandler(&pterm.DefaultLogger))
)

var rootCmd = &cobra.Command{
	Use:   "courtctl",
	Short: "Judicial case ledger CLI",
	Long:  "A command-line tool for filing cases and auditing a judicial ledger node.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			pterm.DefaultLogger.Level = pterm.LogLevelDebug
		}
	},
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", envOr("COURTCTL_SERVER", "http://localhost:8080"), "Node API base URL")
	rootCmd.PersistentFlags().StringVar(&token, "token", os.Getenv("COURTCTL_TOKEN"), "Bearer token (defaults to the one saved by login)")
	rootCmd.PersistentFlags().BoolVar(&insecure, "insecure", false, "Skip TLS certificate verification (for local/dev)")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "plain", "Output format: plain|json")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging")
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// client builds an API client, falling back to the saved session token.
func client() *api.Client {
	t := token
	if t == "" {
		saved, err := loadToken()
		if err != nil {
			logger.Debug("no saved token", "err", err)
		}
		t = saved
	}
	logger.Debug("using node", "server", serverURL, "authenticated", t != "")
	return api.New(serverURL, t, insecure)
}
