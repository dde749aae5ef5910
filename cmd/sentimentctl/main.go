package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"sentiment-service/internal/cfg"
	"sentiment-service/internal/common"
)

func main() {
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:           "sentimentctl",
		Short:         "train, query and inspect sentiment models",
		Version:       common.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level, _ := cmd.Flags().GetString("log-level")
			cfg.SetupLogging(level, common.LogFormatConsole)
		},
	}
	root.PersistentFlags().String("log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(
		trainCmd(),
		predictCmd(),
		evaluateCmd(),
		infoCmd(),
	)

	if err := root.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// defaultServer is the address info talks to when --server is not given.
func defaultServer() string {
	if v := os.Getenv(common.EnvServerURL); v != "" {
		return v
	}
	return common.DefaultServerURL
}
