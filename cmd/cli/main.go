package main

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/myrjola/casemate/cmd/cli/investigate"
	"github.com/myrjola/casemate/internal/errors"
	"github.com/myrjola/casemate/internal/logging"
	"github.com/spf13/cobra"
)

func newRootCmd(lookupEnv func(string) (string, bool), logger *slog.Logger) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "casemate-cli",
		Long:          `Command line utilities for Casemate, the murder mystery case workspace.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddGroup(investigate.Group)
	rootCmd.AddCommand(investigate.Commands(lookupEnv, logger)...)
	return rootCmd
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := logging.NewLogger(os.Stderr, slog.LevelWarn, false)
	if err := newRootCmd(os.LookupEnv, logger).ExecuteContext(context.Background()); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
