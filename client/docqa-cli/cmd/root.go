package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	serverURL string
	timeout   time.Duration
)

var rootCmd = &cobra.Command{
	Use:          "docqa-cli",
	Short:        "A CLI client for the document QA service",
	Long:         `A command-line interface for managing folders, uploading PDFs and asking questions against the document QA service.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func init() {
	defaultServer := os.Getenv("DOCQA_SERVER")
	if defaultServer == "" {
		defaultServer = "http://localhost:8000"
	}
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", defaultServer, "base URL of the document QA service (env DOCQA_SERVER)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Minute, "request timeout; uploads index synchronously")
}
