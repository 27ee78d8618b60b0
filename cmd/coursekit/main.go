package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	// Version is set during build
	Version = "dev"

	// BuildDate is set during build
	BuildDate = "unknown"
)

// rootCmd represents the base command
var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "coursekit",
		Short: "Serve and manage markdown training courses",
		Long: `coursekit serves a tree of markdown training material over a JSON API.
Courses hold slide decks split on "---" lines, numbered labs and assets;
blog posts live alongside them. Edits made through the API land on disk
and connected WebSocket clients are told about every change.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate(`{{with .Name}}{{printf "%s " .}}{{end}}{{printf "version %s" .Version}}
Build Date: ` + BuildDate + `
`)

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
	cmd.PersistentFlags().StringP("root", "r", "", "Content root directory (overrides config)")
	cmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error (overrides config)")

	cmd.AddCommand(newServeCmd(), newParseCmd(), newExportCmd(), newVersionCmd())
	return cmd
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nReceived interrupt signal, shutting down...")
		cancel()
	}()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
