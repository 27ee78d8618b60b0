package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "coursekit %s\nBuild Date: %s\nGo: %s %s/%s\n",
				Version, BuildDate, runtime.Version(), runtime.GOOS, runtime.GOARCH)
			return err
		},
	}
}
