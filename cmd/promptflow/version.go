package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/BaSui01/promptflow/internal/telemetry"
)

type VersionCmd struct{}

func NewVersionCmd() *VersionCmd {
	return &VersionCmd{}
}

func (c *VersionCmd) Command() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the promptflow version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "promptflow %s (%s, %s/%s)\n",
				telemetry.Version(), runtime.Version(), runtime.GOOS, runtime.GOARCH)
		},
	}
}
