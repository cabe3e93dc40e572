// Package cmd contains the pcbatch CLI commands.
package cmd

import (
	"github.com/delange/planetary-computer-batch/cmd/ndvi"
	"github.com/delange/planetary-computer-batch/cmd/search"
	"github.com/delange/planetary-computer-batch/cmd/submit"
	"github.com/delange/planetary-computer-batch/cmd/version"
	"github.com/spf13/cobra"
)

// RootCmd represents the root command
var RootCmd = &cobra.Command{
	Use:           "pcbatch",
	Short:         "Process Planetary Computer scenes on cloud batch services.",
	SilenceErrors: true,
	SilenceUsage:  true,
}

func init() {
	RootCmd.AddCommand(completionCmd)
	RootCmd.AddCommand(ndvi.NewCommand())
	RootCmd.AddCommand(search.NewCommand())
	RootCmd.AddCommand(submit.NewCommand())
	RootCmd.AddCommand(version.Cmd)
}
