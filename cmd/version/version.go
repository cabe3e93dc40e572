package version

import (
	"fmt"

	"github.com/delange/planetary-computer-batch/version"
	"github.com/spf13/cobra"
)

// Cmd represents the "version" command
var Cmd = &cobra.Command{
	Use:   "version",
	Short: "Print build and version details.",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		if version.GitCommit != "" {
			fmt.Fprintln(out, "git commit:", version.GitCommit)
		}
		if version.GitBranch != "" {
			fmt.Fprintln(out, "git branch:", version.GitBranch)
		}
		if version.GitUpstream != "" {
			fmt.Fprintln(out, "git upstream:", version.GitUpstream)
		}
		if version.BuildDate != "" {
			fmt.Fprintln(out, "build date:", version.BuildDate)
		}
		fmt.Fprintln(out, "version:", version.Version)
	},
}
