package cmd

import (
	"os"

	"github.com/delange/planetary-computer-batch/logger"
	"github.com/spf13/cobra"
)

var completionCmd = &cobra.Command{
	Use:   "completion",
	Short: "Generate shell completion code",
}

var bash = &cobra.Command{
	Use:   "bash",
	Short: "Generate bash completion code",
	Long: `This command generates bash CLI completion code.
Add "source <(pcbatch completion bash)" to your bash profile.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		err := RootCmd.GenBashCompletion(os.Stdout)
		if err != nil {
			logger.Error("Error generating bash completion", err)
		}
		return err
	},
}

func init() {
	completionCmd.AddCommand(bash)
}
