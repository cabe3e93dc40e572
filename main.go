package main

import (
	"os"

	"github.com/delange/planetary-computer-batch/cmd"
	"github.com/delange/planetary-computer-batch/logger"
)

func main() {
	if err := cmd.RootCmd.Execute(); err != nil {
		logger.PrintSimpleError(err)
		os.Exit(1)
	}
}
