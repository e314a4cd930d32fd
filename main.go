package main

import (
	"os"

	"github.com/llmpc/llmpc/cmd"
	"github.com/llmpc/llmpc/pkg/utils"
)

func main() {
	logger := utils.GetLogger(false)

	err := cmd.Execute()
	if err != nil {
		logger.Logf("Application error: %v", err)
	}
	if cerr := logger.Close(); cerr != nil {
		os.Stderr.WriteString("Error closing logger: " + cerr.Error() + "\n")
	}
	if err != nil {
		os.Exit(1)
	}
}
