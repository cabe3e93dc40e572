package compute

import (
	"fmt"
	"os"
)

// DetectBinaryPath detects the path to the running "pcbatch" binary.
func DetectBinaryPath() (string, error) {
	path, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to detect path of pcbatch binary: %w", err)
	}
	return path, nil
}
