package main

import (
	"os"

	"github.com/manzanit0/kantomap/pkg/logger"
)

func main() {
	logger.SetDefault(os.Stderr, "locations", nil)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
