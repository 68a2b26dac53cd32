package main

import (
	"os"

	"site-admin/cmd"
	"site-admin/pkg/config"
)

func main() {
	// Initialize config
	config.Init()

	rootCmd := cmd.NewRootCmd(cmd.NewApp())
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
