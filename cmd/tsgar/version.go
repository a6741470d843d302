package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is the released version of the tool.
const Version = "v0.3.0"

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of tsgar",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("Version: %v\n", Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
