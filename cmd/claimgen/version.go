package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show claimgen version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("claimgen %s\n", Version)
	},
}
