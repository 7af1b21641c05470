package main

import (
	"fmt"
	"runtime"

	"github.com/dexit/ACRUD/pkg/engine"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show ACRUD version",
	Long:  "Display the current version of the ACRUD CLI and its registered drivers",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("ACRUD v%s\n", version)

		if verbose {
			fmt.Println("\nComponents:")
			fmt.Printf("  CLI:     v%s\n", version)
			fmt.Printf("  Go:      %s\n", runtime.Version())
			fmt.Printf("  Drivers: %v\n", engine.Drivers())
		}
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
