package commands

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/sabaimran/vox-locus/cmd/vox/internal/build"
)

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(build.String())
		if verbose {
			fmt.Printf("  go:     %s\n", runtime.Version())
			if cfg, err := getConfig(); err == nil {
				fmt.Printf("  config: %s\n", cfg.Dir())
			} else {
				fmt.Printf("  config: (unavailable: %v)\n", err)
			}
		}
	},
}
