package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionInfo = struct {
	version, commit, buildTime string
}{"dev", "unknown", "unknown"}

// SetVersionInfo 由 main 传入 ldflags 注入的版本信息
func SetVersionInfo(version, commit, buildTime string) {
	versionInfo.version = version
	versionInfo.commit = commit
	versionInfo.buildTime = buildTime
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "chatcloud %s (commit %s, built %s)\n",
			versionInfo.version, versionInfo.commit, versionInfo.buildTime)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
