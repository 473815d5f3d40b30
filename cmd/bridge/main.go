package main

import (
	"fmt"
	"os"

	"github.com/nspcc-dev/tokenbridge-contract/common"
	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:          "bridge",
	Short:        "Token bridge tools",
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Display bridge contracts version",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintln(cmd.OutOrStdout(), common.VersionString(common.Version))
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (defaults and BRIDGE_* environment variables are used if not set)")
	rootCmd.AddCommand(addressCmd, journalCmd, simulateCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
