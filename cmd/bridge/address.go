package main

import (
	"fmt"

	"github.com/nspcc-dev/tokenbridge-contract/address"
	"github.com/nspcc-dev/tokenbridge-contract/config"
	"github.com/spf13/cobra"
)

var addressCmd = &cobra.Command{
	Use:   "address",
	Short: "Translate addresses between ledgers",
}

var toOtherCmd = &cobra.Command{
	Use:   "to-other <hex-address>",
	Short: "Translate origin hex address into destination bech32 address",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return translate(cmd, args[0], address.HexToBech32)
	},
}

var toOriginCmd = &cobra.Command{
	Use:   "to-origin <bech32-address>",
	Short: "Translate destination bech32 address into origin hex address",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return translate(cmd, args[0], address.Bech32ToHex)
	},
}

var prefixFlag string

func init() {
	addressCmd.PersistentFlags().StringVar(&prefixFlag, "prefix", "", "bech32 prefix of the destination ledger (config value if not set)")
	addressCmd.AddCommand(toOtherCmd, toOriginCmd)
}

func translate(cmd *cobra.Command, s string, f func(s, prefix string) (string, error)) error {
	prefix := prefixFlag
	if prefix == "" {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		prefix = cfg.Destination.Prefix
	}

	res, err := f(s, prefix)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), res)
	return nil
}
