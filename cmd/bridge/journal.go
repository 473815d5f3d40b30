package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/nspcc-dev/tokenbridge-contract/config"
	"github.com/nspcc-dev/tokenbridge-contract/relay"
	"github.com/spf13/cobra"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Inspect relayer journal",
	Long: `Works with the journal of a stopped relayer. Transfers interrupted while
minting stay pending and are skipped by the relayer until they're checked
against the target ledger and reset.`,
}

var journalListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print journaled transfers",
	Args:  cobra.NoArgs,
	RunE:  listJournal,
}

var journalResetCmd = &cobra.Command{
	Use:   "reset <transfer-id>",
	Short: "Forget pending transfer, so the relayer mints it again",
	Args:  cobra.ExactArgs(1),
	RunE:  resetJournal,
}

var (
	journalFlag string
	pendingFlag bool
)

func init() {
	journalCmd.PersistentFlags().StringVar(&journalFlag, "journal", "", "journal file (config value if not set)")
	journalListCmd.Flags().BoolVar(&pendingFlag, "pending", false, "print pending transfers only")
	journalCmd.AddCommand(journalListCmd, journalResetCmd)
}

func openJournal() (*relay.Journal, error) {
	path := journalFlag
	if path == "" {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return nil, err
		}
		path = cfg.Relayer.Journal
	}
	return relay.OpenJournal(path)
}

func listJournal(cmd *cobra.Command, _ []string) error {
	j, err := openJournal()
	if err != nil {
		return err
	}
	defer j.Close()

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TRANSFER\tSTATUS\tDETAILS")

	err = j.Iterate(func(id relay.TransferID, r relay.Record) bool {
		if pendingFlag && r.Status != relay.StatusPending {
			return true
		}

		var details string
		switch r.Status {
		case relay.StatusDone:
			details = "mint " + r.Mint.StringLE()
		case relay.StatusFailed:
			details = r.Reason
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", id, r.Status, details)
		return true
	})
	if err != nil {
		return fmt.Errorf("read journal: %w", err)
	}
	return w.Flush()
}

func resetJournal(cmd *cobra.Command, args []string) error {
	id, err := relay.ParseTransferID(args[0])
	if err != nil {
		return err
	}

	j, err := openJournal()
	if err != nil {
		return err
	}
	defer j.Close()

	r, err := j.Get(id)
	if err != nil {
		return err
	}
	if r.Status != relay.StatusPending {
		return fmt.Errorf("transfer %s is %s, only pending transfers can be reset", id, r.Status)
	}

	if err := j.Abort(id); err != nil {
		return fmt.Errorf("reset transfer %s: %w", id, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "transfer %s is reset\n", id)
	return nil
}
