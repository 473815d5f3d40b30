package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/tokenbridge-contract/common"
	"github.com/nspcc-dev/tokenbridge-contract/relay"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		prefixFlag = ""
		journalFlag = ""
		pendingFlag = false
	})

	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	require.Equal(t, common.VersionString(common.Version)+"\n", out)
}

func TestAddressCmd(t *testing.T) {
	const hexAddr = "0x0102030405060708090a0b0c0d0e0f1011121314"

	out, err := execute(t, "address", "to-other", hexAddr)
	require.NoError(t, err)
	bech := strings.TrimSpace(out)
	require.True(t, strings.HasPrefix(bech, "ex1"), bech)

	out, err = execute(t, "address", "to-origin", bech)
	require.NoError(t, err)
	require.Equal(t, hexAddr, strings.TrimSpace(out))

	out, err = execute(t, "address", "to-other", "--prefix", "wasm", hexAddr)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, "wasm1"), out)

	_, err = execute(t, "address", "to-origin", "--prefix", "wasm", bech)
	require.Error(t, err)

	_, err = execute(t, "address", "to-other", "error address")
	require.Error(t, err)
}

func TestSimulateCmd(t *testing.T) {
	t.Setenv("BRIDGE_LOGGER_LEVEL", "error")

	out, err := execute(t, "simulate", "--to-destination", "300", "--to-origin", "100")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	require.Equal(t, []string{"deployed", "10000", "0", "10000"}, strings.Fields(lines[1]))
	require.Equal(t, []string{"sent", "300", "to", "destination", "9700", "300", "10000"}, strings.Fields(lines[2]))
	require.Equal(t, []string{"sent", "100", "to", "origin", "9800", "200", "10000"}, strings.Fields(lines[3]))
}

func TestJournalCmd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")

	pending := relay.NewTransferID(util.Uint256{1}, 0)
	done := relay.NewTransferID(util.Uint256{2}, 0)
	failed := relay.NewTransferID(util.Uint256{3}, 0)

	j, err := relay.OpenJournal(path)
	require.NoError(t, err)
	for _, id := range []relay.TransferID{pending, done, failed} {
		_, err := j.Begin(id)
		require.NoError(t, err)
	}
	require.NoError(t, j.Done(done, util.Uint256{0xaa}))
	require.NoError(t, j.Fail(failed, "boom"))
	require.NoError(t, j.Close())

	out, err := execute(t, "journal", "list", "--journal", path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	require.Contains(t, out, pending.String())
	require.Contains(t, out, "mint "+util.Uint256{0xaa}.StringLE())
	require.Contains(t, out, "boom")

	out, err = execute(t, "journal", "list", "--journal", path, "--pending")
	require.NoError(t, err)
	lines = strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	require.Equal(t, []string{pending.String(), "pending"}, strings.Fields(lines[1]))

	_, err = execute(t, "journal", "reset", "--journal", path, done.String())
	require.ErrorContains(t, err, "only pending transfers can be reset")

	_, err = execute(t, "journal", "reset", "--journal", path, "not an ID")
	require.Error(t, err)

	out, err = execute(t, "journal", "reset", "--journal", path, pending.String())
	require.NoError(t, err)
	require.Contains(t, out, pending.String())

	j, err = relay.OpenJournal(path)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, j.Close()) })

	r, err := j.Get(pending)
	require.NoError(t, err)
	require.Equal(t, relay.StatusUnknown, r.Status)
}
