package bridgetest

import (
	"math/big"
	"testing"

	"github.com/nspcc-dev/neo-go/pkg/vm/stackitem"
	"github.com/stretchr/testify/require"
)

func TestCheckItem(t *testing.T) {
	CheckItem(t, 42, stackitem.NewBigInteger(big.NewInt(42)))
	CheckItem(t, int64(-1), stackitem.NewBigInteger(big.NewInt(-1)))
	CheckItem(t, "TST", stackitem.NewByteArray([]byte("TST")))
	CheckItem(t, []byte{1, 2, 3}, stackitem.NewByteArray([]byte{1, 2, 3}))
	CheckItem(t, true, stackitem.NewBool(true))
	CheckItem(t, stackitem.Null{}, stackitem.Null{})
	CheckItem(t, []any{1, "a"}, stackitem.NewArray([]stackitem.Item{
		stackitem.NewBigInteger(big.NewInt(1)),
		stackitem.NewByteArray([]byte("a")),
	}))
}

func TestEqualItems(t *testing.T) {
	arr := func(items ...stackitem.Item) stackitem.Item { return stackitem.NewArray(items) }
	one := stackitem.NewBigInteger(big.NewInt(1))
	two := stackitem.NewBigInteger(big.NewInt(2))

	require.True(t, equalItems(arr(one, arr(two)), arr(one, arr(two))))
	require.True(t, equalItems(stackitem.NewStruct([]stackitem.Item{one}), stackitem.NewStruct([]stackitem.Item{one})))
	require.False(t, equalItems(arr(one), arr(two)))
	require.False(t, equalItems(arr(one), arr(one, two)))
	require.False(t, equalItems(arr(one), stackitem.NewStruct([]stackitem.Item{one})))
	require.False(t, equalItems(one, stackitem.NewByteArray([]byte{1})))
	require.False(t, equalItems(one, nil))
}
