package ledger

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/stackitem"
)

// ErrInvalidParameter is returned for invocation arguments that can't be
// represented as stack items.
var ErrInvalidParameter = errors.New("invalid invocation parameter")

func toItems(args []any) ([]stackitem.Item, error) {
	res := make([]stackitem.Item, 0, len(args))
	for i := range args {
		item, err := toItem(args[i])
		if err != nil {
			return nil, fmt.Errorf("parameter #%d: %w", i, err)
		}
		res = append(res, item)
	}
	return res, nil
}

func toItem(v any) (stackitem.Item, error) {
	switch x := v.(type) {
	case nil:
		return stackitem.Null{}, nil
	case stackitem.Item:
		return x, nil
	case util.Uint160:
		return stackitem.NewByteArray(x.BytesBE()), nil
	case util.Uint256:
		return stackitem.NewByteArray(x.BytesBE()), nil
	case *uint256.Int:
		if x == nil {
			return stackitem.Null{}, nil
		}
		return stackitem.NewBigInteger(x.ToBig()), nil
	case *big.Int:
		if x == nil {
			return stackitem.Null{}, nil
		}
		return stackitem.NewBigInteger(new(big.Int).Set(x)), nil
	case int:
		return stackitem.NewBigInteger(big.NewInt(int64(x))), nil
	case int64:
		return stackitem.NewBigInteger(big.NewInt(x)), nil
	case uint64:
		return stackitem.NewBigInteger(new(big.Int).SetUint64(x)), nil
	case uint8:
		return stackitem.NewBigInteger(big.NewInt(int64(x))), nil
	case bool:
		return stackitem.NewBool(x), nil
	case string:
		return stackitem.NewByteArray([]byte(x)), nil
	case []byte:
		return stackitem.NewByteArray(x), nil
	case []any:
		items, err := toItems(x)
		if err != nil {
			return nil, err
		}
		return stackitem.NewArray(items), nil
	default:
		return nil, fmt.Errorf("%w: unsupported type %T", ErrInvalidParameter, v)
	}
}
