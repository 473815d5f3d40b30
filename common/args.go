package common

import (
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/stackitem"
)

// CheckArgs checks argument count of the method.
func CheckArgs(method string, args []stackitem.Item, n int) error {
	if len(args) != n {
		return Revertf(ErrInvalidArgument, "%s: expected %d arguments, got %d", method, n, len(args))
	}
	return nil
}

// ToUint160 decodes 20-byte account from stack item.
func ToUint160(it stackitem.Item) (util.Uint160, error) {
	b, err := it.TryBytes()
	if err != nil {
		return util.Uint160{}, Wrapf(ErrInvalidArgument, err, "invalid account: %v", err)
	}
	u, err := util.Uint160DecodeBytesBE(b)
	if err != nil {
		return util.Uint160{}, Wrapf(ErrInvalidArgument, err, "invalid account: %v", err)
	}
	return u, nil
}

// ToString decodes UTF-8 string from stack item.
func ToString(it stackitem.Item) (string, error) {
	b, err := it.TryBytes()
	if err != nil {
		return "", Wrapf(ErrInvalidArgument, err, "invalid string: %v", err)
	}
	return string(b), nil
}
