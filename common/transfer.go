package common

var (
	mintPrefix = []byte{0x01}
	burnPrefix = []byte{0x02}
)

// MintTransferDetails returns details of the bridge mint made for the given
// transfer ID.
func MintTransferDetails(txDetails []byte) []byte {
	return append(append([]byte{}, mintPrefix...), txDetails...)
}

// BurnTransferDetails returns details of the bridge burn made in the given
// transaction.
func BurnTransferDetails(txDetails []byte) []byte {
	return append(append([]byte{}, burnPrefix...), txDetails...)
}
