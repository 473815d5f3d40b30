package destination

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
	"github.com/nspcc-dev/neo-go/pkg/vm/stackitem"
	"github.com/nspcc-dev/tokenbridge-contract/common"
	"github.com/tidwall/gjson"
)

// Uint128 is an amount encoded in JSON as a decimal string.
type Uint128 struct {
	v uint256.Int
}

// NewUint128 returns JSON amount for a. It panics if a exceeds
// common.MaxAmount.
func NewUint128(a *uint256.Int) Uint128 {
	if a.Gt(common.MaxAmount) {
		panic(fmt.Sprintf("amount %s exceeds 128 bits", common.AmountString(a)))
	}

	var u Uint128
	u.v.Set(a)
	return u
}

// Uint128FromUint64 returns JSON amount for v.
func Uint128FromUint64(v uint64) Uint128 {
	return NewUint128(uint256.NewInt(v))
}

// Uint128FromBig returns JSON amount for b, it fails for negative values and
// values exceeding common.MaxAmount.
func Uint128FromBig(b *big.Int) (Uint128, error) {
	a, err := common.AmountFromItem(stackitem.NewBigInteger(b))
	if err != nil {
		return Uint128{}, err
	}
	return NewUint128(a), nil
}

// Amount returns a copy of the amount.
func (u Uint128) Amount() *uint256.Int {
	return new(uint256.Int).Set(&u.v)
}

// String returns decimal representation.
func (u Uint128) String() string {
	return common.AmountString(&u.v)
}

// MarshalJSON implements json.Marshaler.
func (u Uint128) MarshalJSON() ([]byte, error) {
	return json.Marshal(u.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (u *Uint128) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return common.Wrapf(common.ErrInvalidAmount, err, "Invalid type: expected a string-encoded integer, got %s", data)
	}

	a, err := common.ParseAmount(s)
	if err != nil {
		return err
	}
	u.v.Set(a)
	return nil
}

// InstantiateMsg is a payload of the destination contract deployment.
type InstantiateMsg struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals uint8  `json:"decimals"`
	// Counterpart is an optional origin contract address, when it's set the
	// contract is initialized on deployment.
	Counterpart string `json:"counterpart,omitempty"`
}

// Validate checks token metadata.
func (m InstantiateMsg) Validate() error {
	if len(m.Name) < 3 || len(m.Name) > 30 {
		return common.Revertf(common.ErrInvalidMetadata, "Name is not in the expected format (3-30 UTF-8 bytes)")
	}
	if len(m.Symbol) < 3 || len(m.Symbol) > 6 {
		return common.Revertf(common.ErrInvalidMetadata, "Ticker symbol is not in expected format [A-Z]{3,6}")
	}
	for i := 0; i < len(m.Symbol); i++ {
		if m.Symbol[i] < 'A' || m.Symbol[i] > 'Z' {
			return common.Revertf(common.ErrInvalidMetadata, "Ticker symbol is not in expected format [A-Z]{3,6}")
		}
	}
	if m.Decimals > 18 {
		return common.Revertf(common.ErrInvalidMetadata, "Decimals must not exceed 18")
	}
	return nil
}

// ExecuteMsg is one of the state changing messages. The set of messages is
// closed, see the types below.
type ExecuteMsg interface {
	// Tag returns the message key in the JSON form.
	Tag() string

	executeMsg()
}

type (
	// InitializeMsg registers origin contract address.
	InitializeMsg struct {
		Counterpart string `json:"counterpart"`
	}

	// TransferMsg moves tokens of the sender.
	TransferMsg struct {
		Recipient string  `json:"recipient"`
		Amount    Uint128 `json:"amount"`
	}

	// TransferFromMsg moves tokens of the owner using sender allowance.
	TransferFromMsg struct {
		Owner     string  `json:"owner"`
		Recipient string  `json:"recipient"`
		Amount    Uint128 `json:"amount"`
	}

	// ApproveMsg sets spender allowance for the sender tokens.
	ApproveMsg struct {
		Spender string  `json:"spender"`
		Amount  Uint128 `json:"amount"`
	}

	// BurnMsg destroys tokens of the sender.
	BurnMsg struct {
		Amount Uint128 `json:"amount"`
	}

	// SendToEvmMsg burns tokens of the sender and requests the same amount to
	// be minted for the recipient in the origin ledger.
	SendToEvmMsg struct {
		Recipient string  `json:"recipient"`
		Amount    Uint128 `json:"amount"`
	}

	// MintCW20Msg mints tokens sent from the origin ledger. Only the origin
	// contract can send it.
	MintCW20Msg struct {
		Recipient string  `json:"recipient"`
		Amount    Uint128 `json:"amount"`
		// TransferID is an optional hex identifier of the origin burn.
		TransferID string `json:"transfer_id,omitempty"`
	}
)

// Execute message tags.
const (
	InitializeTag   = "initialize"
	TransferTag     = "transfer"
	TransferFromTag = "transfer_from"
	ApproveTag      = "approve"
	BurnTag         = "burn"
	SendToEvmTag    = "send_to_evm"
	MintCW20Tag     = "mint_c_w20"
)

func (InitializeMsg) Tag() string   { return InitializeTag }
func (TransferMsg) Tag() string     { return TransferTag }
func (TransferFromMsg) Tag() string { return TransferFromTag }
func (ApproveMsg) Tag() string      { return ApproveTag }
func (BurnMsg) Tag() string         { return BurnTag }
func (SendToEvmMsg) Tag() string    { return SendToEvmTag }
func (MintCW20Msg) Tag() string     { return MintCW20Tag }

func (InitializeMsg) executeMsg()   {}
func (TransferMsg) executeMsg()     {}
func (TransferFromMsg) executeMsg() {}
func (ApproveMsg) executeMsg()      {}
func (BurnMsg) executeMsg()         {}
func (SendToEvmMsg) executeMsg()    {}
func (MintCW20Msg) executeMsg()     {}

type variant[T any] struct {
	required []string
	decode   func(body []byte) (T, error)
}

func decoder[M any, T any](wrap func(M) T) func([]byte) (T, error) {
	return func(body []byte) (T, error) {
		var m M
		dec := json.NewDecoder(bytes.NewReader(body))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&m); err != nil {
			var zero T
			return zero, err
		}
		return wrap(m), nil
	}
}

var executeVariants = map[string]variant[ExecuteMsg]{
	InitializeTag: {
		required: []string{"counterpart"},
		decode:   decoder(func(m InitializeMsg) ExecuteMsg { return m }),
	},
	TransferTag: {
		required: []string{"recipient", "amount"},
		decode:   decoder(func(m TransferMsg) ExecuteMsg { return m }),
	},
	TransferFromTag: {
		required: []string{"owner", "recipient", "amount"},
		decode:   decoder(func(m TransferFromMsg) ExecuteMsg { return m }),
	},
	ApproveTag: {
		required: []string{"spender", "amount"},
		decode:   decoder(func(m ApproveMsg) ExecuteMsg { return m }),
	},
	BurnTag: {
		required: []string{"amount"},
		decode:   decoder(func(m BurnMsg) ExecuteMsg { return m }),
	},
	SendToEvmTag: {
		required: []string{"recipient", "amount"},
		decode:   decoder(func(m SendToEvmMsg) ExecuteMsg { return m }),
	},
	MintCW20Tag: {
		required: []string{"recipient", "amount"},
		decode:   decoder(func(m MintCW20Msg) ExecuteMsg { return m }),
	},
}

// ParseExecuteMsg decodes execute message. Unknown tags are rejected with
// common.ErrUnknownMessage, absent required fields with common.ErrMissingField.
func ParseExecuteMsg(data []byte) (ExecuteMsg, error) {
	return parseVariant("ExecuteMsg", executeVariants, data)
}

// QueryMsg is one of the read-only messages.
type QueryMsg interface {
	Tag() string

	queryMsg()
}

type (
	// BalanceQuery requests account balance.
	BalanceQuery struct {
		Address string `json:"address"`
	}

	// AllowanceQuery requests spender allowance.
	AllowanceQuery struct {
		Owner   string `json:"owner"`
		Spender string `json:"spender"`
	}

	// TokenInfoQuery requests token metadata and supply.
	TokenInfoQuery struct{}

	// CounterpartQuery requests origin contract address.
	CounterpartQuery struct{}
)

// Query message tags.
const (
	BalanceTag     = "balance"
	AllowanceTag   = "allowance"
	TokenInfoTag   = "token_info"
	CounterpartTag = "counterpart"
)

func (BalanceQuery) Tag() string     { return BalanceTag }
func (AllowanceQuery) Tag() string   { return AllowanceTag }
func (TokenInfoQuery) Tag() string   { return TokenInfoTag }
func (CounterpartQuery) Tag() string { return CounterpartTag }

func (BalanceQuery) queryMsg()     {}
func (AllowanceQuery) queryMsg()   {}
func (TokenInfoQuery) queryMsg()   {}
func (CounterpartQuery) queryMsg() {}

var queryVariants = map[string]variant[QueryMsg]{
	BalanceTag: {
		required: []string{"address"},
		decode:   decoder(func(m BalanceQuery) QueryMsg { return m }),
	},
	AllowanceTag: {
		required: []string{"owner", "spender"},
		decode:   decoder(func(m AllowanceQuery) QueryMsg { return m }),
	},
	TokenInfoTag: {
		decode: decoder(func(m TokenInfoQuery) QueryMsg { return m }),
	},
	CounterpartTag: {
		decode: decoder(func(m CounterpartQuery) QueryMsg { return m }),
	},
}

// ParseQueryMsg decodes query message.
func ParseQueryMsg(data []byte) (QueryMsg, error) {
	return parseVariant("QueryMsg", queryVariants, data)
}

// Query responses.
type (
	BalanceResponse struct {
		Balance Uint128 `json:"balance"`
	}

	AllowanceResponse struct {
		Allowance Uint128 `json:"allowance"`
	}

	TokenInfoResponse struct {
		Name        string  `json:"name"`
		Symbol      string  `json:"symbol"`
		Decimals    uint8   `json:"decimals"`
		TotalSupply Uint128 `json:"total_supply"`
	}

	// CounterpartResponse has null counterpart if the contract isn't
	// initialized yet.
	CounterpartResponse struct {
		Counterpart *string `json:"counterpart"`
	}
)

// Marshal encodes message in the tagged JSON form, e.g.
// {"send_to_evm":{"recipient":"0x...","amount":"10"}}.
func Marshal(msg interface{ Tag() string }) ([]byte, error) {
	return json.Marshal(map[string]any{msg.Tag(): msg})
}

func parseVariant[T any](typ string, variants map[string]variant[T], data []byte) (T, error) {
	var zero T

	if !gjson.ValidBytes(data) {
		return zero, common.Revertf(common.ErrUnknownMessage, "Error parsing into type %s: invalid JSON", typ)
	}

	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return zero, common.Revertf(common.ErrUnknownMessage, "Error parsing into type %s: expected an object", typ)
	}

	var (
		tag  string
		body gjson.Result
		n    int
	)
	root.ForEach(func(k, v gjson.Result) bool {
		tag, body = k.String(), v
		n++
		return true
	})
	if n != 1 {
		return zero, common.Revertf(common.ErrUnknownMessage, "Error parsing into type %s: expected exactly one variant, got %d", typ, n)
	}

	v, ok := variants[tag]
	if !ok {
		return zero, common.Revertf(common.ErrUnknownMessage, "Error parsing into type %s: unknown variant `%s`", typ, tag)
	}
	if !body.IsObject() {
		return zero, common.Revertf(common.ErrUnknownMessage, "Error parsing into type %s: variant `%s` must be an object", typ, tag)
	}

	for _, f := range v.required {
		if fv := body.Get(f); !fv.Exists() || fv.Type == gjson.Null {
			return zero, common.Revertf(common.ErrMissingField, "Error parsing into type %s: missing field `%s`", typ, f)
		}
	}

	msg, err := v.decode([]byte(body.Raw))
	if err != nil {
		return zero, common.Wrapf(common.ErrUnknownMessage, err, "Error parsing into type %s: %v", typ, err)
	}
	return msg, nil
}
