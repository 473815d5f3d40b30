/*
Destination contract is a token contract deployed in the message-based ledger
(ledger B).

Destination contract is a CW20-like fungible token driven by JSON messages:
instantiate message on deployment, execute messages for state changes and
query messages for reads. Accounts are bech32 addresses with the ledger
prefix. Tokens sent to the origin ledger are burned here with send_to_evm
message, tokens coming from there are minted with mint_c_w20 message that is
accepted only from the origin contract registered with initialize message.

Execute messages

	{"initialize": {"counterpart": "0x..."}}
	{"transfer": {"recipient": "ex1...", "amount": "10"}}
	{"transfer_from": {"owner": "ex1...", "recipient": "ex1...", "amount": "10"}}
	{"approve": {"spender": "ex1...", "amount": "10"}}
	{"burn": {"amount": "10"}}
	{"send_to_evm": {"recipient": "0x...", "amount": "10"}}
	{"mint_c_w20": {"recipient": "ex1...", "amount": "10"}}

Query messages

	{"balance": {"address": "ex1..."}}
	{"allowance": {"owner": "ex1...", "spender": "ex1..."}}
	{"token_info": {}}
	{"counterpart": {}}

Contract notifications

All addresses are strings, amounts are integers.

	transfer:
	  - from, to, amount
	approve:
	  - owner, spender, amount
	burn:
	  - account, amount
	mint:
	  - account, sender, amount, details
	send_to_evm:
	  - sender, recipient (0x-hex), amount, counterpart (0x-hex)

send_to_evm notification is caught by the relayer that mints the same amount
with the origin contract.
*/
package destination
