/*
Origin contract is a token contract deployed in the account ledger (ledger A).

Origin contract is an ERC20-like fungible token. Besides regular token
operations it is one half of the bridge: tokens sent to the other ledger are
burned here, tokens coming back are minted here by the paired destination
contract only. Destination contract is registered once with initialize method
invoked by the contract owner.

Contract notifications

Transfer notification. It's produced on every balance change, mint has null
from field and burn has null to field.

  Transfer:
    - name: from
      type: Hash160
    - name: to
      type: Hash160
    - name: amount
      type: Integer

TransferX notification. This is enhanced transfer notification produced by
bridge operations. Details are prefixed with 0x01 for mints and with 0x02 for
burns.

  TransferX:
    - name: from
      type: Hash160
    - name: to
      type: Hash160
    - name: amount
      type: Integer
    - name: details
      type: ByteArray

Approval notification. It's produced when allowance is set.

  Approval:
    - name: owner
      type: Hash160
    - name: spender
      type: Hash160
    - name: amount
      type: Integer

SendToOtherLedger notification. It's produced after tokens are burned for the
other ledger, recipient is the bech32 address there. Relayer catches the
notification and mints the same amount with the destination contract.

  SendToOtherLedger:
    - name: from
      type: Hash160
    - name: recipient
      type: String
    - name: amount
      type: Integer

ReceiveFromOtherLedger notification. It's produced after tokens are minted on
the destination contract request.

  ReceiveFromOtherLedger:
    - name: to
      type: Hash160
    - name: amount
      type: Integer
*/
package origin
