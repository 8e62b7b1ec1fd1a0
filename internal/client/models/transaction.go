package models

import "encoding/json"

// EntryFunctionPayload is the body of an entry function call or a view
// request. Arguments are JSON-encoded Move values.
type EntryFunctionPayload struct {
	Function      string   `json:"function"`
	TypeArguments []string `json:"type_arguments"`
	Arguments     []any    `json:"arguments"`
}

// PendingTransaction is the node's answer to a submission.
type PendingTransaction struct {
	Hash string `json:"hash"`
}

// Transaction type tags reported by the node.
const (
	TxTypePending = "pending_transaction"
	TxTypeUser    = "user_transaction"
)

// Transaction is the subset of a node transaction the client inspects.
type Transaction struct {
	Type     string `json:"type"`
	Hash     string `json:"hash"`
	Version  string `json:"version,omitempty"`
	Success  bool   `json:"success"`
	VMStatus string `json:"vm_status"`
}

// Committed reports whether the transaction left the mempool.
func (t *Transaction) Committed() bool {
	return t != nil && t.Type != "" && t.Type != TxTypePending
}

// SignedTransaction is what the keyless signer posts to the node.
type SignedTransaction struct {
	Sender                  string               `json:"sender"`
	SequenceNumber          U64                  `json:"sequence_number"`
	MaxGasAmount            U64                  `json:"max_gas_amount"`
	GasUnitPrice            U64                  `json:"gas_unit_price"`
	ExpirationTimestampSecs U64                  `json:"expiration_timestamp_secs"`
	Payload                 EntryFunctionPayload `json:"payload"`
	Signature               KeylessSignature     `json:"signature"`
}

// KeylessSignature carries the ephemeral signature together with the
// material the chain needs to check it against the identity token.
type KeylessSignature struct {
	Type               string          `json:"type"`
	EphemeralPublicKey string          `json:"ephemeral_public_key"`
	Signature          string          `json:"signature"`
	ExpiryDateSecs     U64             `json:"expiry_date_secs"`
	Proof              json.RawMessage `json:"proof,omitempty"`
	IDToken            string          `json:"jwt,omitempty"`
}

// Operation names a mutating vault call.
type Operation string

const (
	OpDeposit  Operation = "deposit"
	OpWithdraw Operation = "withdraw"
	OpHarvest  Operation = "harvest"
)

// OpState is a step of a vault operation.
type OpState int

const (
	StateIdle OpState = iota
	StateValidating
	StateSubmitted
	StateConfirming
	StateSucceeded
	StateFailed
)

func (s OpState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateValidating:
		return "validating"
	case StateSubmitted:
		return "submitted"
	case StateConfirming:
		return "confirming"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// TxResult is returned by a completed vault operation.
type TxResult struct {
	Hash      string
	Operation Operation
	State     OpState
	VMStatus  string
}
