package types

type TransferError int

const (
	ErrNone TransferError = iota // no error
	ErrInvalidAddress
	ErrInsufficientBalance
	ErrNodeRead
	ErrSigning
	ErrBroadcastRejected
)

func (e TransferError) String() string {
	switch e {
	case ErrNone:
		return "none"
	case ErrInvalidAddress:
		return "invalid_address"
	case ErrInsufficientBalance:
		return "insufficient_balance"
	case ErrNodeRead:
		return "node_read_failure"
	case ErrSigning:
		return "signing_failure"
	case ErrBroadcastRejected:
		return "broadcast_rejected"
	}

	return "unknown"
}
