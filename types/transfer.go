package types

type TransferResult struct {
	Success bool
	TxHash  string
	Nonce   uint64
	Err     TransferError

	// Reason is the node's rejection string, passed through unmodified. It is
	// written to the operational log only, never to API callers.
	Reason string
}

func NewTransferError(err TransferError, reason string) *TransferResult {
	return &TransferResult{
		Success: false,
		Err:     err,
		Reason:  reason,
	}
}
