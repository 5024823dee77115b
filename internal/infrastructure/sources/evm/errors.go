package evm

import "errors"

var (
	ErrRPCURLRequired    = errors.New("rpc_url is required")
	ErrClientNotAttached = errors.New("no RPC client attached")
	ErrZeroAddress       = errors.New("source address is zero")
)
