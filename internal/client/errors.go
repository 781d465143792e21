package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
)

// Failure kinds of remote operations. Match with errors.Is.
var (
	ErrNetwork           = errors.New("network failure")
	ErrSignatureRejected = errors.New("signature rejected")
	ErrAlreadyExists     = errors.New("remote account already exists")
	ErrAccountNotFound   = errors.New("remote account not found")
	ErrDeserialization   = errors.New("failed to deserialize remote account")
	ErrUnknownRemote     = errors.New("unknown remote error")
)

// ErrEmptyValue is returned by AppendEntry before any remote call when the value is empty.
var ErrEmptyValue = errors.New("entry value is empty")

// RemoteError is a classified failure of one remote operation
type RemoteError struct {
	Op   string
	Kind error
	Err  error
}

func (e *RemoteError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *RemoteError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func remoteError(op string, kind, err error) *RemoteError {
	return &RemoteError{Op: op, Kind: kind, Err: err}
}

// classify maps an RPC or transport error to a failure kind.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}

	var remote *RemoteError
	if errors.As(err, &remote) {
		return err
	}

	var rpcErr *jsonrpc.RPCError
	if errors.As(err, &rpcErr) {
		details := strings.ToLower(rpcErr.Message + " " + fmt.Sprint(rpcErr.Data))
		switch {
		case strings.Contains(details, "already in use"):
			return remoteError(op, ErrAlreadyExists, err)
		case strings.Contains(details, "signature verification"),
			strings.Contains(details, "missing signature"),
			strings.Contains(details, "signature failure"):
			return remoteError(op, ErrSignatureRejected, err)
		default:
			return remoteError(op, ErrUnknownRemote, err)
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return remoteError(op, ErrNetwork, err)
	}

	return remoteError(op, ErrUnknownRemote, err)
}
