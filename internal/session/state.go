package session

import (
	"errors"
	"slices"

	"github.com/AlexZinkM/emotes-portal/internal/client"
	"github.com/AlexZinkM/emotes-portal/internal/wallet"
)

// Phase is the wallet side of the controller state machine
type Phase string

const (
	PhaseUnknown        Phase = "unknown"
	PhaseNoWallet       Phase = "no_wallet"
	PhaseWalletDetected Phase = "wallet_detected"
	PhaseUntrusted      Phase = "untrusted"
	PhaseConnected      Phase = "connected"
)

// ListStatus is the state of the remote list while connected
type ListStatus string

const (
	ListIdle        ListStatus = "idle"
	ListLoading     ListStatus = "loading"
	ListReady       ListStatus = "ready"
	ListUnavailable ListStatus = "unavailable"
)

// ListSource tells where the current gif list came from. Sources are never mixed.
type ListSource string

const (
	SourceFixture ListSource = "fixture"
	SourceRemote  ListSource = "remote"
	SourceNone    ListSource = "none"
)

// FailureKind classifies a failure surfaced to the presentation layer
type FailureKind string

const (
	FailureProviderAbsent    FailureKind = "provider_absent"
	FailureConnectRejected   FailureKind = "connect_rejected"
	FailureWalletFault       FailureKind = "wallet_fault"
	FailureNotConnected      FailureKind = "not_connected"
	FailureNetwork           FailureKind = "network_failure"
	FailureAccountNotFound   FailureKind = "account_not_found"
	FailureAlreadyExists     FailureKind = "remote_already_exists"
	FailureDeserialization   FailureKind = "deserialization_failure"
	FailureSignatureRejected FailureKind = "signature_rejected"
	FailureValidation        FailureKind = "validation_failure"
	FailureUnknown           FailureKind = "unknown_remote_error"
)

// ErrValidation is returned when a submission is rejected before any remote call.
var ErrValidation = errors.New("validation failure")

// Failure is the last failure caught by the controller
type Failure struct {
	Op   string
	Kind FailureKind
	Err  error
}

// State is a snapshot of everything the presentation layer may read
type State struct {
	Phase      Phase
	Wallet     wallet.Session
	ListStatus ListStatus
	ListSource ListSource
	Gifs       []string
	Input      string
	Failure    *Failure
}

func (s State) clone() State {
	out := s
	out.Gifs = slices.Clone(s.Gifs)
	if s.Wallet.PublicKey != nil {
		pk := *s.Wallet.PublicKey
		out.Wallet.PublicKey = &pk
	}
	if s.Failure != nil {
		f := *s.Failure
		out.Failure = &f
	}
	return out
}

// KindOf classifies err into a FailureKind.
func KindOf(err error) FailureKind {
	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, client.ErrEmptyValue):
		return FailureValidation
	case errors.Is(err, wallet.ErrProviderAbsent):
		return FailureProviderAbsent
	case errors.Is(err, wallet.ErrConnectRejected):
		return FailureConnectRejected
	case errors.Is(err, wallet.ErrNotConnected):
		return FailureNotConnected
	case errors.Is(err, client.ErrNetwork):
		return FailureNetwork
	case errors.Is(err, client.ErrAccountNotFound):
		return FailureAccountNotFound
	case errors.Is(err, client.ErrAlreadyExists):
		return FailureAlreadyExists
	case errors.Is(err, client.ErrDeserialization):
		return FailureDeserialization
	case errors.Is(err, client.ErrSignatureRejected):
		return FailureSignatureRejected
	default:
		return FailureUnknown
	}
}

// TestGifs is the static fixture shown before any remote state exists.
var TestGifs = []string{
	"https://c.tenor.com/hgj5jJzYhIwAAAAd/modcheck.gif",
	"https://c.tenor.com/bCWhbbjF8dwAAAAM/poggers-pepe.gif",
	"https://c.tenor.com/HrfZSnO19zYAAAAi/jojo-dance.gif",
	"https://c.tenor.com/RMZBNNK3u90AAAAC/poggers-pepe.gif",
	"https://c.tenor.com/z0zQqT5iujUAAAAi/pepe-pls.gif",
	"https://c.tenor.com/OmkN64qYnMkAAAAM/pepe-the-frog-trippy.gif",
}
