// Package errs collects the sentinel errors that make up the node's error
// taxonomy. Fatal errors (EnvMissing, BindFailed, ListenFailed) are meant to
// terminate the process; the rest are transient and never propagate past the
// component boundary that produces them.
package errs

import "errors"

var (
	// ErrEnvMissing is returned when a required environment value is absent
	// at startup. Fatal.
	ErrEnvMissing = errors.New("required environment value missing")
	// ErrBindFailed is returned when the listener cannot bind its address. Fatal.
	ErrBindFailed = errors.New("bind failed")
	// ErrListenFailed is returned when the listener cannot start listening. Fatal.
	ErrListenFailed = errors.New("listen failed")
	// ErrAcceptFailed marks a transient accept() failure; the acceptor loop continues.
	ErrAcceptFailed = errors.New("accept failed")
	// ErrSendFailed marks a transient write failure to a peer.
	ErrSendFailed = errors.New("send failed")
	// ErrConnectFailed marks a transient outbound connect failure.
	ErrConnectFailed = errors.New("connect failed")
	// ErrDecodeFailed marks an unparseable wire line; the connection stays open.
	ErrDecodeFailed = errors.New("decode failed")
	// ErrRegistryFull is returned by Upsert when the registry is at capacity
	// and the transport is not already present.
	ErrRegistryFull = errors.New("registry full")
	// ErrCapacityExceeded is returned by Enqueue when the held store is full.
	ErrCapacityExceeded = errors.New("capacity exceeded")
)
