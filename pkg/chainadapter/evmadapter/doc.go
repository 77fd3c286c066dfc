// Package evmadapter implements the chainadapter interfaces against any
// chain exposing an EVM-style JSON-RPC surface, using go-ethereum's
// ethclient-shaped client and its accounts/abi helpers to pack calls and
// decode logs.
//
// The concrete contract ABI (exact method and event signatures) is supplied
// by configuration, not hardcoded here: this package only fixes the
// semantic names (state, updater, committedRoot, dispatch, update, process,
// ...) that chainadapter's interfaces require, leaving their precise Solidity
// signatures — and therefore the wire encoding on the chain itself — out of
// scope. That wire encoding is an explicit non-goal of this adapter.
package evmadapter
