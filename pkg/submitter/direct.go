package submitter

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/nomadprotocol/agents/pkg/chainadapter"
	"github.com/nomadprotocol/agents/pkg/types"
)

// TxClient is the subset of *ethclient.Client DirectSubmitter depends on.
// TransactionReceipt must return ErrReceiptNotFound (or wrap it) while a
// transaction is still pending, mirroring ethclient's ethereum.NotFound
// convention.
type TxClient interface {
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	ChainID(ctx context.Context) (*big.Int, error)
	SendTransaction(ctx context.Context, tx *ethtypes.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*ethtypes.Receipt, error)
}

// ErrReceiptNotFound is the sentinel a TxClient's TransactionReceipt
// returns (or wraps) while a transaction has not yet been mined.
var ErrReceiptNotFound = errors.New("submitter: receipt not found")

// DirectSubmitter signs transactions locally and submits them straight to
// the chain, polling for a mined receipt before resolving. Grounded on
// the original implementation's local-signing variant (TxSubmitter's
// SubmitterClient::Local arm).
type DirectSubmitter struct {
	Client TxClient
	Signer *ecdsa.PrivateKey

	// GasLimit is used for every submitted transaction; the submitter
	// does not estimate gas per call.
	GasLimit uint64

	// ConfirmPoll is how often the submitter checks for a receipt.
	ConfirmPoll time.Duration
	// ConfirmTimeout bounds how long the submitter waits for a
	// transaction to be mined before reporting ErrDroppedFromMempool.
	ConfirmTimeout time.Duration
}

func (d *DirectSubmitter) Submit(ctx context.Context, intent Intent) (chainadapter.TxOutcome, error) {
	from := crypto.PubkeyToAddress(d.Signer.PublicKey)

	nonce, err := d.Client.PendingNonceAt(ctx, from)
	if err != nil {
		return chainadapter.TxOutcome{}, &SubmissionFailedError{Cause: fmt.Errorf("nonce: %w", err)}
	}
	gasPrice, err := d.Client.SuggestGasPrice(ctx)
	if err != nil {
		return chainadapter.TxOutcome{}, &SubmissionFailedError{Cause: fmt.Errorf("gas price: %w", err)}
	}
	chainID, err := d.Client.ChainID(ctx)
	if err != nil {
		return chainadapter.TxOutcome{}, &SubmissionFailedError{Cause: fmt.Errorf("chain id: %w", err)}
	}

	to := common.Address(intent.ContractAddress)
	gasLimit := d.GasLimit
	if gasLimit == 0 {
		gasLimit = 1_000_000
	}
	tx := ethtypes.NewTx(&ethtypes.LegacyTx{
		Nonce:    nonce,
		To:       &to,
		Gas:      gasLimit,
		GasPrice: gasPrice,
		Data:     intent.Data,
	})
	signed, err := ethtypes.SignTx(tx, ethtypes.NewEIP155Signer(chainID), d.Signer)
	if err != nil {
		return chainadapter.TxOutcome{}, &SubmissionFailedError{Cause: fmt.Errorf("sign: %w", err)}
	}
	if err := d.Client.SendTransaction(ctx, signed); err != nil {
		return chainadapter.TxOutcome{}, &SubmissionFailedError{Cause: fmt.Errorf("broadcast: %w", err)}
	}

	txHash := signed.Hash()
	receipt, err := d.awaitReceipt(ctx, txHash)
	if err != nil {
		return chainadapter.TxOutcome{}, err
	}
	if receipt.Status == ethtypes.ReceiptStatusFailed {
		return chainadapter.TxOutcome{}, &RevertedError{TxID: types.Hash(txHash)}
	}
	return chainadapter.TxOutcome{TxID: types.Hash(txHash)}, nil
}

func (d *DirectSubmitter) awaitReceipt(ctx context.Context, txHash common.Hash) (*ethtypes.Receipt, error) {
	poll := d.ConfirmPoll
	if poll <= 0 {
		poll = time.Second
	}
	timeout := d.ConfirmTimeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}

	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		receipt, err := d.Client.TransactionReceipt(ctx, txHash)
		if err == nil {
			return receipt, nil
		}
		if !errors.Is(err, ErrReceiptNotFound) {
			return nil, &SubmissionFailedError{Cause: fmt.Errorf("fetch receipt: %w", err)}
		}

		if time.Now().After(deadline) {
			return nil, ErrDroppedFromMempool
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
