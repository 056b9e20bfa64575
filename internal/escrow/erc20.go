/**
 * @description
 * ERC-20 EscrowGateway adapter.
 * Moves the settlement asset on-chain: deposits are pulled from players via
 * transferFrom (players pre-approve the treasury operator), payouts are sent
 * from the treasury via transfer. Every call is synchronous — the adapter
 * waits for the receipt and reports a failed or reverted transaction as an
 * error, so the engine can roll back its ledger transaction.
 *
 * @dependencies
 * - github.com/ethereum/go-ethereum: ethclient, ABI packing, tx signing
 * - backend/internal/config
 */

package escrow

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/google/uuid"
	"github.com/pricebet-project/backend/internal/config"
	"github.com/pricebet-project/backend/internal/logger"
)

const erc20TransferABI = `[
  {"constant":false,"inputs":[{"name":"_to","type":"address"},{"name":"_value","type":"uint256"}],"name":"transfer","outputs":[{"name":"","type":"bool"}],"type":"function"},
  {"constant":false,"inputs":[{"name":"_from","type":"address"},{"name":"_to","type":"address"},{"name":"_value","type":"uint256"}],"name":"transferFrom","outputs":[{"name":"","type":"bool"}],"type":"function"}
]`

const (
	receiptPollInterval = 2 * time.Second
	receiptTimeout      = 90 * time.Second
)

// ERC20 is the production escrow adapter.
type ERC20 struct {
	client   *ethclient.Client
	token    common.Address
	treasury common.Address
	operator *ecdsa.PrivateKey
	chainID  *big.Int
	abi      abi.ABI
}

// NewERC20 dials the chain RPC and prepares the transfer ABI. token is the
// settlement-asset contract address (CoreConfig.PayingAsset).
func NewERC20(cfg *config.Config, token string) (*ERC20, error) {
	rpcURL := strings.TrimSpace(cfg.Chain.RPCURL)
	if rpcURL == "" {
		return nil, fmt.Errorf("CHAIN_RPC_URL is required for the escrow adapter")
	}

	client, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to chain RPC: %w", err)
	}

	key, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.Chain.OperatorKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid treasury operator key: %w", err)
	}

	parsedABI, err := abi.JSON(strings.NewReader(erc20TransferABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ERC20 ABI: %w", err)
	}

	return &ERC20{
		client:   client,
		token:    common.HexToAddress(token),
		treasury: common.HexToAddress(cfg.Chain.TreasuryAddress),
		operator: key,
		chainID:  big.NewInt(cfg.Chain.ChainID),
		abi:      parsedABI,
	}, nil
}

// Transfer moves amount smallest units from one account to another.
func (e *ERC20) Transfer(ctx context.Context, from, to string, amount uint64) error {
	if amount == 0 {
		return nil
	}

	fromAddr := common.HexToAddress(from)
	toAddr := common.HexToAddress(to)
	if toAddr == (common.Address{}) {
		return fmt.Errorf("invalid destination address: %s", to)
	}
	value := new(big.Int).SetUint64(amount)

	var data []byte
	var err error
	if fromAddr == e.treasury {
		data, err = e.abi.Pack("transfer", toAddr, value)
	} else {
		// Deposits: the operator pulls pre-approved funds from the player.
		data, err = e.abi.Pack("transferFrom", fromAddr, toAddr, value)
	}
	if err != nil {
		return fmt.Errorf("failed to pack transfer call: %w", err)
	}

	ref := uuid.NewString()
	logger.Info("Escrow transfer %s: %d units %s -> %s", ref, amount, from, to)

	signedTx, err := e.signAndSend(ctx, data)
	if err != nil {
		return fmt.Errorf("transfer %s failed to send: %w", ref, err)
	}

	if err := e.waitMined(ctx, signedTx.Hash()); err != nil {
		return fmt.Errorf("transfer %s not confirmed: %w", ref, err)
	}

	logger.Info("✅ Escrow transfer %s confirmed: %s", ref, signedTx.Hash().Hex())
	return nil
}

func (e *ERC20) signAndSend(ctx context.Context, data []byte) (*types.Transaction, error) {
	operatorAddr := crypto.PubkeyToAddress(e.operator.PublicKey)

	nonce, err := e.client.PendingNonceAt(ctx, operatorAddr)
	if err != nil {
		return nil, fmt.Errorf("fetching nonce: %w", err)
	}

	gasPrice, err := e.client.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching gas price: %w", err)
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &e.token,
		Value:    big.NewInt(0),
		Gas:      120_000, // plain ERC-20 transfer ceiling
		GasPrice: gasPrice,
		Data:     data,
	})

	signedTx, err := types.SignTx(tx, types.NewEIP155Signer(e.chainID), e.operator)
	if err != nil {
		return nil, fmt.Errorf("signing transaction: %w", err)
	}

	if err := e.client.SendTransaction(ctx, signedTx); err != nil {
		return nil, fmt.Errorf("broadcasting transaction: %w", err)
	}
	return signedTx, nil
}

func (e *ERC20) waitMined(ctx context.Context, hash common.Hash) error {
	ctx, cancel := context.WithTimeout(ctx, receiptTimeout)
	defer cancel()

	ticker := time.NewTicker(receiptPollInterval)
	defer ticker.Stop()

	for {
		receipt, err := e.client.TransactionReceipt(ctx, hash)
		if err == nil {
			if receipt.Status != types.ReceiptStatusSuccessful {
				return fmt.Errorf("transaction %s reverted", hash.Hex())
			}
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("timed out waiting for %s: %w", hash.Hex(), ctx.Err())
		case <-ticker.C:
		}
	}
}
