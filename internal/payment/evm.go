package payment

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/google/uuid"
)

const erc20ABI = `[
	{"constant":true,"inputs":[{"name":"owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"type":"function"},
	{"constant":false,"inputs":[{"name":"to","type":"address"},{"name":"value","type":"uint256"}],"name":"transfer","outputs":[{"name":"","type":"bool"}],"type":"function"},
	{"constant":true,"inputs":[],"name":"decimals","outputs":[{"name":"","type":"uint8"}],"type":"function"}
]`

// ChainClient is the subset of ethclient.Client used by EVM.
type ChainClient interface {
	bind.DeployBackend
	ChainID(ctx context.Context) (*big.Int, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
}

// EVMConfig configures an ERC-20 transfer payment.
type EVMConfig struct {
	RPCURL        string
	ChainID       int64
	TokenAddress  string
	TokenSymbol   string
	Decimals      int
	Receiver      string
	Price         string
	PrivateKeyHex string
	Timeout       time.Duration
}

// EVM pays by transferring ERC-20 tokens from a local key to the receiver.
type EVM struct {
	cfg      EVMConfig
	token    common.Address
	receiver common.Address
	amount   *big.Int
	key      *ecdsa.PrivateKey
	from     common.Address
	abi      abi.ABI

	mu     sync.Mutex
	client ChainClient
	clock  clock.Clock
}

var _ ChainClient = (*ethclient.Client)(nil)

// EVMOption configures an EVM provider.
type EVMOption func(*EVM)

// WithChainClient uses an existing client instead of dialing RPCURL.
func WithChainClient(c ChainClient) EVMOption {
	return func(p *EVM) { p.client = c }
}

// WithEVMClock sets the clock used for receipt timestamps.
func WithEVMClock(c clock.Clock) EVMOption {
	return func(p *EVM) { p.clock = c }
}

// NewEVM validates the configuration and creates the provider.
func NewEVM(cfg EVMConfig, opts ...EVMOption) (*EVM, error) {
	if cfg.PrivateKeyHex == "" {
		return nil, fmt.Errorf("%w: no payer key", ErrNotConfigured)
	}
	if !common.IsHexAddress(cfg.TokenAddress) {
		return nil, fmt.Errorf("%w: invalid token address %q", ErrNotConfigured, cfg.TokenAddress)
	}
	if !common.IsHexAddress(cfg.Receiver) {
		return nil, fmt.Errorf("%w: invalid receiver address %q", ErrNotConfigured, cfg.Receiver)
	}

	amount, err := ParseUnits(cfg.Price, cfg.Decimals)
	if err != nil {
		return nil, err
	}

	key, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.PrivateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid payer key: %v", ErrNotConfigured, err)
	}

	parsed, err := abi.JSON(strings.NewReader(erc20ABI))
	if err != nil {
		return nil, fmt.Errorf("payment: parse erc20 abi: %w", err)
	}

	p := &EVM{
		cfg:      cfg,
		token:    common.HexToAddress(cfg.TokenAddress),
		receiver: common.HexToAddress(cfg.Receiver),
		amount:   amount,
		key:      key,
		from:     crypto.PubkeyToAddress(key.PublicKey),
		abi:      parsed,
		clock:    clock.New(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Name returns "evm".
func (p *EVM) Name() string { return "evm" }

// From returns the payer address.
func (p *EVM) From() common.Address { return p.from }

func (p *EVM) dial(ctx context.Context) (ChainClient, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.client != nil {
		return p.client, nil
	}
	c, err := ethclient.DialContext(ctx, p.cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("payment: dial %s: %w", p.cfg.RPCURL, err)
	}
	p.client = c
	return c, nil
}

// Balance returns the payer's token balance in base units.
func (p *EVM) Balance(ctx context.Context) (*big.Int, error) {
	client, err := p.dial(ctx)
	if err != nil {
		return nil, err
	}
	return p.balanceOf(ctx, client, p.from)
}

func (p *EVM) balanceOf(ctx context.Context, client ChainClient, owner common.Address) (*big.Int, error) {
	data, err := p.abi.Pack("balanceOf", owner)
	if err != nil {
		return nil, fmt.Errorf("payment: pack balanceOf: %w", err)
	}
	out, err := client.CallContract(ctx, ethereum.CallMsg{To: &p.token, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("payment: call balanceOf: %w", err)
	}
	values, err := p.abi.Unpack("balanceOf", out)
	if err != nil {
		return nil, fmt.Errorf("payment: unpack balanceOf: %w", err)
	}
	balance, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("payment: unexpected balanceOf result %T", values[0])
	}
	return balance, nil
}

// RequestPayment checks the network and balance, sends the transfer and
// waits for it to be mined.
func (p *EVM) RequestPayment(ctx context.Context, req Request) (Receipt, error) {
	if p.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.Timeout)
		defer cancel()
	}

	client, err := p.dial(ctx)
	if err != nil {
		return Receipt{}, err
	}

	chainID, err := client.ChainID(ctx)
	if err != nil {
		return Receipt{}, fmt.Errorf("payment: chain id: %w", err)
	}
	if chainID.Cmp(big.NewInt(p.cfg.ChainID)) != 0 {
		return Receipt{}, fmt.Errorf("%w: connected to %s, expected %d", ErrWrongChain, chainID, p.cfg.ChainID)
	}

	balance, err := p.balanceOf(ctx, client, p.from)
	if err != nil {
		return Receipt{}, err
	}
	if balance.Cmp(p.amount) < 0 {
		return Receipt{}, fmt.Errorf("%w: have %s %s, need %s", ErrInsufficientFunds,
			FormatUnits(balance, p.cfg.Decimals), p.cfg.TokenSymbol, p.cfg.Price)
	}

	data, err := p.abi.Pack("transfer", p.receiver, p.amount)
	if err != nil {
		return Receipt{}, fmt.Errorf("payment: pack transfer: %w", err)
	}

	nonce, err := client.PendingNonceAt(ctx, p.from)
	if err != nil {
		return Receipt{}, fmt.Errorf("payment: nonce: %w", err)
	}
	gasPrice, err := client.SuggestGasPrice(ctx)
	if err != nil {
		return Receipt{}, fmt.Errorf("payment: gas price: %w", err)
	}
	gas, err := client.EstimateGas(ctx, ethereum.CallMsg{From: p.from, To: &p.token, Data: data})
	if err != nil {
		return Receipt{}, fmt.Errorf("payment: estimate gas: %w", err)
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &p.token,
		Value:    big.NewInt(0),
		Gas:      gas,
		GasPrice: gasPrice,
		Data:     data,
	})
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(chainID), p.key)
	if err != nil {
		return Receipt{}, fmt.Errorf("payment: sign: %w", err)
	}
	if err := client.SendTransaction(ctx, signed); err != nil {
		return Receipt{}, fmt.Errorf("payment: send: %w", err)
	}

	mined, err := bind.WaitMined(ctx, client, signed)
	if err != nil {
		return Receipt{}, fmt.Errorf("payment: wait for %s: %w", signed.Hash().Hex(), err)
	}
	if mined.Status != types.ReceiptStatusSuccessful {
		return Receipt{}, fmt.Errorf("%w: %s reverted", ErrTxFailed, signed.Hash().Hex())
	}

	return Receipt{
		ID:       uuid.NewString(),
		Provider: p.Name(),
		PlayerID: req.PlayerID,
		Level:    req.Level,
		TxHash:   signed.Hash().Hex(),
		Amount:   p.cfg.Price,
		Token:    p.cfg.TokenSymbol,
		ChainID:  p.cfg.ChainID,
		PaidAt:   p.clock.Now(),
	}, nil
}
