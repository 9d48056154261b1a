package chain

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"

	"ovmscope/internal/errs"
)

const (
	DefaultTimeout = 15 * time.Second
	DefaultRetries = 3
	retryDelay     = 500 * time.Millisecond
)

// Options tunes the transport policy.
type Options struct {
	Timeout time.Duration
	Retries uint
	Logger  *zap.Logger
}

// Client wraps go-ethereum RPC and owns retry and timeout policy.
type Client struct {
	rpcClient *rpc.Client
	ethClient *ethclient.Client

	timeout time.Duration
	retries uint
	logger  *zap.Logger
}

// NewClient creates a new chain client from the RPC URL.
func NewClient(ctx context.Context, rpcURL string, opts Options) (*Client, error) {
	rpcClient, err := rpc.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, errs.New(errs.KindTransport, "dial rpc", err)
	}

	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Retries == 0 {
		opts.Retries = DefaultRetries
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	return &Client{
		rpcClient: rpcClient,
		ethClient: ethclient.NewClient(rpcClient),
		timeout:   opts.Timeout,
		retries:   opts.Retries,
		logger:    opts.Logger,
	}, nil
}

// Close closes the underlying RPC client.
func (c *Client) Close() {
	if c.rpcClient != nil {
		c.rpcClient.Close()
	}
}

// GetChainID returns the chain ID.
func (c *Client) GetChainID(ctx context.Context) (*big.Int, error) {
	var id *big.Int
	err := c.do(ctx, "eth_chainId", func(ctx context.Context) error {
		var err error
		id, err = c.ethClient.ChainID(ctx)
		return err
	})
	return id, err
}

// LatestBlockNumber returns the latest block number.
func (c *Client) LatestBlockNumber(ctx context.Context) (uint64, error) {
	var n uint64
	err := c.do(ctx, "eth_blockNumber", func(ctx context.Context) error {
		var err error
		n, err = c.ethClient.BlockNumber(ctx)
		return err
	})
	return n, err
}

// FilterLogs returns logs in the given range for addresses and topic0 filters.
func (c *Client) FilterLogs(
	ctx context.Context,
	fromBlock uint64,
	toBlock uint64,
	addresses []common.Address,
	topic0 []common.Hash,
) ([]types.Log, error) {
	query := ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(fromBlock),
		ToBlock:   new(big.Int).SetUint64(toBlock),
		Addresses: addresses,
	}
	if len(topic0) > 0 {
		query.Topics = [][]common.Hash{topic0}
	}

	var logs []types.Log
	err := c.do(ctx, "eth_getLogs", func(ctx context.Context) error {
		var err error
		logs, err = c.ethClient.FilterLogs(ctx, query)
		return err
	})
	return logs, err
}

// CallContract performs an eth_call for a contract method.
func (c *Client) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	var out []byte
	err := c.do(ctx, "eth_call", func(ctx context.Context) error {
		var err error
		out, err = c.ethClient.CallContract(ctx, msg, blockNumber)
		return err
	})
	return out, err
}

// BalanceAt returns the native balance in wei.
func (c *Client) BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error) {
	var bal *big.Int
	err := c.do(ctx, "eth_getBalance", func(ctx context.Context) error {
		var err error
		bal, err = c.ethClient.BalanceAt(ctx, account, blockNumber)
		return err
	})
	return bal, err
}

func (c *Client) do(ctx context.Context, op string, fn func(context.Context) error) error {
	err := retry.Do(
		func() error {
			callCtx, cancel := context.WithTimeout(ctx, c.timeout)
			defer cancel()
			return classify(op, fn(callCtx))
		},
		retry.Context(ctx),
		retry.Attempts(c.retries),
		retry.Delay(retryDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(retryable),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Warn("rpc call failed, retrying", zap.String("op", op), zap.Uint("attempt", n+1), zap.Error(err))
		}),
	)
	if err != nil && errs.KindOf(err) == errs.KindUnknown {
		return errs.New(errs.KindTransport, op, err)
	}
	return err
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	switch errs.KindOf(err) {
	case errs.KindRevert, errs.KindRangeTooLarge:
		return false
	default:
		return true
	}
}

var rangeLimitMarkers = []string{
	"block range",
	"range too large",
	"range is too large",
	"query returned more than",
	"exceed maximum block range",
	"logs matched by query exceeds",
	"limit exceeded",
}

func classify(op string, err error) error {
	if err == nil {
		return nil
	}

	var dataErr rpc.DataError
	if errors.As(err, &dataErr) && dataErr.ErrorData() != nil {
		return errs.New(errs.KindRevert, op, err)
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "execution reverted") {
		return errs.New(errs.KindRevert, op, err)
	}
	for _, marker := range rangeLimitMarkers {
		if strings.Contains(msg, marker) {
			return errs.New(errs.KindRangeTooLarge, op, err)
		}
	}
	return errs.New(errs.KindTransport, op, err)
}
