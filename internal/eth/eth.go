package eth

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"slices"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/sirupsen/logrus"

	"github.com/hedisam/pipeline/chans"
)

const (
	// MaxBlocksPerPoll caps how many blocks Stream fetches per poll tick while catching up.
	MaxBlocksPerPoll = 200
)

var (
	// ErrNotFound is returned when we request a block that hasn't been minted yet
	ErrNotFound = errors.New("block is not minted")
	// ErrNoEndpoints is returned when a client is built without any RPC endpoint.
	ErrNoEndpoints = errors.New("no rpc endpoints configured")
)

// Backend is a JSON-RPC connection to a single node. *rpc.Client satisfies it.
type Backend interface {
	CallContext(ctx context.Context, result any, method string, args ...any) error
}

type endpoint struct {
	name    string
	backend Backend
}

// Client talks to one chain through one or more RPC endpoints, failing over between them in
// the configured order.
type Client struct {
	logger    *logrus.Logger
	chain     string
	endpoints []endpoint
}

// Dial connects to every url. Connecting is lazy for HTTP endpoints, so Dial only fails on
// malformed urls or unreachable websocket endpoints.
func Dial(ctx context.Context, logger *logrus.Logger, chain string, urls []string) (*Client, error) {
	if len(urls) == 0 {
		return nil, ErrNoEndpoints
	}

	c := &Client{
		logger: logger,
		chain:  chain,
	}
	for i, url := range urls {
		rpcClient, err := rpc.DialContext(ctx, url)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("dial rpc endpoint #%d of chain %q: %w", i, chain, err)
		}
		c.endpoints = append(c.endpoints, endpoint{
			name:    fmt.Sprintf("%s#%d", chain, i),
			backend: rpcClient,
		})
	}

	return c, nil
}

// New builds a client over already established backends.
func New(logger *logrus.Logger, chain string, backends ...Backend) *Client {
	c := &Client{
		logger: logger,
		chain:  chain,
	}
	for i, b := range backends {
		c.endpoints = append(c.endpoints, endpoint{
			name:    fmt.Sprintf("%s#%d", chain, i),
			backend: b,
		})
	}
	return c
}

func (c *Client) Chain() string {
	return c.chain
}

// Close closes the endpoints that hold a connection.
func (c *Client) Close() {
	for ep := range slices.Values(c.endpoints) {
		if closer, ok := ep.backend.(interface{ Close() }); ok {
			closer.Close()
		}
	}
}

// Stream polls the chain every pollTick and sends every block header in sequence, starting at
// fromBlock. A negative fromBlock starts at the chain head. The returned channel is closed once
// ctx is done.
func (c *Client) Stream(ctx context.Context, pollTick time.Duration, fromBlock int64) <-chan *Block {
	out := make(chan *Block)

	go func() {
		defer close(out)

		t := time.NewTicker(pollTick)
		defer t.Stop()

		next := fromBlock
		for range chans.ReceiveOrDoneSeq(ctx, t.C) {
			latest, err := c.BlockNumber(ctx)
			if err != nil {
				c.logger.WithField("chain", c.chain).WithError(err).Error("Failed to get latest block number")
				failedBlockRetrievals.WithLabelValues(c.chain).Inc()
				continue
			}
			if next < 0 {
				next = int64(latest)
			}
			if uint64(next) > latest {
				c.logger.WithFields(logrus.Fields{
					"chain":  c.chain,
					"latest": latest,
				}).Debug("No new block yet")
				continue
			}

			for range MaxBlocksPerPoll {
				if uint64(next) > latest {
					break
				}
				block, err := c.BlockByNumber(ctx, uint64(next))
				if err != nil {
					if !errors.Is(err, ErrNotFound) {
						c.logger.WithField("chain", c.chain).WithError(err).Error("Failed to get block by number")
						failedBlockRetrievals.WithLabelValues(c.chain).Inc()
					}
					break
				}

				c.logger.WithFields(logrus.Fields{
					"chain":  c.chain,
					"number": block.Number,
					"hash":   block.Hash,
				}).Debug("Received block")
				if !chans.SendOrDone(ctx, out, block) {
					return
				}
				next = int64(block.Number) + 1
				retrievedBlocks.WithLabelValues(c.chain).Inc()
			}
		}
	}()

	return out
}

func (c *Client) ChainID(ctx context.Context) (uint64, error) {
	var id hexutil.Big
	err := c.executeWithFailover(ctx, getChainID, func(b Backend) error {
		return b.CallContext(ctx, &id, getChainID.String())
	})
	if err != nil {
		return 0, err
	}
	return (*big.Int)(&id).Uint64(), nil
}

func (c *Client) BlockNumber(ctx context.Context) (uint64, error) {
	var number hexutil.Uint64
	err := c.executeWithFailover(ctx, getCurrentBlockNumber, func(b Backend) error {
		return b.CallContext(ctx, &number, getCurrentBlockNumber.String())
	})
	if err != nil {
		return 0, err
	}
	return uint64(number), nil
}

func (c *Client) BlockByNumber(ctx context.Context, number uint64) (*Block, error) {
	var block *Block
	// last param is 'false' to skip transaction bodies
	err := c.executeWithFailover(ctx, getBlockByNumber, func(b Backend) error {
		return b.CallContext(ctx, &block, getBlockByNumber.String(), hexutil.EncodeUint64(number), false)
	})
	if err != nil {
		return nil, err
	}
	if block == nil {
		return nil, ErrNotFound
	}
	return block, nil
}

func (c *Client) BlockByHash(ctx context.Context, hash common.Hash) (*Block, error) {
	var block *Block
	err := c.executeWithFailover(ctx, getBlockByHash, func(b Backend) error {
		return b.CallContext(ctx, &block, getBlockByHash.String(), hash, false)
	})
	if err != nil {
		return nil, err
	}
	if block == nil {
		return nil, ErrNotFound
	}
	return block, nil
}

// FilterLogs returns the logs matching q. Only BlockHash, Addresses and Topics of q are used.
func (c *Client) FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	arg := map[string]any{
		"address": q.Addresses,
		"topics":  q.Topics,
	}
	if q.BlockHash != nil {
		arg["blockHash"] = *q.BlockHash
	} else {
		arg["fromBlock"] = blockArg(q.FromBlock)
		arg["toBlock"] = blockArg(q.ToBlock)
	}

	var logs []types.Log
	err := c.executeWithFailover(ctx, getLogs, func(b Backend) error {
		return b.CallContext(ctx, &logs, getLogs.String(), arg)
	})
	if err != nil {
		return nil, err
	}
	return logs, nil
}

// CallContract executes a read-only call against the latest block of every endpoint in turn
// until one answers.
func (c *Client) CallContract(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	arg := map[string]any{
		"to":    to,
		"data":  hexutil.Bytes(data),
		"input": hexutil.Bytes(data),
	}

	var result hexutil.Bytes
	err := c.executeWithFailover(ctx, call, func(b Backend) error {
		return b.CallContext(ctx, &result, call.String(), arg, "latest")
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func blockArg(number *big.Int) string {
	if number == nil {
		return "latest"
	}
	return hexutil.EncodeBig(number)
}

// executeWithFailover runs fn against each endpoint, retrying each with an exponential backoff,
// and returns as soon as one succeeds.
func (c *Client) executeWithFailover(ctx context.Context, method rpcMethod, fn func(Backend) error) error {
	if len(c.endpoints) == 0 {
		return ErrNoEndpoints
	}

	var errs []error
	for ep := range slices.Values(c.endpoints) {
		err := c.doWithRetry(ctx, ep, method, fn)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return fmt.Errorf("%s: %w", method, err)
		}
		errs = append(errs, fmt.Errorf("%s: %w", ep.name, err))
	}

	return fmt.Errorf("%s failed on all endpoints: %w", method, errors.Join(errs...))
}

func (c *Client) doWithRetry(ctx context.Context, ep endpoint, method rpcMethod, fn func(Backend) error) error {
	bk := backoff.WithContext(newExponentialBackoffConfig(), ctx)
	return backoff.Retry(func() error {
		err := fn(ep.backend)
		if err == nil {
			return nil
		}
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return backoff.Permanent(fmt.Errorf("could not make rpc call: %w", err))
		}
		var rpcErr rpc.Error
		if errors.As(err, &rpcErr) {
			// the node understood and rejected the request; retrying would not help
			return backoff.Permanent(err)
		}
		c.logger.WithFields(logrus.Fields{
			"method":   method,
			"endpoint": ep.name,
		}).WithError(err).Warn("Failed to make rpc request, retrying...")
		failedRPCCalls.WithLabelValues(c.chain, method.String()).Inc()
		return fmt.Errorf("rpc request failed: %w", err)
	}, bk)
}

func newExponentialBackoffConfig() *backoff.ExponentialBackOff {
	return backoff.NewExponentialBackOff(
		backoff.WithMaxElapsedTime(time.Second*3),
		backoff.WithMaxInterval(time.Second),
		backoff.WithInitialInterval(time.Millisecond*100),
		backoff.WithMultiplier(2),
		backoff.WithRandomizationFactor(0.2),
	)
}
