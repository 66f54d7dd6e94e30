// Package watcher follows a contract event on a chain and hands every confirmed log to a
// handler, resuming from the last dispatched block after a restart.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/sirupsen/logrus"

	"github.com/hedisam/pipeline/chans"

	"github.com/openxai/oepindexer/internal/eth"
	"github.com/openxai/oepindexer/internal/store"
)

// Handler processes a batch of decoded logs, all from the same block and in log order.
type Handler func(ctx context.Context, logs []*eth.DecodedLog) error

// Spec describes the event to watch.
type Spec struct {
	ABI       string
	Address   common.Address
	EventName string
	OnLogs    Handler
}

// Chain is the chain access a watcher needs. *eth.Client satisfies it.
type Chain interface {
	Chain() string
	Stream(ctx context.Context, pollTick time.Duration, fromBlock int64) <-chan *eth.Block
	BlockByNumber(ctx context.Context, number uint64) (*eth.Block, error)
	BlockByHash(ctx context.Context, hash common.Hash) (*eth.Block, error)
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error)
}

type CursorStore interface {
	GetCursor(ctx context.Context, name string) (*store.Cursor, error)
	SaveCursor(ctx context.Context, name string, cursor *store.Cursor) error
}

type Watcher struct {
	logger  *logrus.Logger
	chain   Chain
	cursors CursorStore
	cfg     config
}

func New(logger *logrus.Logger, chain Chain, cursors CursorStore, opts ...Option) *Watcher {
	cfg := config{
		pollInterval:       DefaultPollInterval,
		confirmations:      DefaultConfirmations,
		startBlock:         StartAtHead,
		checkpointInterval: DefaultCheckpointInterval,
	}
	for opt := range slices.Values(opts) {
		opt(&cfg)
	}

	return &Watcher{
		logger:  logger,
		chain:   chain,
		cursors: cursors,
		cfg:     cfg,
	}
}

// StartWatching follows spec.EventName emitted by spec.Address and blocks until ctx is done.
// Every confirmed block carrying matching logs results in one spec.OnLogs call. Logs that
// cannot be decoded are dropped without failing the rest of their batch. If every endpoint
// rejects the logs request of a confirmed block, the canonical block at that height is used
// instead, or the block is skipped when the chain still reports it.
// Delivery is at least once: blocks after the stored cursor may be dispatched again after a
// restart, so handlers must be idempotent.
func (w *Watcher) StartWatching(ctx context.Context, name string, spec Spec) error {
	if spec.OnLogs == nil {
		return errors.New("watcher spec has no log handler")
	}
	decoder, err := eth.NewEventDecoder(spec.ABI, spec.EventName)
	if err != nil {
		return fmt.Errorf("could not build event decoder: %w", err)
	}

	fromBlock, err := w.startBlock(ctx, name)
	if err != nil {
		return fmt.Errorf("could not resolve start block: %w", err)
	}

	logger := w.logger.WithFields(logrus.Fields{
		"watcher":  name,
		"chain":    w.chain.Chain(),
		"contract": spec.Address.Hex(),
		"event":    spec.EventName,
	})
	logger.WithField("from_block", fromBlock).Info("Starting event watcher")

	blocks := w.chain.Stream(ctx, w.cfg.pollInterval, fromBlock)
	confirmed := eth.ReorgFilter(ctx, w.logger, w.chain.Chain(), blocks, w.cfg.confirmations, w.chain)

	query := ethereum.FilterQuery{
		Addresses: []common.Address{spec.Address},
		Topics:    [][]common.Hash{{decoder.Topic()}},
	}

	var sinceCheckpoint uint64
	for block := range chans.ReceiveOrDoneSeq(ctx, confirmed) {
		logs, err := w.fetchLogs(ctx, logger, query, block)
		if err != nil && ctx.Err() == nil {
			block, logs, err = w.canonicalLogs(ctx, logger, query, block, err)
		}
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			logger.WithField("block_number", block.Number).WithError(err).Error("Skipping confirmed block whose logs cannot be retrieved")
			skippedBlocks.WithLabelValues(name).Inc()
			logs = nil
		}

		dispatched := w.dispatch(ctx, logger, name, decoder, spec.OnLogs, block, logs)

		confirmedBlocks.WithLabelValues(name).Inc()
		lastConfirmedBlock.WithLabelValues(name).Set(float64(block.Number))
		sinceCheckpoint++
		if dispatched == 0 && sinceCheckpoint < w.cfg.checkpointInterval {
			continue
		}

		err = w.cursors.SaveCursor(ctx, name, &store.Cursor{
			BlockNumber: block.Number,
			BlockHash:   block.Hash,
		})
		if err != nil {
			logger.WithField("block_number", block.Number).WithError(err).Error("Failed to save watcher cursor")
			continue
		}
		sinceCheckpoint = 0
	}

	logger.Info("Event watcher stopped")
	return nil
}

func (w *Watcher) startBlock(ctx context.Context, name string) (int64, error) {
	cursor, err := w.cursors.GetCursor(ctx, name)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return w.cfg.startBlock, nil
		}
		return 0, err
	}
	return int64(cursor.BlockNumber) + 1, nil
}

// fetchLogs retries until the logs of block are retrieved, ctx is done or every endpoint
// rejects the request, e.g. because none of them knows the block anymore.
func (w *Watcher) fetchLogs(ctx context.Context, logger *logrus.Entry, query ethereum.FilterQuery, block *eth.Block) ([]types.Log, error) {
	query.BlockHash = &block.Hash

	bk := backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(min(time.Second, w.cfg.pollInterval)),
		backoff.WithMaxInterval(w.cfg.pollInterval),
		backoff.WithMaxElapsedTime(0),
	)
	return backoff.RetryNotifyWithData(func() ([]types.Log, error) {
		logs, err := w.chain.FilterLogs(ctx, query)
		if err == nil {
			return logs, nil
		}
		var rpcErr rpc.Error
		if ctx.Err() != nil || errors.As(err, &rpcErr) {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	}, backoff.WithContext(bk, ctx), func(err error, next time.Duration) {
		logger.WithFields(logrus.Fields{
			"block_number": block.Number,
			"retry_in":     next,
		}).WithError(err).Error("Failed to filter logs of confirmed block")
	})
}

// canonicalLogs is used once the logs of a confirmed block were rejected by every endpoint. If the
// chain now holds another block at that height, its logs are returned in place of the rejected
// block's.
func (w *Watcher) canonicalLogs(ctx context.Context, logger *logrus.Entry, query ethereum.FilterQuery, block *eth.Block, cause error) (*eth.Block, []types.Log, error) {
	canonical, err := w.chain.BlockByNumber(ctx, block.Number)
	if err != nil {
		return block, nil, fmt.Errorf("%w (get canonical block: %w)", cause, err)
	}
	if canonical.Hash == block.Hash {
		return block, nil, cause
	}

	logger.WithFields(logrus.Fields{
		"block_number":   block.Number,
		"rejected_hash":  block.Hash,
		"canonical_hash": canonical.Hash,
	}).Warn("Confirmed block is no longer known, using the canonical block at its height")

	logs, err := w.fetchLogs(ctx, logger, query, canonical)
	if err != nil {
		return block, nil, err
	}
	return canonical, logs, nil
}

// dispatch decodes logs and hands them to handler. It returns the number of dispatched logs.
func (w *Watcher) dispatch(ctx context.Context, logger *logrus.Entry, name string, decoder *eth.EventDecoder, handler Handler, block *eth.Block, logs []types.Log) int {
	logger = logger.WithFields(logrus.Fields{
		"block_number": block.Number,
		"block_hash":   block.Hash,
	})

	live := slices.DeleteFunc(logs, func(l types.Log) bool {
		return l.Removed
	})
	decoded := decoder.DecodeAll(live, func(l types.Log, err error) {
		logger.WithFields(logrus.Fields{
			"tx_hash":   l.TxHash,
			"log_index": l.Index,
		}).WithError(err).Warn("Dropping log that could not be decoded")
	})
	if len(decoded) == 0 {
		return 0
	}

	err := handler(ctx, decoded)
	if err != nil {
		logger.WithField("logs", len(decoded)).WithError(err).Error("Failed to handle log batch")
		failedBatches.WithLabelValues(name).Inc()
	}

	dispatchedLogs.WithLabelValues(name).Add(float64(len(decoded)))
	logger.WithField("logs", len(decoded)).Debug("Dispatched log batch")
	return len(decoded)
}
