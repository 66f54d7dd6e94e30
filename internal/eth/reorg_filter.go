package eth

import (
	"context"
	"errors"
	"slices"

	"github.com/cenkalti/backoff/v4"
	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	"github.com/hedisam/pipeline/chans"

	"github.com/openxai/oepindexer/internal/ringbuffer"
)

// BlockFetcher looks up a block header by hash.
type BlockFetcher interface {
	BlockByHash(ctx context.Context, hash common.Hash) (*Block, error)
}

// ReorgFilter delays blocks by confirmationDepth and only forwards blocks that are still part
// of the canonical chain by then. When a received block does not extend the buffered chain,
// the buffered blocks after its fork point are dropped; if the fork point is not buffered the
// missing ancestors are fetched by hash, so the output has no gaps.
func ReorgFilter(ctx context.Context, logger *logrus.Logger, chain string, in <-chan *Block, confirmationDepth uint, fetcher BlockFetcher) <-chan *Block {
	out := make(chan *Block)

	go func() {
		defer close(out)

		rb := ringbuffer.New[*Block](confirmationDepth)
		var lastEmitted *Block
		for block := range chans.ReceiveOrDoneSeq(ctx, in) {
			logger := logger.WithFields(logrus.Fields{
				"chain":        chain,
				"block_number": block.Number,
				"block_hash":   block.Hash,
				"parent_hash":  block.ParentHash,
			})

			// canonical blocks to push, oldest first
			pending := []*Block{block}
			// queued blocks discarded while walking back, newest first
			var dropped []*Block
			for {
				oldest := pending[0]
				anchor, ok := rb.Back()
				if !ok {
					anchor = lastEmitted
				}
				if anchor == nil || oldest.ParentHash == anchor.Hash {
					// no reorg; we're good to go
					break
				}

				// the new block builds on a block we still hold; everything queued after it is orphaned
				if pos := rb.IndexFunc(func(b *Block) bool { return b.Hash == oldest.ParentHash }); pos >= 0 {
					orphaned := rb.Size() - pos - 1
					logger.WithFields(logrus.Fields{
						"dropped_blocks": orphaned,
						"queued_blocks":  queuedNumbers(rb),
					}).Warn("Block reorganisation detected, dropping orphaned queued blocks")
					rb.Truncate(pos + 1)
					reorgDroppedBlocks.WithLabelValues(chain).Add(float64(orphaned))
					break
				}
				if lastEmitted != nil && oldest.ParentHash == lastEmitted.Hash {
					logger.WithField("dropped_blocks", rb.Size()).Warn("Block reorganisation detected, dropping all queued blocks")
					reorgDroppedBlocks.WithLabelValues(chain).Add(float64(rb.Size()))
					rb.Truncate(0)
					break
				}

				if rb.Size() == 0 {
					// the fork point is behind blocks we've already forwarded; nothing we can undo here
					logger.WithField("last_emitted_hash", anchor.Hash).Error("Block reorganisation deeper than the confirmation depth detected")
					deepReorgs.WithLabelValues(chain).Inc()
					break
				}

				// the fork point is older than the newest queued block; discard it and continue
				// from the block the new chain actually builds on.
				logger.WithField("tail_hash", anchor.Hash).Warn("Block reorganisation detected, dropping last queued non matching block")
				rb.Truncate(rb.Size() - 1)
				dropped = append(dropped, anchor)

				parent, err := fetchAncestor(ctx, fetcher, oldest.ParentHash)
				if err != nil {
					// without the ancestor the new branch would have a gap; keep the queued branch
					// and let a later block retry the walk back
					logger.WithField("ancestor_hash", oldest.ParentHash).WithError(err).Error("Failed to fetch ancestor of reorganised block, keeping queued blocks")
					failedAncestorFetches.WithLabelValues(chain).Inc()
					for _, b := range slices.Backward(dropped) {
						rb.Push(b)
					}
					pending, dropped = nil, nil
					break
				}
				pending = append([]*Block{parent}, pending...)
			}
			reorgDroppedBlocks.WithLabelValues(chain).Add(float64(len(dropped)))

			for _, b := range pending {
				// the oldest queued block is confirmed once enough blocks are queued after it
				confirmed, ok := rb.Push(b)
				if !ok {
					continue
				}
				if !chans.SendOrDone(ctx, out, confirmed) {
					return
				}
				lastEmitted = confirmed
			}
		}
	}()

	return out
}

// fetchAncestor retries transient failures with a short backoff. A block the node does not know
// is not retried.
func fetchAncestor(ctx context.Context, fetcher BlockFetcher, hash common.Hash) (*Block, error) {
	bk := backoff.WithContext(newExponentialBackoffConfig(), ctx)
	return backoff.RetryWithData(func() (*Block, error) {
		b, err := fetcher.BlockByHash(ctx, hash)
		if err == nil {
			return b, nil
		}
		if errors.Is(err, ErrNotFound) || ctx.Err() != nil {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	}, bk)
}

func queuedNumbers(rb *ringbuffer.RingBuffer[*Block]) []uint64 {
	var numbers []uint64
	for b := range rb.All() {
		numbers = append(numbers, b.Number)
	}
	return numbers
}
