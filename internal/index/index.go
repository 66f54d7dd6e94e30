// Package index turns decoded Reserved logs into a deduplicated, append-only event log.
package index

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"slices"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	"github.com/openxai/oepindexer/internal/eth"
	"github.com/openxai/oepindexer/internal/store"
	"github.com/openxai/oepindexer/internal/store/docstore"
)

const (
	// ReservedEventName is the contract event the indexer consumes.
	ReservedEventName = "Reserved"
	// ReservedEventABI is the ABI fragment of the Reserved event.
	ReservedEventABI = `[{
	"type": "event",
	"name": "Reserved",
	"anonymous": false,
	"inputs": [
		{"name": "account", "type": "address", "indexed": true, "internalType": "address"},
		{"name": "amount", "type": "uint256", "indexed": false, "internalType": "uint256"}
	]
}]`
)

type EventDocument interface {
	Get(ctx context.Context) ([]*store.EventRecord, error)
	Update(ctx context.Context, mutate func([]*store.EventRecord) ([]*store.EventRecord, error)) ([]*store.EventRecord, error)
}

type Reserved struct {
	logger  *logrus.Logger
	chainID uint64
	events  EventDocument
}

func NewReserved(logger *logrus.Logger, chainID uint64, events EventDocument) *Reserved {
	return &Reserved{
		logger:  logger,
		chainID: chainID,
		events:  events,
	}
}

// HandleLogs stores every log as an event record, one at a time and in order. Logs already
// stored are skipped. A log that cannot be converted or stored does not stop the others; the
// storage failures are returned together.
func (r *Reserved) HandleLogs(ctx context.Context, logs []*eth.DecodedLog) error {
	var errs []error
	var inserted int
	for dl := range slices.Values(logs) {
		logger := r.logger.WithContext(ctx).WithFields(logrus.Fields{
			"chain_id":  r.chainID,
			"tx_hash":   dl.Log.TxHash,
			"tx_index":  dl.Log.TxIndex,
			"log_index": dl.Log.Index,
		})

		record, err := r.toRecord(dl)
		if err != nil {
			logger.WithError(err).Warn("Dropping Reserved log with unexpected arguments")
			undecodableEvents.Inc()
			continue
		}

		ok, err := r.insert(ctx, record)
		if err != nil {
			logger.WithError(err).Error("Failed to store Reserved event")
			eventsFailedStoring.Inc()
			errs = append(errs, fmt.Errorf("store event %s/%d: %w", record.TransactionHash, record.TransactionIndex, err))
			continue
		}
		if !ok {
			logger.Debug("Reserved event already stored")
			duplicateEvents.Inc()
			continue
		}
		inserted++
	}

	indexedEvents.Add(float64(inserted))
	return errors.Join(errs...)
}

// List returns every stored event in insertion order.
func (r *Reserved) List(ctx context.Context) ([]*store.EventRecord, error) {
	events, err := r.events.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not get events from store: %w", err)
	}
	return events, nil
}

// insert appends record unless an event with the same transaction hash and index is stored.
func (r *Reserved) insert(ctx context.Context, record *store.EventRecord) (bool, error) {
	var inserted bool
	_, err := r.events.Update(ctx, func(events []*store.EventRecord) ([]*store.EventRecord, error) {
		if slices.ContainsFunc(events, record.SameEvent) {
			return events, docstore.ErrSkipWrite
		}
		inserted = true
		return append(events, record), nil
	})
	if err != nil {
		return false, err
	}
	return inserted, nil
}

func (r *Reserved) toRecord(dl *eth.DecodedLog) (*store.EventRecord, error) {
	account, ok := dl.Args["account"].(common.Address)
	if !ok {
		return nil, fmt.Errorf("%w: missing or invalid 'account' argument", eth.ErrDecode)
	}
	amount, ok := dl.Args["amount"].(*big.Int)
	if !ok || amount == nil {
		return nil, fmt.Errorf("%w: missing or invalid 'amount' argument", eth.ErrDecode)
	}

	return &store.EventRecord{
		ChainID:          r.chainID,
		BlockNumber:      dl.Log.BlockNumber,
		BlockHash:        dl.Log.BlockHash,
		TransactionHash:  dl.Log.TxHash,
		TransactionIndex: dl.Log.TxIndex,
		LogIndex:         dl.Log.Index,
		Account:          account,
		Amount:           new(big.Int).Set(amount),
	}, nil
}
