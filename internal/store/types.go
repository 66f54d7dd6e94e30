package store

import (
	"encoding/json"
	"errors"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

var (
	// ErrNotFound is returned when an item in store is not found.
	ErrNotFound = errors.New("not found")
	// ErrStorageCorrupted is returned when a stored payload cannot be decoded.
	ErrStorageCorrupted = errors.New("storage corrupted")
	// ErrStorageWrite is returned when a payload could not be durably written.
	// The update it belongs to is not committed.
	ErrStorageWrite = errors.New("storage write failed")
	// ErrLockTimeout is returned when exclusive access to a key could not be acquired in time.
	ErrLockTimeout = errors.New("lock acquisition timed out")
)

const (
	// ReservedKey is the document key of the Reserved event log.
	ReservedKey = "reserved"
	// UsersKey is the document key of the user metadata records.
	UsersKey = "users"
	// CursorKeyPrefix prefixes the per watcher cursor documents.
	CursorKeyPrefix = "cursor."
)

// EventRecord is a decoded and persisted on-chain Reserved log.
// Its identity is (TransactionHash, TransactionIndex).
type EventRecord struct {
	ChainID          uint64         `json:"chainId"`
	BlockNumber      uint64         `json:"blockNumber"`
	BlockHash        common.Hash    `json:"blockHash"`
	TransactionHash  common.Hash    `json:"transactionHash"`
	TransactionIndex uint           `json:"transactionIndex"`
	LogIndex         uint           `json:"logIndex"`
	Account          common.Address `json:"account"`
	Amount           *big.Int       `json:"amount"`
}

// SameEvent reports whether both records share the idempotency key.
func (r *EventRecord) SameEvent(other *EventRecord) bool {
	return r.TransactionHash == other.TransactionHash && r.TransactionIndex == other.TransactionIndex
}

// UserMetadata is the free-form JSON object an account signed and submitted about itself.
// It is kept as submitted, compacted.
type UserMetadata = json.RawMessage

// UserRecord is the latest metadata submitted by an account, keyed by its lower-case address.
type UserRecord struct {
	Account   string       `json:"account"`
	Metadata  UserMetadata `json:"metadata"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

// Cursor is the last confirmed block a watcher has fully dispatched.
type Cursor struct {
	BlockNumber uint64      `json:"blockNumber"`
	BlockHash   common.Hash `json:"blockHash"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}
