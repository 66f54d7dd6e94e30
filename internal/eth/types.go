package eth

import (
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
)

type rpcMethod string

const (
	getChainID            rpcMethod = "eth_chainId"
	getCurrentBlockNumber rpcMethod = "eth_blockNumber"
	getBlockByNumber      rpcMethod = "eth_getBlockByNumber"
	getBlockByHash        rpcMethod = "eth_getBlockByHash"
	getLogs               rpcMethod = "eth_getLogs"
	call                  rpcMethod = "eth_call"
)

func (rm rpcMethod) String() string {
	return string(rm)
}

// Block is the header subset the indexer needs. It is decoded straight from the RPC response
// rather than recomputed from header fields, which keeps the node reported hash even on chains
// whose header layout differs from Ethereum's.
type Block struct {
	Hash       common.Hash `json:"hash"`
	Number     uint64      `json:"number"`
	ParentHash common.Hash `json:"parentHash"`
}

// UnmarshalJSON decodes the hex quantity the node reports as block number.
func (b *Block) UnmarshalJSON(data []byte) error {
	type blockAlias Block
	aux := &struct {
		*blockAlias
		Number *hexutil.Uint64 `json:"number"`
	}{
		blockAlias: (*blockAlias)(b),
	}

	err := json.Unmarshal(data, &aux)
	if err != nil {
		return fmt.Errorf("error unmarshalling Block: %w", err)
	}
	if aux.Number == nil {
		return fmt.Errorf("block %s has no number", b.Hash)
	}
	b.Number = uint64(*aux.Number)

	return nil
}

// DecodedLog is a raw chain log together with its ABI decoded event arguments.
type DecodedLog struct {
	Log   types.Log
	Event string
	Args  map[string]any
}
