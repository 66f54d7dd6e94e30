package eth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testABI = `[{"type":"event","name":"Reserved","anonymous":false,"inputs":[
	{"name":"account","type":"address","indexed":true},
	{"name":"amount","type":"uint256","indexed":false}
]}]`

type rejectedErr struct{}

func (rejectedErr) Error() string  { return "rejected" }
func (rejectedErr) ErrorCode() int { return -32000 }

// fakeBackend answers rpc calls with raw JSON produced by handle.
type fakeBackend struct {
	mu     sync.Mutex
	calls  []string
	handle func(method string, args ...any) (string, error)
}

func (f *fakeBackend) CallContext(_ context.Context, result any, method string, args ...any) error {
	f.mu.Lock()
	f.calls = append(f.calls, method)
	f.mu.Unlock()

	raw, err := f.handle(method, args...)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(raw), result)
}

func hash(name string) common.Hash {
	return common.BytesToHash([]byte(name))
}

func block(number uint64, name, parent string) *Block {
	return &Block{
		Number:     number,
		Hash:       hash(name),
		ParentHash: hash(parent),
	}
}

func blockJSON(b *Block) string {
	return fmt.Sprintf(`{"number":"0x%x","hash":%q,"parentHash":%q}`, b.Number, b.Hash.Hex(), b.ParentHash.Hex())
}

func TestClientFailover(t *testing.T) {
	failing := &fakeBackend{
		handle: func(string, ...any) (string, error) {
			return "", rejectedErr{}
		},
	}
	healthy := &fakeBackend{
		handle: func(method string, _ ...any) (string, error) {
			return `"0x10"`, nil
		},
	}

	c := New(logrus.New(), "test", failing, healthy)
	number, err := c.BlockNumber(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(16), number)
	assert.Equal(t, []string{"eth_blockNumber"}, failing.calls)
	assert.Equal(t, []string{"eth_blockNumber"}, healthy.calls)
}

func TestClientAllEndpointsFail(t *testing.T) {
	failing := &fakeBackend{
		handle: func(string, ...any) (string, error) {
			return "", rejectedErr{}
		},
	}

	c := New(logrus.New(), "test", failing, failing)
	_, err := c.BlockNumber(context.Background())
	require.Error(t, err)
	var target rejectedErr
	assert.True(t, errors.As(err, &target))

	_, err = New(logrus.New(), "empty").BlockNumber(context.Background())
	assert.ErrorIs(t, err, ErrNoEndpoints)
}

func TestBlockByNumber(t *testing.T) {
	b := block(5, "b5", "b4")
	tests := map[string]struct {
		response      string
		expectedBlock *Block
		expectedErr   error
	}{
		"found": {
			response:      blockJSON(b),
			expectedBlock: b,
		},
		"not minted yet": {
			response:    "null",
			expectedErr: ErrNotFound,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			backend := &fakeBackend{
				handle: func(method string, args ...any) (string, error) {
					assert.Equal(t, "eth_getBlockByNumber", method)
					assert.Equal(t, "0x5", args[0])
					return test.response, nil
				},
			}
			got, err := New(logrus.New(), "test", backend).BlockByNumber(context.Background(), 5)
			if test.expectedErr != nil {
				assert.ErrorIs(t, err, test.expectedErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, test.expectedBlock, got)
		})
	}
}

func TestFilterLogs(t *testing.T) {
	blockHash := hash("b1")
	want := []types.Log{{
		Address:     common.HexToAddress("0x1"),
		Topics:      []common.Hash{hash("topic")},
		Data:        []byte{1},
		BlockNumber: 1,
		BlockHash:   blockHash,
		TxHash:      hash("tx"),
	}}
	backend := &fakeBackend{
		handle: func(method string, args ...any) (string, error) {
			arg, ok := args[0].(map[string]any)
			require.True(t, ok)
			assert.Equal(t, blockHash, arg["blockHash"])
			assert.NotContains(t, arg, "fromBlock")
			data, err := json.Marshal(want)
			return string(data), err
		},
	}

	got, err := New(logrus.New(), "test", backend).FilterLogs(context.Background(), ethereum.FilterQuery{
		BlockHash: &blockHash,
		Addresses: []common.Address{common.HexToAddress("0x1")},
		Topics:    [][]common.Hash{{hash("topic")}},
	})
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestStream(t *testing.T) {
	chain := map[uint64]*Block{
		7: block(7, "b7", "b6"),
		8: block(8, "b8", "b7"),
		9: block(9, "b9", "b8"),
	}
	backend := &fakeBackend{
		handle: func(method string, args ...any) (string, error) {
			switch method {
			case "eth_blockNumber":
				return `"0x9"`, nil
			case "eth_getBlockByNumber":
				var n uint64
				_, err := fmt.Sscanf(args[0].(string), "0x%x", &n)
				require.NoError(t, err)
				b, ok := chain[n]
				if !ok {
					return "null", nil
				}
				return blockJSON(b), nil
			}
			return "", rejectedErr{}
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	out := New(logrus.New(), "test", backend).Stream(ctx, 10*time.Millisecond, 7)

	var got []uint64
	for b := range out {
		got = append(got, b.Number)
		if len(got) == 3 {
			cancel()
		}
	}
	assert.Equal(t, []uint64{7, 8, 9}, got)
}

type fakeFetcher map[common.Hash]*Block

func (f fakeFetcher) BlockByHash(_ context.Context, h common.Hash) (*Block, error) {
	b, ok := f[h]
	if !ok {
		return nil, ErrNotFound
	}
	return b, nil
}

func TestReorgFilter(t *testing.T) {
	tests := map[string]struct {
		depth    uint
		in       []*Block
		fetcher  fakeFetcher
		expected []string
	}{
		"no reorg": {
			depth: 2,
			in: []*Block{
				block(0, "a0", "genesis"),
				block(1, "a1", "a0"),
				block(2, "a2", "a1"),
				block(3, "a3", "a2"),
			},
			expected: []string{"a0", "a1"},
		},
		"shallow reorg is replaced by the canonical ancestors": {
			depth: 2,
			in: []*Block{
				block(0, "a0", "genesis"),
				block(1, "a1", "a0"),
				block(2, "a2", "a1"),
				block(3, "b3", "b2"),
				block(4, "b4", "b3"),
			},
			fetcher: fakeFetcher{
				hash("b2"): block(2, "b2", "a1"),
			},
			expected: []string{"a0", "a1", "b2"},
		},
		"fork point still buffered": {
			depth: 3,
			in: []*Block{
				block(0, "a0", "genesis"),
				block(1, "a1", "a0"),
				block(2, "a2", "a1"),
				block(2, "c2", "a1"),
				block(3, "c3", "c2"),
				block(4, "c4", "c3"),
			},
			expected: []string{"a0", "a1"},
		},
		"missing ancestor keeps the queued branch": {
			depth: 2,
			in: []*Block{
				block(0, "a0", "genesis"),
				block(1, "a1", "a0"),
				block(2, "a2", "a1"),
				block(3, "b3", "b2"),
				block(4, "b4", "b3"),
				block(3, "a3", "a2"),
				block(4, "a4", "a3"),
			},
			fetcher: fakeFetcher{
				hash("b3"): block(3, "b3", "b2"),
			},
			expected: []string{"a0", "a1", "a2"},
		},
		"reorg reaching the whole buffer": {
			depth: 1,
			in: []*Block{
				block(0, "a0", "genesis"),
				block(1, "a1", "a0"),
				block(2, "c2", "c1"),
			},
			fetcher: fakeFetcher{
				hash("c1"): block(1, "c1", "a0"),
			},
			expected: []string{"a0", "c1"},
		},
		"reorg deeper than the confirmation depth": {
			depth: 1,
			in: []*Block{
				block(0, "a0", "genesis"),
				block(1, "a1", "a0"),
				block(2, "a2", "a1"),
				block(3, "d3", "d2"),
			},
			fetcher: fakeFetcher{
				hash("d2"): block(2, "d2", "d1"),
			},
			expected: []string{"a0", "a1", "d2"},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			in := make(chan *Block, len(test.in))
			for _, b := range test.in {
				in <- b
			}
			close(in)

			out := ReorgFilter(context.Background(), logrus.New(), "test", in, test.depth, test.fetcher)
			var got []common.Hash
			for b := range out {
				got = append(got, b.Hash)
			}

			var expected []common.Hash
			for _, name := range test.expected {
				expected = append(expected, hash(name))
			}
			assert.Equal(t, expected, got)
		})
	}
}

func TestEventDecoder(t *testing.T) {
	decoder, err := NewEventDecoder(testABI, "Reserved")
	require.NoError(t, err)
	assert.Equal(t, "Reserved", decoder.EventName())

	uint256, err := abi.NewType("uint256", "", nil)
	require.NoError(t, err)
	amount, err := abi.Arguments{{Type: uint256}}.Pack(big.NewInt(100))
	require.NoError(t, err)

	account := common.HexToAddress("0x7a250d5630b4cf539739df2c5dacb4c659f2488d")
	valid := types.Log{
		Topics: []common.Hash{decoder.Topic(), common.BytesToHash(account.Bytes())},
		Data:   amount,
	}

	tests := map[string]struct {
		log          types.Log
		expectedArgs map[string]any
		expectErr    bool
	}{
		"valid": {
			log: valid,
			expectedArgs: map[string]any{
				"account": account,
				"amount":  big.NewInt(100),
			},
		},
		"foreign event": {
			log: types.Log{
				Topics: []common.Hash{hash("other"), common.BytesToHash(account.Bytes())},
				Data:   amount,
			},
			expectErr: true,
		},
		"missing indexed topic": {
			log: types.Log{
				Topics: []common.Hash{decoder.Topic()},
				Data:   amount,
			},
			expectErr: true,
		},
		"truncated data": {
			log: types.Log{
				Topics: []common.Hash{decoder.Topic(), common.BytesToHash(account.Bytes())},
				Data:   amount[:10],
			},
			expectErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			decoded, err := decoder.Decode(test.log)
			if test.expectErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrDecode)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "Reserved", decoded.Event)
			assert.Equal(t, test.expectedArgs, decoded.Args)
		})
	}

	var dropped int
	decoded := decoder.DecodeAll([]types.Log{valid, {Topics: []common.Hash{decoder.Topic()}}, valid}, func(types.Log, error) {
		dropped++
	})
	assert.Len(t, decoded, 2)
	assert.Equal(t, 1, dropped)
}
