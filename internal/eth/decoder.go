package eth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// ErrDecode is returned when a single log cannot be decoded against its event ABI.
var ErrDecode = errors.New("log decode failed")

// EventDecoder decodes the logs of a single ABI event.
type EventDecoder struct {
	event   abi.Event
	indexed abi.Arguments
}

// NewEventDecoder parses contractABI and looks up eventName in it.
func NewEventDecoder(contractABI, eventName string) (*EventDecoder, error) {
	parsed, err := abi.JSON(strings.NewReader(contractABI))
	if err != nil {
		return nil, fmt.Errorf("parse contract abi: %w", err)
	}

	event, ok := parsed.Events[eventName]
	if !ok {
		return nil, fmt.Errorf("event %q not found in contract abi", eventName)
	}

	var indexed abi.Arguments
	for _, arg := range event.Inputs {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}

	return &EventDecoder{
		event:   event,
		indexed: indexed,
	}, nil
}

func (d *EventDecoder) EventName() string {
	return d.event.Name
}

// Topic returns the event signature hash, the first topic of every matching log.
func (d *EventDecoder) Topic() common.Hash {
	return d.event.ID
}

// Decode unpacks both the indexed (topics) and non-indexed (data) arguments of log.
func (d *EventDecoder) Decode(log types.Log) (*DecodedLog, error) {
	if len(log.Topics) == 0 || log.Topics[0] != d.event.ID {
		return nil, fmt.Errorf("%w: log is not a %s event", ErrDecode, d.event.Name)
	}
	if len(log.Topics)-1 != len(d.indexed) {
		return nil, fmt.Errorf("%w: expected %d indexed topics, got %d", ErrDecode, len(d.indexed), len(log.Topics)-1)
	}

	args := make(map[string]any, len(d.event.Inputs))
	err := d.event.Inputs.NonIndexed().UnpackIntoMap(args, log.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: unpack data: %w", ErrDecode, err)
	}
	err = abi.ParseTopicsIntoMap(args, d.indexed, log.Topics[1:])
	if err != nil {
		return nil, fmt.Errorf("%w: parse topics: %w", ErrDecode, err)
	}

	return &DecodedLog{
		Log:   log,
		Event: d.event.Name,
		Args:  args,
	}, nil
}

// DecodeAll decodes every log, skipping those that fail. onError is called for each skipped log.
func (d *EventDecoder) DecodeAll(logs []types.Log, onError func(types.Log, error)) []*DecodedLog {
	decoded := make([]*DecodedLog, 0, len(logs))
	for _, log := range logs {
		dl, err := d.Decode(log)
		if err != nil {
			undecodableLogs.WithLabelValues(d.event.Name).Inc()
			if onError != nil {
				onError(log, err)
			}
			continue
		}
		decoded = append(decoded, dl)
	}
	return decoded
}
