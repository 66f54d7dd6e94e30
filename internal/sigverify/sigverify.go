// Package sigverify checks that a metadata submission was signed by the account it is for,
// either with the account's own key or, for contract wallets, through ERC-1271.
package sigverify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/sirupsen/logrus"
)

const (
	// MessagePrefix is prepended to the submitted metadata to form the signed message.
	MessagePrefix = "OEP metadata: "

	erc1271ABI = `[{"type":"function","name":"isValidSignature","stateMutability":"view","inputs":[
		{"name":"hash","type":"bytes32"},
		{"name":"signature","type":"bytes"}
	],"outputs":[{"name":"magicValue","type":"bytes4"}]}]`
	isValidSignatureMethod = "isValidSignature"
)

var (
	// ErrInvalidSignature is returned when no verification method accepts the signature.
	ErrInvalidSignature = errors.New("invalid signature")

	erc1271MagicValue = [4]byte{0x16, 0x26, 0xba, 0x7e}
)

// ContractCaller runs read-only contract calls on one chain. *eth.Client satisfies it.
type ContractCaller interface {
	Chain() string
	CallContract(ctx context.Context, to common.Address, data []byte) ([]byte, error)
}

type Verifier struct {
	logger  *logrus.Logger
	callers []ContractCaller
	erc1271 abi.ABI
}

// New returns a verifier asking callers, in order, about contract wallet signatures.
func New(logger *logrus.Logger, callers ...ContractCaller) (*Verifier, error) {
	parsed, err := abi.JSON(strings.NewReader(erc1271ABI))
	if err != nil {
		return nil, fmt.Errorf("could not parse erc1271 abi: %w", err)
	}

	return &Verifier{
		logger:  logger,
		callers: callers,
		erc1271: parsed,
	}, nil
}

// Hash returns the EIP-191 personal message hash of the message signed for metadata.
func Hash(metadata string) common.Hash {
	return common.BytesToHash(accounts.TextHash([]byte(MessagePrefix + metadata)))
}

// Verify returns nil if sig is a signature of MessagePrefix+metadata by account.
func (v *Verifier) Verify(ctx context.Context, account common.Address, metadata string, sig []byte) error {
	hash := Hash(metadata)
	logger := v.logger.WithContext(ctx).WithField("account", account.Hex())

	signer, err := recoverSigner(hash, sig)
	if err == nil && signer == account {
		return nil
	}
	if err != nil {
		logger.WithError(err).Debug("Signature is not a valid account signature")
	}

	for caller := range slices.Values(v.callers) {
		ok, err := v.isValidContractSignature(ctx, caller, account, hash, sig)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.WithField("chain", caller.Chain()).WithError(err).Warn("Failed to check contract wallet signature")
			continue
		}
		if ok {
			return nil
		}
	}

	return ErrInvalidSignature
}

func recoverSigner(hash common.Hash, sig []byte) (common.Address, error) {
	if len(sig) != crypto.SignatureLength {
		return common.Address{}, fmt.Errorf("signature must be %d bytes, got %d", crypto.SignatureLength, len(sig))
	}

	sig = bytes.Clone(sig)
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}

	pub, err := crypto.SigToPub(hash.Bytes(), sig)
	if err != nil {
		return common.Address{}, fmt.Errorf("recover public key: %w", err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}

func (v *Verifier) isValidContractSignature(ctx context.Context, caller ContractCaller, account common.Address, hash common.Hash, sig []byte) (bool, error) {
	data, err := v.erc1271.Pack(isValidSignatureMethod, [32]byte(hash), sig)
	if err != nil {
		return false, fmt.Errorf("pack isValidSignature call: %w", err)
	}

	out, err := caller.CallContract(ctx, account, data)
	if err != nil {
		return false, fmt.Errorf("call isValidSignature: %w", err)
	}
	if len(out) == 0 {
		// no contract deployed at account on this chain
		return false, nil
	}

	values, err := v.erc1271.Unpack(isValidSignatureMethod, out)
	if err != nil || len(values) != 1 {
		return false, nil
	}
	magic, ok := values[0].([4]byte)
	return ok && magic == erc1271MagicValue, nil
}
