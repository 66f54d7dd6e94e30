package rest

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/sirupsen/logrus"

	"github.com/openxai/oepindexer/internal/sigverify"
	"github.com/openxai/oepindexer/internal/store"
)

const (
	// InvalidAddrMessage is returned when users make a request with an invalid addr.
	InvalidAddrMessage = "Invalid Ethereum address. Expected a 40-character hex string, with or without '0x' prefix. Example: 0x12ab34cd56ef7890a1234567890abcdef1234567"
	// InvalidSignatureMessage is returned when the metadata signature does not verify on any chain.
	InvalidSignatureMessage = "Invalid signature"
	// UnauthorizedMessage is returned when the users listing is requested without the right secret.
	UnauthorizedMessage = "Missing or invalid Authorization header"
)

type ReservedStore interface {
	List(ctx context.Context) ([]*store.EventRecord, error)
}

type UserStore interface {
	SetMetadata(ctx context.Context, account string, metadata store.UserMetadata) (*store.UserRecord, error)
	List(ctx context.Context) ([]*store.UserRecord, error)
}

type SignatureVerifier interface {
	Verify(ctx context.Context, account common.Address, metadata string, sig []byte) error
}

type CursorStore interface {
	GetCursor(ctx context.Context, name string) (*store.Cursor, error)
}

type Server struct {
	logger      *logrus.Logger
	reserved    ReservedStore
	users       UserStore
	verifier    SignatureVerifier
	cursors     CursorStore
	watchers    []string
	usersSecret string
}

// NewServer returns the indexer API. An empty usersSecret rejects every users listing request.
func NewServer(logger *logrus.Logger, reserved ReservedStore, users UserStore, verifier SignatureVerifier, cursors CursorStore, watchers []string, usersSecret string) *Server {
	return &Server{
		logger:      logger,
		reserved:    reserved,
		users:       users,
		verifier:    verifier,
		cursors:     cursors,
		watchers:    watchers,
		usersSecret: usersSecret,
	}
}

// Register registers every route of the server on mux.
func (s *Server) Register(mux *http.ServeMux) {
	RegisterFunc(s.logger, mux, http.MethodGet, "/indexer/reserved", s.ListReserved)
	RegisterFunc(s.logger, mux, http.MethodGet, "/indexer/users", s.ListUsers)
	RegisterFunc(s.logger, mux, http.MethodPost, "/indexer/setMetadata", s.SetMetadata)
	RegisterFunc(s.logger, mux, http.MethodGet, "/indexer/status", s.GetStatus)
}

func (s *Server) ListReserved(ctx context.Context, _ *ListReservedRequest) (*ListReservedResponse, error) {
	logger := s.logger.WithContext(ctx)

	events, err := s.reserved.List(ctx)
	if err != nil {
		logger.WithError(err).Error("Failed to list reserved events from store")
		return nil, NewErrf(http.StatusInternalServerError, "could not list reserved events")
	}

	resp := ListReservedResponse(events)
	if resp == nil {
		resp = ListReservedResponse{}
	}
	return &resp, nil
}

func (s *Server) ListUsers(ctx context.Context, req *ListUsersRequest) (*ListUsersResponse, error) {
	logger := s.logger.WithContext(ctx)

	if !s.authorized(req.Authorization) {
		logger.Warn("Rejected users listing with a missing or invalid secret")
		return nil, NewErrf(http.StatusBadRequest, UnauthorizedMessage)
	}

	users, err := s.users.List(ctx)
	if err != nil {
		logger.WithError(err).Error("Failed to list users from store")
		return nil, NewErrf(http.StatusInternalServerError, "could not list users")
	}

	resp := ListUsersResponse(users)
	if resp == nil {
		resp = ListUsersResponse{}
	}
	return &resp, nil
}

func (s *Server) SetMetadata(ctx context.Context, req *SetMetadataRequest) (*SetMetadataResponse, error) {
	logger := s.logger.WithContext(ctx).WithField("addr", req.Account)

	addr := strings.TrimSpace(req.Account)
	if addr == "" {
		logger.Warn("Account is required to set metadata")
		return nil, NewErrf(http.StatusBadRequest, "Missing required field: 'account'")
	}
	addr, valid := validateAndNormalizeAddress(addr)
	if !valid {
		logger.Warn("Invalid account provided to set metadata")
		return nil, NewErrf(http.StatusBadRequest, InvalidAddrMessage)
	}

	if strings.TrimSpace(req.Metadata) == "" {
		logger.Warn("Metadata is required to set metadata")
		return nil, NewErrf(http.StatusBadRequest, "Missing required field: 'metadata'")
	}
	metadata, err := parseMetadata(req.Metadata)
	if err != nil {
		logger.WithError(err).Warn("Invalid metadata provided")
		return nil, NewErrf(http.StatusBadRequest, "Invalid field 'metadata': expected a JSON object encoded as a string")
	}

	sig, err := hexutil.Decode(strings.TrimSpace(req.Signature))
	if err != nil {
		logger.WithError(err).Warn("Invalid signature encoding provided")
		return nil, NewErrf(http.StatusBadRequest, "Invalid field 'signature': expected a 0x-prefixed hex string")
	}

	err = s.verifier.Verify(ctx, common.HexToAddress(addr), req.Metadata, sig)
	if err != nil {
		if errors.Is(err, sigverify.ErrInvalidSignature) {
			logger.Warn("Metadata signature verification failed")
			return nil, NewErrf(http.StatusBadRequest, InvalidSignatureMessage)
		}
		logger.WithError(err).Error("Failed to verify metadata signature")
		return nil, NewErrf(http.StatusInternalServerError, "could not verify signature")
	}

	_, err = s.users.SetMetadata(ctx, addr, metadata)
	if err != nil {
		logger.WithError(err).Error("Failed to store user metadata")
		return nil, NewErrf(http.StatusInternalServerError, "could not store user metadata")
	}

	return &SetMetadataResponse{
		Ok: true,
	}, nil
}

func (s *Server) GetStatus(ctx context.Context, _ *GetStatusRequest) (*GetStatusResponse, error) {
	logger := s.logger.WithContext(ctx)

	resp := &GetStatusResponse{
		Watchers: make([]*WatcherStatus, 0, len(s.watchers)),
	}
	for name := range slices.Values(s.watchers) {
		status := &WatcherStatus{Name: name}
		resp.Watchers = append(resp.Watchers, status)

		cursor, err := s.cursors.GetCursor(ctx, name)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			logger.WithField("watcher", name).WithError(err).Error("Failed to get watcher cursor from store")
			return nil, NewErrf(http.StatusInternalServerError, "could not get status of watcher %q", name)
		}

		status.LastConfirmedBlock = &cursor.BlockNumber
		status.LastBlockHash = cursor.BlockHash.Hex()
		status.UpdatedAt = cursor.UpdatedAt.UTC().Format(time.RFC3339)
	}

	return resp, nil
}

func (s *Server) authorized(header string) bool {
	if s.usersSecret == "" || header == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(header), []byte(s.usersSecret)) == 1
}

// parseMetadata accepts any JSON object and returns it compacted, keeping every field.
func parseMetadata(raw string) (store.UserMetadata, error) {
	var fields map[string]json.RawMessage
	err := json.Unmarshal([]byte(raw), &fields)
	if err != nil {
		return nil, err
	}
	if fields == nil {
		return nil, errors.New("metadata is null")
	}

	var buf bytes.Buffer
	err = json.Compact(&buf, []byte(raw))
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func validateAndNormalizeAddress(addr string) (string, bool) {
	addr = strings.ToLower(strings.TrimSpace(addr))
	addr = strings.TrimPrefix(addr, "0x")
	if len(addr) != 40 {
		return "", false
	}

	_, err := hex.DecodeString(addr)
	if err != nil {
		return "", false
	}

	addr = "0x" + addr
	return addr, true
}
