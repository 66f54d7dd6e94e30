package rest_test

import (
	"context"
	"errors"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	restapi "github.com/openxai/oepindexer/api/rest"
	"github.com/openxai/oepindexer/api/rest/mocks"
	"github.com/openxai/oepindexer/internal/sigverify"
	"github.com/openxai/oepindexer/internal/store"
	"github.com/openxai/oepindexer/internal/store/docstore"
	"github.com/openxai/oepindexer/internal/store/memdb"
	"github.com/openxai/oepindexer/internal/users"
)

//go:generate moq -out mocks/reserved_store.go -pkg mocks -skip-ensure . ReservedStore
//go:generate moq -out mocks/user_store.go -pkg mocks -skip-ensure . UserStore
//go:generate moq -out mocks/signature_verifier.go -pkg mocks -skip-ensure . SignatureVerifier
//go:generate moq -out mocks/cursor_store.go -pkg mocks -skip-ensure . CursorStore

const (
	validAddr = "0x7a250d5630b4cf539739df2c5dacb4c659f2488d"
	secret    = "s3cret"
)

func assertErr(t *testing.T, expected *restapi.Err, err error) {
	t.Helper()
	require.Error(t, err)
	castedErr := &restapi.Err{}
	if errors.As(err, &castedErr) {
		assert.Equal(t, expected, castedErr)
		return
	}
	assert.Equal(t, expected.Message, err.Error())
}

func TestListReserved(t *testing.T) {
	events := []*store.EventRecord{{
		ChainID:         1,
		BlockNumber:     1,
		TransactionHash: common.HexToHash("0xabc"),
		Account:         common.HexToAddress("0x1"),
		Amount:          big.NewInt(100),
	}}

	tests := map[string]struct {
		storeResp    []*store.EventRecord
		storeErr     error
		expectedResp *restapi.ListReservedResponse
		expectedErr  *restapi.Err
	}{
		"success": {
			storeResp:    events,
			expectedResp: ptr(restapi.ListReservedResponse(events)),
		},
		"no events yet": {
			expectedResp: &restapi.ListReservedResponse{},
		},
		"store failure": {
			storeErr: errors.New("dummy error"),
			expectedErr: &restapi.Err{
				StatusCode: http.StatusInternalServerError,
				Message:    "could not list reserved events",
			},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			storeMock := &mocks.ReservedStoreMock{
				ListFunc: func(ctx context.Context) ([]*store.EventRecord, error) {
					return test.storeResp, test.storeErr
				},
			}
			s := restapi.NewServer(logrus.New(), storeMock, nil, nil, nil, nil, "")
			resp, err := s.ListReserved(context.Background(), &restapi.ListReservedRequest{})
			assert.Len(t, storeMock.ListCalls(), 1)
			if test.expectedErr != nil {
				assertErr(t, test.expectedErr, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, test.expectedResp, resp)
		})
	}
}

func TestListUsers(t *testing.T) {
	records := []*store.UserRecord{{
		Account:  validAddr,
		Metadata: store.UserMetadata(`{"name":"alice"}`),
	}}

	tests := map[string]struct {
		secret             string
		req                *restapi.ListUsersRequest
		storeErr           error
		expectedStoreCalls int
		expectedResp       *restapi.ListUsersResponse
		expectedErr        *restapi.Err
	}{
		"authorized": {
			secret:             secret,
			req:                &restapi.ListUsersRequest{Authorization: secret},
			expectedStoreCalls: 1,
			expectedResp:       ptr(restapi.ListUsersResponse(records)),
		},
		"missing header": {
			secret: secret,
			req:    &restapi.ListUsersRequest{},
			expectedErr: &restapi.Err{
				StatusCode: http.StatusBadRequest,
				Message:    restapi.UnauthorizedMessage,
			},
		},
		"wrong secret": {
			secret: secret,
			req:    &restapi.ListUsersRequest{Authorization: "guess"},
			expectedErr: &restapi.Err{
				StatusCode: http.StatusBadRequest,
				Message:    restapi.UnauthorizedMessage,
			},
		},
		"no secret configured": {
			req: &restapi.ListUsersRequest{Authorization: ""},
			expectedErr: &restapi.Err{
				StatusCode: http.StatusBadRequest,
				Message:    restapi.UnauthorizedMessage,
			},
		},
		"store failure": {
			secret:             secret,
			req:                &restapi.ListUsersRequest{Authorization: secret},
			storeErr:           errors.New("dummy error"),
			expectedStoreCalls: 1,
			expectedErr: &restapi.Err{
				StatusCode: http.StatusInternalServerError,
				Message:    "could not list users",
			},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			storeMock := &mocks.UserStoreMock{
				ListFunc: func(ctx context.Context) ([]*store.UserRecord, error) {
					return records, test.storeErr
				},
			}
			s := restapi.NewServer(logrus.New(), nil, storeMock, nil, nil, nil, test.secret)
			resp, err := s.ListUsers(context.Background(), test.req)
			assert.Equal(t, test.expectedStoreCalls, len(storeMock.ListCalls()))
			if test.expectedErr != nil {
				assertErr(t, test.expectedErr, err)
				assert.Nil(t, resp)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, test.expectedResp, resp)
		})
	}
}

func TestSetMetadata(t *testing.T) {
	validSig := "0x" + strings.Repeat("ab", 65)

	tests := map[string]struct {
		req                   *restapi.SetMetadataRequest
		verifyErr             error
		storeErr              error
		expectedVerifierCalls int
		expectedStoreCalls    int
		expectedMetadata      string
		expectedResp          *restapi.SetMetadataResponse
		expectedErr           *restapi.Err
	}{
		"success": {
			req: &restapi.SetMetadataRequest{
				Account:   strings.ToUpper(validAddr[2:]),
				Metadata:  `{"name": "alice", "country": "NL", "telegram": "@alice", "tags": ["a", 1]}`,
				Signature: validSig,
			},
			expectedVerifierCalls: 1,
			expectedStoreCalls:    1,
			expectedMetadata:      `{"name":"alice","country":"NL","telegram":"@alice","tags":["a",1]}`,
			expectedResp:          &restapi.SetMetadataResponse{Ok: true},
		},
		"empty account": {
			req: &restapi.SetMetadataRequest{
				Metadata:  `{}`,
				Signature: validSig,
			},
			expectedErr: &restapi.Err{
				StatusCode: http.StatusBadRequest,
				Message:    "Missing required field: 'account'",
			},
		},
		"invalid account": {
			req: &restapi.SetMetadataRequest{
				Account:   "0xZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZ",
				Metadata:  `{}`,
				Signature: validSig,
			},
			expectedErr: &restapi.Err{
				StatusCode: http.StatusBadRequest,
				Message:    restapi.InvalidAddrMessage,
			},
		},
		"missing metadata": {
			req: &restapi.SetMetadataRequest{
				Account:   validAddr,
				Signature: validSig,
			},
			expectedErr: &restapi.Err{
				StatusCode: http.StatusBadRequest,
				Message:    "Missing required field: 'metadata'",
			},
		},
		"metadata is not a json object": {
			req: &restapi.SetMetadataRequest{
				Account:   validAddr,
				Metadata:  `alice`,
				Signature: validSig,
			},
			expectedErr: &restapi.Err{
				StatusCode: http.StatusBadRequest,
				Message:    "Invalid field 'metadata': expected a JSON object encoded as a string",
			},
		},
		"metadata is null": {
			req: &restapi.SetMetadataRequest{
				Account:   validAddr,
				Metadata:  `null`,
				Signature: validSig,
			},
			expectedErr: &restapi.Err{
				StatusCode: http.StatusBadRequest,
				Message:    "Invalid field 'metadata': expected a JSON object encoded as a string",
			},
		},
		"metadata is an array": {
			req: &restapi.SetMetadataRequest{
				Account:   validAddr,
				Metadata:  `[{"name":"alice"}]`,
				Signature: validSig,
			},
			expectedErr: &restapi.Err{
				StatusCode: http.StatusBadRequest,
				Message:    "Invalid field 'metadata': expected a JSON object encoded as a string",
			},
		},
		"signature is not hex": {
			req: &restapi.SetMetadataRequest{
				Account:   validAddr,
				Metadata:  `{}`,
				Signature: "zz",
			},
			expectedErr: &restapi.Err{
				StatusCode: http.StatusBadRequest,
				Message:    "Invalid field 'signature': expected a 0x-prefixed hex string",
			},
		},
		"invalid signature": {
			req: &restapi.SetMetadataRequest{
				Account:   validAddr,
				Metadata:  `{"name":"mallory"}`,
				Signature: validSig,
			},
			verifyErr:             sigverify.ErrInvalidSignature,
			expectedVerifierCalls: 1,
			expectedErr: &restapi.Err{
				StatusCode: http.StatusBadRequest,
				Message:    restapi.InvalidSignatureMessage,
			},
		},
		"verifier failure": {
			req: &restapi.SetMetadataRequest{
				Account:   validAddr,
				Metadata:  `{}`,
				Signature: validSig,
			},
			verifyErr:             context.DeadlineExceeded,
			expectedVerifierCalls: 1,
			expectedErr: &restapi.Err{
				StatusCode: http.StatusInternalServerError,
				Message:    "could not verify signature",
			},
		},
		"store failure": {
			req: &restapi.SetMetadataRequest{
				Account:   validAddr,
				Metadata:  `{}`,
				Signature: validSig,
			},
			storeErr:              store.ErrLockTimeout,
			expectedVerifierCalls: 1,
			expectedStoreCalls:    1,
			expectedErr: &restapi.Err{
				StatusCode: http.StatusInternalServerError,
				Message:    "could not store user metadata",
			},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			verifierMock := &mocks.SignatureVerifierMock{
				VerifyFunc: func(ctx context.Context, account common.Address, metadata string, sig []byte) error {
					assert.Equal(t, common.HexToAddress(validAddr), account)
					assert.Equal(t, test.req.Metadata, metadata)
					assert.Len(t, sig, 65)
					return test.verifyErr
				},
			}
			storeMock := &mocks.UserStoreMock{
				SetMetadataFunc: func(ctx context.Context, account string, metadata store.UserMetadata) (*store.UserRecord, error) {
					assert.Equal(t, validAddr, account)
					return &store.UserRecord{Account: account, Metadata: metadata}, test.storeErr
				},
			}

			s := restapi.NewServer(logrus.New(), nil, storeMock, verifierMock, nil, nil, secret)
			resp, err := s.SetMetadata(context.Background(), test.req)
			assert.Equal(t, test.expectedVerifierCalls, len(verifierMock.VerifyCalls()))
			assert.Equal(t, test.expectedStoreCalls, len(storeMock.SetMetadataCalls()))
			if test.expectedErr != nil {
				assertErr(t, test.expectedErr, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, test.expectedResp, resp)
			assert.Equal(t, test.expectedMetadata, string(storeMock.SetMetadataCalls()[0].Metadata))
		})
	}
}

func TestGetStatus(t *testing.T) {
	updatedAt := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	cursorsMock := &mocks.CursorStoreMock{
		GetCursorFunc: func(ctx context.Context, name string) (*store.Cursor, error) {
			if name == "base" {
				return nil, store.ErrNotFound
			}
			return &store.Cursor{
				BlockNumber: 42,
				BlockHash:   common.HexToHash("0x2a"),
				UpdatedAt:   updatedAt,
			}, nil
		},
	}

	s := restapi.NewServer(logrus.New(), nil, nil, nil, cursorsMock, []string{"ethereum", "base"}, "")
	resp, err := s.GetStatus(context.Background(), &restapi.GetStatusRequest{})
	require.NoError(t, err)
	assert.Equal(t, &restapi.GetStatusResponse{
		Watchers: []*restapi.WatcherStatus{
			{
				Name:               "ethereum",
				LastConfirmedBlock: ptr[uint64](42),
				LastBlockHash:      common.HexToHash("0x2a").Hex(),
				UpdatedAt:          "2025-01-02T03:04:05Z",
			},
			{
				Name: "base",
			},
		},
	}, resp)

	cursorsMock.GetCursorFunc = func(ctx context.Context, name string) (*store.Cursor, error) {
		return nil, store.ErrLockTimeout
	}
	_, err = s.GetStatus(context.Background(), &restapi.GetStatusRequest{})
	assertErr(t, &restapi.Err{
		StatusCode: http.StatusInternalServerError,
		Message:    `could not get status of watcher "ethereum"`,
	}, err)
}

// TestRoutes drives the registered routes end to end over a real user registry.
func TestRoutes(t *testing.T) {
	s := docstore.New(logrus.New(), memdb.NewDocumentStore())
	registry := users.NewRegistry(logrus.New(), docstore.NewDocument(s, store.UsersKey, func() map[string]*store.UserRecord {
		return map[string]*store.UserRecord{}
	}))
	_, err := registry.SetMetadata(context.Background(), validAddr, store.UserMetadata(`{"name":"alice","telegram":"@alice"}`))
	require.NoError(t, err)

	verifierMock := &mocks.SignatureVerifierMock{
		VerifyFunc: func(context.Context, common.Address, string, []byte) error {
			return sigverify.ErrInvalidSignature
		},
	}
	reservedMock := &mocks.ReservedStoreMock{
		ListFunc: func(context.Context) ([]*store.EventRecord, error) {
			return nil, nil
		},
	}

	mux := http.NewServeMux()
	restapi.NewServer(logrus.New(), reservedMock, registry, verifierMock, nil, nil, secret).Register(mux)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	tests := map[string]struct {
		method         string
		path           string
		body           string
		authorization  string
		expectedStatus int
		expectedBody   string
	}{
		"reserved events": {
			method:         http.MethodGet,
			path:           "/indexer/reserved",
			expectedStatus: http.StatusOK,
			expectedBody:   `[]`,
		},
		"users without authorization": {
			method:         http.MethodGet,
			path:           "/indexer/users",
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"message":"` + restapi.UnauthorizedMessage + `"}`,
		},
		"users with wrong authorization": {
			method:         http.MethodGet,
			path:           "/indexer/users",
			authorization:  "guess",
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"message":"` + restapi.UnauthorizedMessage + `"}`,
		},
		"set metadata with invalid signature": {
			method:         http.MethodPost,
			path:           "/indexer/setMetadata",
			body:           `{"account":"` + validAddr + `","metadata":"{\"name\":\"mallory\"}","signature":"0x01"}`,
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"message":"` + restapi.InvalidSignatureMessage + `"}`,
		},
		"set metadata with malformed body": {
			method:         http.MethodPost,
			path:           "/indexer/setMetadata",
			body:           `{"account":`,
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"message":"Invalid request body"}`,
		},
		"users with authorization": {
			method:         http.MethodGet,
			path:           "/indexer/users",
			authorization:  secret,
			expectedStatus: http.StatusOK,
			expectedBody:   `[{"account":"` + validAddr + `","metadata":{"name":"alice","telegram":"@alice"},"updatedAt":"*"}]`,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			req, err := http.NewRequest(test.method, srv.URL+test.path, strings.NewReader(test.body))
			require.NoError(t, err)
			if test.authorization != "" {
				req.Header.Set("Authorization", test.authorization)
			}

			resp, err := srv.Client().Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, test.expectedStatus, resp.StatusCode)
			assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
			body := readBody(t, resp)
			if prefix, ok := strings.CutSuffix(test.expectedBody, `"*"}]`); ok {
				assert.True(t, strings.HasPrefix(body, prefix), body)
				return
			}
			assert.JSONEq(t, test.expectedBody, body)
		})
	}

	// the rejected submission left the stored users untouched
	records, err := registry.List(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.JSONEq(t, `{"name":"alice","telegram":"@alice"}`, string(records[0].Metadata))
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	var sb strings.Builder
	_, err := io.Copy(&sb, resp.Body)
	require.NoError(t, err)
	return sb.String()
}

func ptr[T any](v T) *T {
	return &v
}
