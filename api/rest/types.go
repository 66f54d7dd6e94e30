package rest

import (
	"net/http"

	"github.com/openxai/oepindexer/internal/store"
)

// request and response types are defined below
// these types can be defined as protobuf messages in a production system (specifically if using gRPC + gRPC-gateway)

type ListReservedRequest struct{}

// ListReservedResponse is encoded as a plain JSON array.
type ListReservedResponse []*store.EventRecord

type ListUsersRequest struct {
	Authorization string `json:"-"`
}

func (r *ListUsersRequest) bindRequest(req *http.Request) {
	r.Authorization = req.Header.Get("Authorization")
}

// ListUsersResponse is encoded as a plain JSON array.
type ListUsersResponse []*store.UserRecord

type SetMetadataRequest struct {
	Account string `json:"account"`
	// Metadata is a JSON object encoded as a string; the signature covers this exact string.
	Metadata  string `json:"metadata"`
	Signature string `json:"signature"`
}

type SetMetadataResponse struct {
	Ok bool `json:"ok"`
}

type GetStatusRequest struct{}

type GetStatusResponse struct {
	Watchers []*WatcherStatus `json:"watchers"`
}

type WatcherStatus struct {
	Name string `json:"name"`
	// LastConfirmedBlock is nil until the watcher stores its first cursor.
	LastConfirmedBlock *uint64 `json:"lastConfirmedBlock"`
	LastBlockHash      string  `json:"lastBlockHash,omitempty"`
	UpdatedAt          string  `json:"updatedAt,omitempty"`
}
