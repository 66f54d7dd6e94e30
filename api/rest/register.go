package rest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"
)

const (
	maxRequestBodySize = 1 << 20
)

// requestBinder is implemented by requests carrying values outside the JSON body, such as
// path values or headers.
type requestBinder interface {
	bindRequest(r *http.Request)
}

// HandlerFunc is a typed handler. Returned *Err values are sent to the client as is, any other
// error results in a 500.
type HandlerFunc[Req, Resp any] func(ctx context.Context, req *Req) (*Resp, error)

// RegisterFunc registers handler on mux for method and pattern, decoding the JSON request body
// (if any) into Req and encoding the returned Resp as JSON.
func RegisterFunc[Req, Resp any](logger *logrus.Logger, mux *http.ServeMux, method, pattern string, handler HandlerFunc[Req, Resp]) {
	mux.HandleFunc(method+" "+pattern, func(w http.ResponseWriter, r *http.Request) {
		logger := logger.WithFields(logrus.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
		})

		req := new(Req)
		err := decodeBody(w, r, req)
		if err != nil {
			logger.WithError(err).Warn("Failed to decode request body")
			writeErr(logger, w, NewErrf(http.StatusBadRequest, "Invalid request body"))
			return
		}
		if binder, ok := any(req).(requestBinder); ok {
			binder.bindRequest(r)
		}

		resp, err := handler(r.Context(), req)
		if err != nil {
			writeErr(logger, w, err)
			return
		}

		writeJSON(logger, w, http.StatusOK, resp)
	})
}

func decodeBody(w http.ResponseWriter, r *http.Request, req any) error {
	if r.Body == nil || r.Body == http.NoBody {
		return nil
	}

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodySize))
	err := dec.Decode(req)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func writeErr(logger *logrus.Entry, w http.ResponseWriter, err error) {
	var apiErr *Err
	if !errors.As(err, &apiErr) {
		logger.WithError(err).Error("Handler failed with an unexpected error")
		apiErr = NewErrf(http.StatusInternalServerError, "Internal server error")
	}
	writeJSON(logger, w, apiErr.StatusCode, apiErr)
}

func writeJSON(logger *logrus.Entry, w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		logger.WithError(err).Error("Failed to write response")
	}
}
