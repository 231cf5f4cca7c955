package api

import (
	"io"
	"log/slog"
	"net/http"

	"simple-ledger-go/common"
)

// request bodies above this are cut off and fail to decode
const MAX_BODY_BYTES = 1 << 20

func readBody(r *http.Request) []byte {
	raw, err := io.ReadAll(io.LimitReader(r.Body, MAX_BODY_BYTES))
	if err != nil {
		slog.Debug("reading request body", "path", r.URL.Path, "err", err)
	}
	return raw
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	enc, err := common.Encode(body)
	if err != nil {
		slog.Error("encoding response", "err", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(enc); err != nil {
		slog.Debug("writing response", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	slog.Warn("request failed", "status", status, "err", err)
	writeJSON(w, status, ErrorResponse{Error: err.Error()})
}
