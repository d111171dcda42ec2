package controlplane

import (
	"encoding/json"
	"net/http"

	"github.com/octaspace/transfer-manager/internal/transfererr"
)

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeErr maps err to its HTTP status via transfererr.HTTPStatus and
// writes it as an errorResponse.
func writeErr(w http.ResponseWriter, err error) {
	writeJSON(w, transfererr.HTTPStatus(err), errorResponse{Error: err.Error()})
}
