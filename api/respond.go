// Package api is the HTTP surface of the service: routing, request
// validation and the JSON wire shapes for accounts, products and orders.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/nexusware/customer-order/orders"
	"github.com/nexusware/customer-order/tablestore"
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorBody{Error: message})
}

// writeRepoError maps repository failures onto status codes: duplicate keys
// and rejected lifecycle transitions are client conflicts, everything else is
// a server error.
func writeRepoError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case tablestore.IsConflict(err):
		writeError(w, http.StatusConflict, "resource already exists")
	case errors.Is(err, orders.ErrInvalidTransition):
		writeError(w, http.StatusConflict, err.Error())
	case tablestore.IsNotFound(err):
		writeError(w, http.StatusNotFound, "resource not found")
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("request failed")
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
