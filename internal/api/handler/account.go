// internal/api/handler/account.go
package handler

import (
	"log/slog"
	"net/http"

	"bank-ledger/internal/api/types"
	"bank-ledger/internal/repository"
)

// AccountHandler exposes a BalanceStore over HTTP so another deployment can use it
// as its remote balance service. It offers no account lifecycle operations.
type AccountHandler struct {
	responder
	store repository.BalanceStore
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(store repository.BalanceStore, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{
		responder: responder{logger: logger},
		store:     store,
	}
}

// GetBalance handles GET /internal/v1/accounts/{accountID}/balance
func (h *AccountHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	accountID, err := int64Param(r, "accountID")
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	snapshot, err := h.store.GetBalance(r.Context(), accountID)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, snapshot)
}

// ApplyDelta handles POST /internal/v1/accounts/{accountID}/delta
func (h *AccountHandler) ApplyDelta(w http.ResponseWriter, r *http.Request) {
	accountID, err := int64Param(r, "accountID")
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	var req types.DeltaRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.respondWithError(w, err)
		return
	}

	version, err := h.store.ApplyDelta(r.Context(), accountID, req.Delta, req.ExpectedVersion)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, types.DeltaResponse{AccountID: accountID, Version: version})
}
