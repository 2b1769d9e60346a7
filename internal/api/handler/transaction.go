// internal/api/handler/transaction.go
package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"bank-ledger/internal/api/types"
	"bank-ledger/internal/service"
	"bank-ledger/internal/util"
)

// TransactionHandler handles HTTP requests for movements and ledger queries.
type TransactionHandler struct {
	responder
	service service.TransactionService
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(svc service.TransactionService, logger *slog.Logger) *TransactionHandler {
	return &TransactionHandler{
		responder: responder{logger: logger},
		service:   svc,
	}
}

// DepositRequest represents the request body for deposit.
// Amount rules are enforced by the engine so clients get the specific error code.
type DepositRequest struct {
	AccountID   int64           `json:"account_id" validate:"required,gt=0"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description" validate:"max=500"`
}

// WithdrawRequest represents the request body for withdraw.
type WithdrawRequest struct {
	AccountID   int64           `json:"account_id" validate:"required,gt=0"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description" validate:"max=500"`
}

// TransferRequest represents the request body for transfer.
type TransferRequest struct {
	SourceAccountID      int64           `json:"source_account_id" validate:"required,gt=0"`
	DestinationAccountID int64           `json:"destination_account_id" validate:"required,gt=0"`
	Amount               decimal.Decimal `json:"amount"`
	Description          string          `json:"description" validate:"max=500"`
}

// Deposit handles the deposit request.
// POST /api/v1/transactions/deposit
func (h *TransactionHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	var req DepositRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.respondWithError(w, err)
		return
	}

	tx, err := h.service.Deposit(r.Context(), req.AccountID, req.Amount, req.Description)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusCreated, tx)
}

// Withdraw handles the withdraw request.
// POST /api/v1/transactions/withdraw
func (h *TransactionHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	var req WithdrawRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.respondWithError(w, err)
		return
	}

	tx, err := h.service.Withdraw(r.Context(), req.AccountID, req.Amount, req.Description)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusCreated, tx)
}

// Transfer handles the transfer request.
// POST /api/v1/transactions/transfer
func (h *TransactionHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	var req TransferRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.respondWithError(w, err)
		return
	}

	tx, err := h.service.Transfer(r.Context(), req.SourceAccountID, req.DestinationAccountID, req.Amount, req.Description)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusCreated, tx)
}

// GetByID handles GET /api/v1/transactions/{id}
func (h *TransactionHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := int64Param(r, "id")
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	tx, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, tx)
}

// GetByReference handles GET /api/v1/transactions/reference/{reference}
func (h *TransactionHandler) GetByReference(w http.ResponseWriter, r *http.Request) {
	tx, err := h.service.GetByReference(r.Context(), chi.URLParam(r, "reference"))
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, tx)
}

// ListByAccount handles GET /api/v1/transactions/account/{accountID}
func (h *TransactionHandler) ListByAccount(w http.ResponseWriter, r *http.Request) {
	accountID, err := int64Param(r, "accountID")
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	txs, err := h.service.ListByAccount(r.Context(), accountID)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, types.NewListResponse(txs))
}

// ListByAccountAndDateRange handles
// GET /api/v1/transactions/account/{accountID}/date-range?start_date=...&end_date=...
// Both dates are RFC 3339 timestamps and the range is inclusive.
func (h *TransactionHandler) ListByAccountAndDateRange(w http.ResponseWriter, r *http.Request) {
	accountID, err := int64Param(r, "accountID")
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	from, err := timeQuery(r, "start_date")
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	to, err := timeQuery(r, "end_date")
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	txs, err := h.service.ListByAccountAndDateRange(r.Context(), accountID, from, to)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, types.NewListResponse(txs))
}

// ListAll handles GET /api/v1/transactions
func (h *TransactionHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	txs, err := h.service.ListAll(r.Context())
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, types.NewListResponse(txs))
}

func timeQuery(r *http.Request, name string) (time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return time.Time{}, fmt.Errorf("%w: %s is required", util.ErrInvalidInput, name)
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s must be an RFC 3339 timestamp, got %q", util.ErrInvalidInput, name, raw)
	}
	return t, nil
}
