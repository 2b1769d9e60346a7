// internal/api/handler/respond.go
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"bank-ledger/internal/api/types"
	"bank-ledger/internal/service"
	"bank-ledger/internal/util"
)

// DefaultTimeout bounds every request handled by the router.
const DefaultTimeout = 30 * time.Second

// responder holds the JSON response helpers shared by all handlers.
type responder struct {
	logger *slog.Logger
}

// respondWithJSON sends payload as a JSON response.
func (h *responder) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

// respondWithError maps err to a status code and an ErrorResponse body.
func (h *responder) respondWithError(w http.ResponseWriter, err error) {
	body := types.ErrorResponse{
		Error:   util.ErrorCode(err),
		Message: err.Error(),
	}
	statusCode := statusFor(err)

	var compErr *service.CompensationFailedError
	var failed *service.TransactionFailedError
	var funds *util.InsufficientFundsError
	switch {
	case errors.As(err, &compErr):
		body.Message = "transfer could not be reversed; manual reconciliation required, do not retry: " + err.Error()
		body.Transaction = compErr.Transaction
		h.logger.Error("Compensation failure returned to client", "reference", compErr.Transaction.Reference, "alert", true)
	case errors.As(err, &failed):
		body.Transaction = failed.Transaction
	case errors.As(err, &funds):
		body.Available = &funds.Available
		body.Requested = &funds.Requested
	case statusCode == http.StatusInternalServerError:
		h.logger.Error("Unhandled service error", "error", err)
		body.Message = "Internal server error"
	}

	h.respondWithJSON(w, statusCode, body)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, util.ErrCompensationFailed):
		return http.StatusInternalServerError
	case errors.Is(err, util.ErrTransactionFailed):
		return http.StatusUnprocessableEntity
	case errors.Is(err, util.ErrInvalidAmount),
		errors.Is(err, util.ErrInvalidAmountFormat),
		errors.Is(err, util.ErrInvalidTransaction),
		errors.Is(err, util.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, util.ErrAccountNotFound),
		errors.Is(err, util.ErrTransactionNotFound):
		return http.StatusNotFound
	case errors.Is(err, util.ErrAccountNotActive):
		return http.StatusUnprocessableEntity
	case errors.Is(err, util.ErrInsufficientFunds):
		return http.StatusPaymentRequired
	case errors.Is(err, util.ErrConcurrentModification):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
