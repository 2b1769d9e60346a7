// internal/api/types/response.go
package types

import (
	"bank-ledger/internal/domain"

	"github.com/shopspring/decimal"
)

// ListResponse defines a generic structure for list API responses.
// T represents the type of data contained in the 'Data' slice.
type ListResponse[T any] struct {
	Data       []T `json:"data"`
	TotalCount int `json:"total_count"`
}

// NewListResponse wraps items, turning a nil slice into an empty one so clients always see an array.
func NewListResponse[T any](items []T) ListResponse[T] {
	if items == nil {
		items = []T{}
	}
	return ListResponse[T]{Data: items, TotalCount: len(items)}
}

// ErrorResponse is the body of every non-2xx response.
// Error carries a stable code from util.ErrorCode.
type ErrorResponse struct {
	Error       string              `json:"error"`
	Message     string              `json:"message"`
	Available   *decimal.Decimal    `json:"available,omitempty"`   // INSUFFICIENT_FUNDS only
	Requested   *decimal.Decimal    `json:"requested,omitempty"`   // INSUFFICIENT_FUNDS only
	Transaction *domain.Transaction `json:"transaction,omitempty"` // the audited FAILED record, when one was written
}

// DeltaRequest is the body of POST /internal/v1/accounts/{accountID}/delta.
type DeltaRequest struct {
	Delta           decimal.Decimal `json:"delta" validate:"nonzero_decimal"`
	ExpectedVersion int64           `json:"expected_version" validate:"gte=0"`
}

// DeltaResponse carries the account version after a successful delta.
type DeltaResponse struct {
	AccountID int64 `json:"account_id"`
	Version   int64 `json:"version"`
}
