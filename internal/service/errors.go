// internal/service/errors.go
package service

import (
	"fmt"

	"bank-ledger/internal/domain"
	"bank-ledger/internal/util"
)

// CompensationFailedReason prefixes the failure reason of a transfer whose compensating credit failed.
const CompensationFailedReason = "compensation failed — manual reconciliation required"

// TransactionFailedError is returned when a transaction row was written and ended FAILED.
// It matches util.ErrTransactionFailed and the underlying cause.
type TransactionFailedError struct {
	Transaction *domain.Transaction
	Cause       error
}

func (e *TransactionFailedError) Error() string {
	return fmt.Sprintf("transaction %s failed: %s", e.Transaction.Reference, failureReason(e.Transaction))
}

func (e *TransactionFailedError) Unwrap() []error {
	if e.Cause == nil {
		return []error{util.ErrTransactionFailed}
	}
	return []error{util.ErrTransactionFailed, e.Cause}
}

// CompensationFailedError is returned when a transfer debited the source, failed to credit the
// destination, and could not restore the source. Balances and ledger disagree until an operator
// reconciles them. It matches util.ErrCompensationFailed and never util.ErrTransactionFailed.
type CompensationFailedError struct {
	Transaction     *domain.Transaction
	CreditErr       error
	CompensationErr error
}

func (e *CompensationFailedError) Error() string {
	return fmt.Sprintf("transaction %s: %s", e.Transaction.Reference, failureReason(e.Transaction))
}

func (e *CompensationFailedError) Unwrap() []error {
	errs := []error{util.ErrCompensationFailed}
	if e.CompensationErr != nil {
		errs = append(errs, e.CompensationErr)
	}
	return errs
}

func failureReason(tx *domain.Transaction) string {
	if tx.FailureReason == nil {
		return "unknown reason"
	}
	return *tx.FailureReason
}
