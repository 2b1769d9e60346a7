// internal/repository/remote/balance_client.go
package remote

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"bank-ledger/internal/api/types"
	"bank-ledger/internal/domain"
	"bank-ledger/internal/repository"
	"bank-ledger/internal/util"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"
)

const (
	balancePath = "/internal/v1/accounts/{accountID}/balance"
	deltaPath   = "/internal/v1/accounts/{accountID}/delta"
)

// Config holds the settings for the remote balance service client.
type Config struct {
	BaseURL             string
	Timeout             time.Duration // per HTTP request
	ConsecutiveFailures uint32        // failures before the breaker opens
	OpenTimeout         time.Duration // how long the breaker stays open before probing
}

// BalanceClient implements repository.BalanceStore against an independent account service.
// Business rejections from the service (not found, not active, version conflicts, overdraft)
// are mapped back to their sentinels and do not count against the circuit breaker.
type BalanceClient struct {
	http    *resty.Client
	breaker *gobreaker.CircuitBreaker
	logger  *slog.Logger
}

// NewBalanceClient creates a new BalanceClient.
func NewBalanceClient(cfg Config, logger *slog.Logger) *BalanceClient {
	if cfg.ConsecutiveFailures == 0 {
		cfg.ConsecutiveFailures = 5
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}

	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json")

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "balance-service",
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || util.ErrorCode(err) != util.CodeInternal
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})

	return &BalanceClient{http: client, breaker: breaker, logger: logger}
}

// GetBalance fetches the account snapshot from the balance service.
func (c *BalanceClient) GetBalance(ctx context.Context, accountID int64) (domain.BalanceSnapshot, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		var snapshot domain.BalanceSnapshot
		var apiErr types.ErrorResponse
		resp, err := c.http.R().
			SetContext(ctx).
			SetPathParam("accountID", strconv.FormatInt(accountID, 10)).
			SetResult(&snapshot).
			SetError(&apiErr).
			Get(balancePath)
		if err != nil {
			return nil, fmt.Errorf("balance service: get balance of account %d: %w", accountID, err)
		}
		if resp.IsError() {
			return nil, decodeError(resp.StatusCode(), &apiErr)
		}
		return snapshot, nil
	})
	if err != nil {
		return domain.BalanceSnapshot{}, c.breakerError(err)
	}
	return result.(domain.BalanceSnapshot), nil
}

// ApplyDelta asks the balance service to apply delta at expectedVersion and returns the new version.
func (c *BalanceClient) ApplyDelta(ctx context.Context, accountID int64, delta decimal.Decimal, expectedVersion int64) (int64, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		var out types.DeltaResponse
		var apiErr types.ErrorResponse
		resp, err := c.http.R().
			SetContext(ctx).
			SetPathParam("accountID", strconv.FormatInt(accountID, 10)).
			SetBody(types.DeltaRequest{Delta: delta, ExpectedVersion: expectedVersion}).
			SetResult(&out).
			SetError(&apiErr).
			Post(deltaPath)
		if err != nil {
			return nil, fmt.Errorf("balance service: apply delta to account %d: %w", accountID, err)
		}
		if resp.IsError() {
			return nil, decodeError(resp.StatusCode(), &apiErr)
		}
		return out.Version, nil
	})
	if err != nil {
		return 0, c.breakerError(err)
	}
	return result.(int64), nil
}

func (c *BalanceClient) breakerError(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		c.logger.Warn("Balance service call rejected by circuit breaker", "error", err)
		return fmt.Errorf("balance service unavailable: %w", err)
	}
	return err
}

// decodeError maps an error body back to the sentinel named by its code.
func decodeError(status int, body *types.ErrorResponse) error {
	sentinel := util.ErrorFromCode(body.Error)
	if sentinel == nil {
		return fmt.Errorf("balance service returned HTTP %d: %s", status, body.Message)
	}
	if errors.Is(sentinel, util.ErrInsufficientFunds) && body.Available != nil && body.Requested != nil {
		return &util.InsufficientFundsError{Available: *body.Available, Requested: *body.Requested}
	}
	return fmt.Errorf("balance service: %s: %w", body.Message, sentinel)
}

// Compile-time check: ensure BalanceClient implements repository.BalanceStore
var _ repository.BalanceStore = (*BalanceClient)(nil)
