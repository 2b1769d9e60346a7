// internal/api/api_integration_test.go
package api_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	app "bank-ledger/internal"
	"bank-ledger/internal/api/types"
	"bank-ledger/internal/domain"
	"bank-ledger/internal/util"
)

// testApp is the global application instance for testing.
var testApp *app.Application

// testServer is the httptest server.
var testServer *httptest.Server

// TestMain boots the whole application on in-memory storage.
func TestMain(m *testing.M) {
	setupEnvVars()

	testApp = app.NewApplication()
	if err := testApp.Initialize(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize test application: %v\n", err)
		os.Exit(1)
	}

	testServer = httptest.NewServer(testApp.HTTPHandler)
	code := m.Run()
	testServer.Close()

	if err := testApp.Shutdown(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to shutdown test application: %v\n", err)
		os.Exit(1)
	}
	os.Exit(code)
}

func setupEnvVars() {
	os.Setenv("STORAGE_DRIVER", "memory")
	os.Setenv("LOG_LEVEL", "error")
	for _, key := range []string{"BALANCE_SERVICE_URL", "REDIS_ADDR", "KAFKA_BROKERS"} {
		os.Setenv(key, "")
	}
}

var nextAccountID int64 = 1000

// seedAccount adds an account to the in-memory balance store and returns its id.
func seedAccount(t *testing.T, balance string, status domain.AccountStatus) int64 {
	t.Helper()
	nextAccountID++
	testApp.MemoryAccounts.Put(domain.Account{
		ID:      nextAccountID,
		Balance: decimal.RequireFromString(balance),
		Status:  status,
	})
	return nextAccountID
}

func balanceOf(t *testing.T, accountID int64) decimal.Decimal {
	t.Helper()
	snapshot, err := testApp.MemoryAccounts.GetBalance(context.Background(), accountID)
	require.NoError(t, err)
	return snapshot.Balance
}

func doRequest(t *testing.T, method, path, body string) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, testServer.URL+path, reader)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func decodeTransaction(t *testing.T, data []byte) domain.Transaction {
	t.Helper()
	var tx domain.Transaction
	require.NoError(t, json.Unmarshal(data, &tx), string(data))
	return tx
}

func decodeError(t *testing.T, data []byte) types.ErrorResponse {
	t.Helper()
	var body types.ErrorResponse
	require.NoError(t, json.Unmarshal(data, &body), string(data))
	return body
}

func TestHealth(t *testing.T) {
	status, body := doRequest(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "OK", string(body))
}

func TestDepositAndWithdraw(t *testing.T) {
	accountID := seedAccount(t, "1000.00", domain.AccountStatusActive)

	status, data := doRequest(t, http.MethodPost, "/api/v1/transactions/deposit",
		fmt.Sprintf(`{"account_id": %d, "amount": "500.00", "description": "Salary"}`, accountID))
	require.Equal(t, http.StatusCreated, status, string(data))
	deposit := decodeTransaction(t, data)
	assert.Equal(t, domain.TransactionTypeDeposit, deposit.Type)
	assert.Equal(t, domain.TransactionStatusCompleted, deposit.Status)
	assert.Equal(t, "Salary", deposit.Description)
	assert.True(t, decimal.RequireFromString("1500.00").Equal(deposit.BalanceAfterTransaction))
	assert.NotEmpty(t, deposit.Reference)
	assert.NotNil(t, deposit.CompletedAt)

	status, data = doRequest(t, http.MethodPost, "/api/v1/transactions/withdraw",
		fmt.Sprintf(`{"account_id": %d, "amount": 2000}`, accountID))
	require.Equal(t, http.StatusPaymentRequired, status, string(data))
	rejected := decodeError(t, data)
	assert.Equal(t, util.CodeInsufficientFunds, rejected.Error)
	require.NotNil(t, rejected.Available)
	require.NotNil(t, rejected.Requested)
	assert.True(t, decimal.RequireFromString("1500.00").Equal(*rejected.Available))
	assert.True(t, decimal.RequireFromString("2000").Equal(*rejected.Requested))

	status, data = doRequest(t, http.MethodPost, "/api/v1/transactions/withdraw",
		fmt.Sprintf(`{"account_id": %d, "amount": "1500.00"}`, accountID))
	require.Equal(t, http.StatusCreated, status, string(data))
	withdrawal := decodeTransaction(t, data)
	assert.Equal(t, "Withdrawal", withdrawal.Description)
	assert.True(t, withdrawal.BalanceAfterTransaction.IsZero())
	assert.True(t, balanceOf(t, accountID).IsZero())

	// The rejected withdrawal left no record.
	status, data = doRequest(t, http.MethodGet, fmt.Sprintf("/api/v1/transactions/account/%d", accountID), "")
	require.Equal(t, http.StatusOK, status)
	var list types.ListResponse[domain.Transaction]
	require.NoError(t, json.Unmarshal(data, &list))
	assert.Equal(t, 2, list.TotalCount)
}

func TestMovementValidation(t *testing.T) {
	active := seedAccount(t, "100.00", domain.AccountStatusActive)
	frozen := seedAccount(t, "100.00", domain.AccountStatusSuspended)

	tests := []struct {
		name   string
		path   string
		body   string
		status int
		code   string
	}{
		{"malformed json", "/api/v1/transactions/deposit", `{"account_id":`, http.StatusBadRequest, util.CodeInvalidInput},
		{"unknown field", "/api/v1/transactions/deposit", fmt.Sprintf(`{"account_id": %d, "amount": "1", "currency": "EUR"}`, active), http.StatusBadRequest, util.CodeInvalidInput},
		{"missing account", "/api/v1/transactions/deposit", `{"amount": "1"}`, http.StatusBadRequest, util.CodeInvalidInput},
		{"zero amount", "/api/v1/transactions/deposit", fmt.Sprintf(`{"account_id": %d, "amount": "0"}`, active), http.StatusBadRequest, util.CodeInvalidAmount},
		{"three decimals", "/api/v1/transactions/withdraw", fmt.Sprintf(`{"account_id": %d, "amount": "1.005"}`, active), http.StatusBadRequest, util.CodeInvalidAmountFormat},
		{"unknown account", "/api/v1/transactions/deposit", `{"account_id": 999999, "amount": "1"}`, http.StatusNotFound, util.CodeAccountNotFound},
		{"inactive account", "/api/v1/transactions/withdraw", fmt.Sprintf(`{"account_id": %d, "amount": "1"}`, frozen), http.StatusUnprocessableEntity, util.CodeAccountNotActive},
		{"self transfer", "/api/v1/transactions/transfer", fmt.Sprintf(`{"source_account_id": %d, "destination_account_id": %d, "amount": "1"}`, active, active), http.StatusBadRequest, util.CodeInvalidTransaction},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, data := doRequest(t, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.status, status, string(data))
			assert.Equal(t, tt.code, decodeError(t, data).Error)
		})
	}

	assert.True(t, decimal.RequireFromString("100.00").Equal(balanceOf(t, active)))
	status, data := doRequest(t, http.MethodGet, fmt.Sprintf("/api/v1/transactions/account/%d", active), "")
	require.Equal(t, http.StatusOK, status)
	var list types.ListResponse[domain.Transaction]
	require.NoError(t, json.Unmarshal(data, &list))
	assert.Empty(t, list.Data)
}

func TestTransferAndQueries(t *testing.T) {
	source := seedAccount(t, "300.00", domain.AccountStatusActive)
	destination := seedAccount(t, "50.00", domain.AccountStatusActive)
	before := time.Now().UTC().Add(-time.Minute)

	status, data := doRequest(t, http.MethodPost, "/api/v1/transactions/transfer",
		fmt.Sprintf(`{"source_account_id": %d, "destination_account_id": %d, "amount": "120.50", "description": "Rent"}`, source, destination))
	require.Equal(t, http.StatusCreated, status, string(data))
	tx := decodeTransaction(t, data)
	assert.Equal(t, domain.TransactionTypeTransfer, tx.Type)
	assert.Equal(t, domain.TransactionStatusCompleted, tx.Status)
	require.NotNil(t, tx.DestinationAccountID)
	assert.Equal(t, destination, *tx.DestinationAccountID)
	assert.True(t, decimal.RequireFromString("179.50").Equal(tx.BalanceAfterTransaction))

	assert.True(t, decimal.RequireFromString("179.50").Equal(balanceOf(t, source)))
	assert.True(t, decimal.RequireFromString("170.50").Equal(balanceOf(t, destination)))

	t.Run("by id", func(t *testing.T) {
		status, data := doRequest(t, http.MethodGet, fmt.Sprintf("/api/v1/transactions/%d", tx.ID), "")
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, tx.Reference, decodeTransaction(t, data).Reference)
	})

	t.Run("by reference", func(t *testing.T) {
		status, data := doRequest(t, http.MethodGet, "/api/v1/transactions/reference/"+tx.Reference, "")
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, tx.ID, decodeTransaction(t, data).ID)
	})

	t.Run("destination sees the transfer", func(t *testing.T) {
		status, data := doRequest(t, http.MethodGet, fmt.Sprintf("/api/v1/transactions/account/%d", destination), "")
		require.Equal(t, http.StatusOK, status)
		var list types.ListResponse[domain.Transaction]
		require.NoError(t, json.Unmarshal(data, &list))
		require.Len(t, list.Data, 1)
		assert.Equal(t, tx.ID, list.Data[0].ID)
	})

	t.Run("date range", func(t *testing.T) {
		q := url.Values{}
		q.Set("start_date", before.Format(time.RFC3339))
		q.Set("end_date", time.Now().UTC().Add(time.Minute).Format(time.RFC3339))
		status, data := doRequest(t, http.MethodGet, fmt.Sprintf("/api/v1/transactions/account/%d/date-range?%s", source, q.Encode()), "")
		require.Equal(t, http.StatusOK, status, string(data))
		var list types.ListResponse[domain.Transaction]
		require.NoError(t, json.Unmarshal(data, &list))
		assert.Equal(t, 1, list.TotalCount)

		q.Set("start_date", before.Add(time.Hour).Format(time.RFC3339))
		q.Set("end_date", before.Format(time.RFC3339))
		status, data = doRequest(t, http.MethodGet, fmt.Sprintf("/api/v1/transactions/account/%d/date-range?%s", source, q.Encode()), "")
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, util.CodeInvalidInput, decodeError(t, data).Error)

		status, _ = doRequest(t, http.MethodGet, fmt.Sprintf("/api/v1/transactions/account/%d/date-range?start_date=yesterday", source), "")
		assert.Equal(t, http.StatusBadRequest, status)
	})

	t.Run("list all", func(t *testing.T) {
		status, data := doRequest(t, http.MethodGet, "/api/v1/transactions/", "")
		require.Equal(t, http.StatusOK, status)
		var list types.ListResponse[domain.Transaction]
		require.NoError(t, json.Unmarshal(data, &list))
		ids := make([]int64, 0, len(list.Data))
		for _, item := range list.Data {
			ids = append(ids, item.ID)
		}
		assert.Contains(t, ids, tx.ID)
	})
}

func TestTransactionLookupErrors(t *testing.T) {
	status, data := doRequest(t, http.MethodGet, "/api/v1/transactions/987654321", "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, util.CodeTransactionNotFound, decodeError(t, data).Error)

	status, data = doRequest(t, http.MethodGet, "/api/v1/transactions/reference/TXN-NOPE", "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, util.CodeTransactionNotFound, decodeError(t, data).Error)

	status, data = doRequest(t, http.MethodGet, "/api/v1/transactions/not-a-number", "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, util.CodeInvalidInput, decodeError(t, data).Error)
}

func TestBalanceServiceRoutes(t *testing.T) {
	accountID := seedAccount(t, "10.00", domain.AccountStatusActive)

	status, data := doRequest(t, http.MethodGet, fmt.Sprintf("/internal/v1/accounts/%d/balance", accountID), "")
	require.Equal(t, http.StatusOK, status)
	var snapshot domain.BalanceSnapshot
	require.NoError(t, json.Unmarshal(data, &snapshot))
	assert.True(t, decimal.RequireFromString("10.00").Equal(snapshot.Balance))

	status, data = doRequest(t, http.MethodPost, fmt.Sprintf("/internal/v1/accounts/%d/delta", accountID),
		fmt.Sprintf(`{"delta": "0", "expected_version": %d}`, snapshot.Version))
	assert.Equal(t, http.StatusBadRequest, status, string(data))

	status, data = doRequest(t, http.MethodPost, fmt.Sprintf("/internal/v1/accounts/%d/delta", accountID),
		fmt.Sprintf(`{"delta": "-0.005", "expected_version": %d}`, snapshot.Version))
	assert.Equal(t, http.StatusBadRequest, status, string(data))
	assert.Equal(t, util.CodeInvalidAmountFormat, decodeError(t, data).Error)
	assert.True(t, decimal.RequireFromString("10.00").Equal(balanceOf(t, accountID)))

	status, data = doRequest(t, http.MethodPost, fmt.Sprintf("/internal/v1/accounts/%d/delta", accountID),
		fmt.Sprintf(`{"delta": "2.50", "expected_version": %d}`, snapshot.Version+7))
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, util.CodeConcurrentModification, decodeError(t, data).Error)

	status, data = doRequest(t, http.MethodPost, fmt.Sprintf("/internal/v1/accounts/%d/delta", accountID),
		fmt.Sprintf(`{"delta": "2.50", "expected_version": %d}`, snapshot.Version))
	require.Equal(t, http.StatusOK, status, string(data))
	var out types.DeltaResponse
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, snapshot.Version+1, out.Version)
	assert.True(t, decimal.RequireFromString("12.50").Equal(balanceOf(t, accountID)))
}

func TestMetricsEndpoint(t *testing.T) {
	accountID := seedAccount(t, "1.00", domain.AccountStatusActive)
	status, _ := doRequest(t, http.MethodPost, "/api/v1/transactions/deposit",
		fmt.Sprintf(`{"account_id": %d, "amount": "1"}`, accountID))
	require.Equal(t, http.StatusCreated, status)

	status, data := doRequest(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(data), "ledger_engine_transactions_total")
}
