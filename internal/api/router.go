// internal/api/router.go
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"bank-ledger/internal/api/handler"
)

// RouterDeps are the handlers mounted by NewRouter. AccountHandler and Metrics are optional.
type RouterDeps struct {
	TransactionHandler *handler.TransactionHandler
	AccountHandler     *handler.AccountHandler
	Metrics            http.Handler
}

// NewRouter sets up and returns a new HTTP router.
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	// Global middlewares
	r.Use(middleware.RequestID)                       // Add a request ID to the context
	r.Use(middleware.RealIP)                          // Use the real IP address
	r.Use(middleware.Logger)                          // Log HTTP requests
	r.Use(middleware.Recoverer)                       // Recover from panics and return 500
	r.Use(middleware.Timeout(handler.DefaultTimeout)) // Bound every request

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}

	// Transaction API routes
	th := deps.TransactionHandler
	r.Route("/api/v1/transactions", func(r chi.Router) {
		r.Post("/deposit", th.Deposit)
		r.Post("/withdraw", th.Withdraw)
		r.Post("/transfer", th.Transfer)
		r.Get("/", th.ListAll)
		r.Get("/{id}", th.GetByID)
		r.Get("/reference/{reference}", th.GetByReference)
		r.Get("/account/{accountID}", th.ListByAccount)
		r.Get("/account/{accountID}/date-range", th.ListByAccountAndDateRange)
	})

	// Balance service API, consumed by remote deployments of the engine
	if ah := deps.AccountHandler; ah != nil {
		r.Route("/internal/v1/accounts/{accountID}", func(r chi.Router) {
			r.Get("/balance", ah.GetBalance)
			r.Post("/delta", ah.ApplyDelta)
		})
	}

	return r
}
