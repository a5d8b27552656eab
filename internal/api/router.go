// internal/api/router.go
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"rewardvault/internal/api/handler"
	"rewardvault/internal/api/middleware"
)

// Handlers groups the HTTP handlers mounted by NewRouter.
type Handlers struct {
	Users       *handler.UserHandler
	Devices     *handler.DeviceHandler
	Recharges   *handler.RechargeHandler
	Withdrawals *handler.WithdrawalHandler
	Admin       *handler.AdminHandler
}

// RouterConfig carries the cross-cutting router settings.
type RouterConfig struct {
	AllowedOrigins []string
}

// NewRouter sets up and returns a new HTTP router.
func NewRouter(h Handlers, auth *middleware.Authenticator, cfg RouterConfig, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middlewares
	r.Use(chimw.RequestID)                       // Add a request ID to the context
	r.Use(chimw.RealIP)                          // Use the real IP address
	r.Use(chimw.Logger)                          // Log HTTP requests
	r.Use(chimw.Recoverer)                       // Recover from panics and return 500
	r.Use(chimw.Timeout(handler.DefaultTimeout)) // Set a default timeout for requests
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(auth.Authenticate)

		r.Get("/catalog", h.Devices.Catalog)
		r.Post("/users", h.Users.Register)

		r.Route("/me", func(r chi.Router) {
			r.Get("/", h.Users.Me)
			r.Get("/ledger", h.Users.Ledger)
			r.Post("/checkin", h.Users.CheckIn)
			r.Get("/team", h.Users.Team)
		})

		r.Route("/devices", func(r chi.Router) {
			r.Get("/", h.Devices.ListDevices)
			r.Post("/", h.Devices.Purchase)
			r.Post("/{deviceID}/credit", h.Devices.Credit)
		})
		r.Get("/income-records", h.Devices.IncomeRecords)

		r.Get("/recharges", h.Recharges.List)
		r.Post("/recharges", h.Recharges.Create)

		r.Get("/withdrawals", h.Withdrawals.List)
		r.Post("/withdrawals", h.Withdrawals.Create)
		r.Route("/withdrawal-accounts", func(r chi.Router) {
			r.Get("/", h.Withdrawals.ListAccounts)
			r.Post("/", h.Withdrawals.AddAccount)
			r.Delete("/{accountID}", h.Withdrawals.DeleteAccount)
		})

		// Admin routes
		r.Route("/admin", func(r chi.Router) {
			r.Use(auth.RequireAdmin)

			r.Get("/stats", h.Admin.Stats)
			r.Get("/recharges", h.Admin.ListRecharges)
			r.Post("/recharges/{recordID}/approve", h.Admin.ApproveRecharge)
			r.Post("/recharges/{recordID}/decline", h.Admin.DeclineRecharge)
			r.Get("/withdrawals", h.Admin.ListWithdrawals)
			r.Post("/withdrawals/{recordID}/complete", h.Admin.CompleteWithdrawal)
			r.Post("/withdrawals/{recordID}/decline", h.Admin.DeclineWithdrawal)
			r.Post("/users/{userID}/credit", h.Admin.CreditUser)
			r.Post("/users/{userID}/block", h.Admin.BlockUser)
			r.Post("/accrual/sweep", h.Admin.Sweep)
		})
	})

	logger.Debug("HTTP routes registered")
	return r
}
