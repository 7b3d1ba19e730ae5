package routes

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"FINTRACK_BACK-END/internal/config"
	"FINTRACK_BACK-END/internal/handlers"
	"FINTRACK_BACK-END/internal/middleware"
)

// SetupRoutes configures all application routes on mux
func SetupRoutes(
	mux *http.ServeMux,
	authHandler *handlers.AuthHandler,
	healthHandler *handlers.HealthHandler,
	googleAuthHandler *handlers.GoogleAuthHandler,
	transactionsHandler *handlers.TransactionsHandler,
	jwtCfg *config.JWTConfig,
) {
	protect := func(h http.HandlerFunc) http.HandlerFunc {
		return middleware.AuthMiddleware(h, jwtCfg)
	}

	// Health check routes
	mux.HandleFunc("GET /healthz", healthHandler.HealthCheck)
	mux.HandleFunc("GET /livez", healthHandler.LivenessCheck)
	mux.HandleFunc("GET /readyz", healthHandler.ReadinessCheck)

	// Authentication routes
	mux.HandleFunc("POST /api/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.HandleFunc("GET /api/auth/profile", protect(authHandler.GetProfile))
	mux.HandleFunc("GET /api/auth/google/login", googleAuthHandler.GoogleLogin)
	mux.HandleFunc("GET /api/auth/google/callback", googleAuthHandler.GoogleCallback)

	// Transaction routes
	mux.HandleFunc("POST /api/transactions", protect(transactionsHandler.CreateTransaction))
	mux.HandleFunc("GET /api/transactions", protect(transactionsHandler.ListTransactions))
	mux.HandleFunc("GET /api/transactions/summary", protect(transactionsHandler.TransactionSummary))
	mux.HandleFunc("GET /api/transactions/{id}", protect(transactionsHandler.TransactionDetail))
	mux.HandleFunc("PUT /api/transactions/{id}", protect(transactionsHandler.UpdateTransaction))
	mux.HandleFunc("DELETE /api/transactions/{id}", protect(transactionsHandler.DeleteTransaction))

	// API docs
	mux.Handle("GET /swagger/", httpSwagger.WrapHandler)

	// Root route
	mux.HandleFunc("GET /{$}", rootHandler)
}

func rootHandler(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("Fintrack backend is running."))
}
