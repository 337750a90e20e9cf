package http

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"unimarket-backend/internal/observability"
	"unimarket-backend/internal/security"
	"unimarket-backend/internal/service"
)

// Services bundles everything the router needs
type Services struct {
	Auth    service.AuthService
	Wallet  service.WalletService
	Orders  service.OrderService
	Catalog service.CatalogService
	Admin   service.AdminService
	Tokens  security.TokenManager
}

// NewRouter builds the full API surface. Public routes are the storefront,
// reviews, auth and health; everything else sits behind the JWT middleware.
func NewRouter(svc Services) *mux.Router {
	router := mux.NewRouter()
	router.Use(observability.HTTPMetrics)

	router.Handle("/metrics", promhttp.Handler()).Methods("GET")
	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods("GET")

	api := router.PathPrefix("/api/v1").Subrouter()

	authHandler := NewAuthHandler(svc.Auth)
	api.HandleFunc("/auth/register", authHandler.HandleRegister).Methods("POST")
	api.HandleFunc("/auth/login", authHandler.HandleLogin).Methods("POST")
	api.HandleFunc("/auth/refresh", authHandler.HandleRefresh).Methods("POST")

	catalogHandler := NewCatalogHandler(svc.Catalog)
	api.HandleFunc("/listings", catalogHandler.HandleStorefront).Methods("GET")
	api.HandleFunc("/listings/{id:[0-9]+}/reviews", catalogHandler.HandleListReviews).Methods("GET")

	authed := api.NewRoute().Subrouter()
	authed.Use(AuthMiddleware(svc.Tokens))

	walletHandler := NewWalletHandler(svc.Wallet)
	authed.HandleFunc("/wallet/topup", walletHandler.HandleTopUp).Methods("POST")
	authed.HandleFunc("/wallet/withdraw", walletHandler.HandleWithdraw).Methods("POST")
	authed.HandleFunc("/wallet/balance", walletHandler.HandleBalance).Methods("GET")
	authed.HandleFunc("/wallet/transactions", walletHandler.HandleTransactions).Methods("GET")

	orderHandler := NewOrderHandler(svc.Orders)
	authed.HandleFunc("/orders", orderHandler.HandleCheckout).Methods("POST")
	authed.HandleFunc("/orders", orderHandler.HandleList).Methods("GET")
	authed.HandleFunc("/orders/{id:[0-9]+}/confirm-sent", orderHandler.HandleConfirmSent).Methods("POST")
	authed.HandleFunc("/orders/{id:[0-9]+}/confirm-received", orderHandler.HandleConfirmReceived).Methods("POST")
	authed.HandleFunc("/orders/{id:[0-9]+}/refund", orderHandler.HandleRefund).Methods("POST")

	authed.HandleFunc("/listings", catalogHandler.HandleCreate).Methods("POST")
	authed.HandleFunc("/listings/mine", catalogHandler.HandleMyListings).Methods("GET")
	authed.HandleFunc("/listings/{id:[0-9]+}", catalogHandler.HandleUpdate).Methods("PUT")
	authed.HandleFunc("/listings/{id:[0-9]+}", catalogHandler.HandleDelete).Methods("DELETE")
	authed.HandleFunc("/listings/{id:[0-9]+}/reviews", catalogHandler.HandleSubmitReview).Methods("POST")

	adminHandler := NewAdminHandler(svc.Admin)
	admin := authed.PathPrefix("/admin").Subrouter()
	admin.Use(RequireAdmin)
	admin.HandleFunc("/accounts", adminHandler.HandleListAccounts).Methods("GET")
	admin.HandleFunc("/accounts/{id:[0-9]+}/ban", adminHandler.HandleBan).Methods("POST")
	admin.HandleFunc("/accounts/{id:[0-9]+}/unban", adminHandler.HandleUnban).Methods("POST")
	admin.HandleFunc("/accounts/{id:[0-9]+}", adminHandler.HandleDeleteAccount).Methods("DELETE")
	admin.HandleFunc("/security-log", adminHandler.HandleSecurityLog).Methods("GET")
	admin.HandleFunc("/security-log", adminHandler.HandleClearSecurityLog).Methods("DELETE")

	return router
}
