package api

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/nexusware/customer-order/accounts"
	"github.com/nexusware/customer-order/catalog"
	"github.com/nexusware/customer-order/metrics"
	"github.com/nexusware/customer-order/orders"
)

// Server binds the HTTP handlers to the domain repositories.
type Server struct {
	accounts *accounts.Repository
	catalog  *catalog.Repository
	orders   *orders.Repository
	validate *validator.Validate
	log      zerolog.Logger
}

// NewServer wires the repositories into a Server.
func NewServer(a *accounts.Repository, c *catalog.Repository, o *orders.Repository, log zerolog.Logger) *Server {
	return &Server{
		accounts: a,
		catalog:  c,
		orders:   o,
		validate: newValidator(),
		log:      log,
	}
}

// Router builds the HTTP routing table with the observability middleware
// applied to every route.
func (s *Server) Router(rec *metrics.Recorder) *mux.Router {
	r := mux.NewRouter()
	r.Use(observability(s.log, rec))

	r.HandleFunc("/healthz", s.health).Methods(http.MethodGet)

	a := r.PathPrefix("/accounts").Subrouter()
	a.HandleFunc("", s.createAccount).Methods(http.MethodPost)
	a.HandleFunc("", s.listAccounts).Methods(http.MethodGet)
	a.HandleFunc("/{id}", s.getAccount).Methods(http.MethodGet)
	a.HandleFunc("/{id}", s.updateAccount).Methods(http.MethodPut)
	a.HandleFunc("/{id}", s.deleteAccount).Methods(http.MethodDelete)
	a.HandleFunc("/{id}/orders", s.listAccountOrders).Methods(http.MethodGet)
	a.HandleFunc("/{id}/orders/{yearMonth:[0-9]{6}}", s.listAccountOrdersByMonth).Methods(http.MethodGet)

	p := r.PathPrefix("/products").Subrouter()
	p.HandleFunc("", s.createProduct).Methods(http.MethodPost)
	p.HandleFunc("", s.listProducts).Methods(http.MethodGet)
	// The sku route must be registered before the catch-all id route.
	p.HandleFunc("/sku/{sku}", s.getProductBySKU).Methods(http.MethodGet)
	p.HandleFunc("/{id}", s.getProduct).Methods(http.MethodGet)
	p.HandleFunc("/{id}", s.updateProduct).Methods(http.MethodPut)
	p.HandleFunc("/{id}", s.deleteProduct).Methods(http.MethodDelete)

	o := r.PathPrefix("/orders").Subrouter()
	o.HandleFunc("", s.createOrder).Methods(http.MethodPost)
	o.HandleFunc("/{id}", s.getOrder).Methods(http.MethodGet)
	o.HandleFunc("/{id}/status", s.updateOrderStatus).Methods(http.MethodPatch)
	o.HandleFunc("/{id}", s.deleteOrder).Methods(http.MethodDelete)

	return r
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
