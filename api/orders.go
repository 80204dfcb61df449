package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/nexusware/customer-order/accounts"
	"github.com/nexusware/customer-order/orders"
)

type orderLineRequest struct {
	ProductID   string  `json:"productId" validate:"required"`
	ProductSku  string  `json:"productSku" validate:"required"`
	ProductName string  `json:"productName" validate:"required"`
	Quantity    int     `json:"quantity" validate:"gt=0"`
	UnitPrice   float64 `json:"unitPrice" validate:"gt=0"`
}

type createOrderRequest struct {
	AccountID       string             `json:"accountId" validate:"required"`
	Lines           []orderLineRequest `json:"lines" validate:"required,min=1,dive"`
	ShippingAddress *accounts.Address  `json:"shippingAddress" validate:"required"`
}

type updateOrderStatusRequest struct {
	Status         string `json:"status" validate:"required"`
	TrackingNumber string `json:"trackingNumber,omitempty"`
}

func (s *Server) createOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if !s.decode(w, r, &req) {
		return
	}

	accountID, err := uuid.Parse(req.AccountID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "accountId must be a UUID")
		return
	}

	lines := make([]orders.Line, 0, len(req.Lines))
	for _, l := range req.Lines {
		productID, err := uuid.Parse(l.ProductID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "productId must be a UUID")
			return
		}
		lines = append(lines, orders.Line{
			ProductID:   productID,
			ProductSku:  l.ProductSku,
			ProductName: l.ProductName,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
		})
	}

	o, err := orders.NewOrder(uuid.New(), accountID, lines, *req.ShippingAddress, time.Now().UTC())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.orders.Add(r.Context(), o); err != nil {
		writeRepoError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, o)
}

func (s *Server) getOrder(w http.ResponseWriter, r *http.Request) {
	o, err := s.orders.GetByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeRepoError(w, r, err)
		return
	}
	if o == nil {
		writeError(w, http.StatusNotFound, "order not found")
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (s *Server) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req updateOrderStatusRequest
	if !s.decode(w, r, &req) {
		return
	}

	status, err := orders.ParseStatus(req.Status)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ok, err := s.orders.UpdateStatus(r.Context(), mux.Vars(r)["id"], status, req.TrackingNumber)
	if err != nil {
		writeRepoError(w, r, err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "order not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) deleteOrder(w http.ResponseWriter, r *http.Request) {
	ok, err := s.orders.Delete(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeRepoError(w, r, err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "order not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listAccountOrders(w http.ResponseWriter, r *http.Request) {
	pageSize, token := pagingParams(r)
	page, err := s.orders.QueryByAccount(r.Context(), mux.Vars(r)["id"], pageSize, token)
	if err != nil {
		writeRepoError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) listAccountOrdersByMonth(w http.ResponseWriter, r *http.Request) {
	pageSize, token := pagingParams(r)
	vars := mux.Vars(r)

	when, err := time.Parse("200601", vars["yearMonth"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "yearMonth must be formatted yyyyMM")
		return
	}

	page, err := s.orders.ListByAccountMonth(r.Context(), vars["id"], when.Year(), when.Month(), pageSize, token)
	if err != nil {
		writeRepoError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}
