package api

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/nexusware/customer-order/catalog"
)

type createProductRequest struct {
	Sku         string  `json:"sku" validate:"required"`
	Name        string  `json:"name" validate:"required"`
	Description string  `json:"description,omitempty"`
	BasePrice   float64 `json:"basePrice" validate:"gt=0"`
	Category    string  `json:"category" validate:"required"`
	IsActive    bool    `json:"isActive"`
}

type updateProductRequest struct {
	Name        string  `json:"name" validate:"required"`
	Description string  `json:"description,omitempty"`
	BasePrice   float64 `json:"basePrice" validate:"gt=0"`
	Category    string  `json:"category" validate:"required"`
	IsActive    bool    `json:"isActive"`
}

func (s *Server) createProduct(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if !s.decode(w, r, &req) {
		return
	}

	p := &catalog.Product{
		Sku:         req.Sku,
		Name:        req.Name,
		Description: req.Description,
		BasePrice:   req.BasePrice,
		Category:    req.Category,
		IsActive:    req.IsActive,
	}
	if err := s.catalog.Add(r.Context(), p); err != nil {
		writeRepoError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) getProduct(w http.ResponseWriter, r *http.Request) {
	p, err := s.catalog.GetByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeRepoError(w, r, err)
		return
	}
	if p == nil {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) getProductBySKU(w http.ResponseWriter, r *http.Request) {
	p, err := s.catalog.GetBySKU(r.Context(), mux.Vars(r)["sku"])
	if err != nil {
		writeRepoError(w, r, err)
		return
	}
	if p == nil {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) listProducts(w http.ResponseWriter, r *http.Request) {
	pageSize, token := pagingParams(r)
	category := r.URL.Query().Get("category")

	var isActive *bool
	if raw := r.URL.Query().Get("isActive"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "isActive must be a boolean")
			return
		}
		isActive = &v
	}

	page, err := s.catalog.Query(r.Context(), pageSize, category, isActive, token)
	if err != nil {
		writeRepoError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) updateProduct(w http.ResponseWriter, r *http.Request) {
	var req updateProductRequest
	if !s.decode(w, r, &req) {
		return
	}

	ok, err := s.catalog.Update(r.Context(), mux.Vars(r)["id"], catalog.UpdateParams{
		Name:        req.Name,
		Description: req.Description,
		BasePrice:   req.BasePrice,
		Category:    req.Category,
		IsActive:    req.IsActive,
	})
	if err != nil {
		writeRepoError(w, r, err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) deleteProduct(w http.ResponseWriter, r *http.Request) {
	ok, err := s.catalog.Delete(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeRepoError(w, r, err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
