package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/nexusware/customer-order/accounts"
)

type createAccountRequest struct {
	FirstName string            `json:"firstName" validate:"required"`
	LastName  string            `json:"lastName" validate:"required"`
	Phone     string            `json:"phone" validate:"required,intl_phone"`
	Email     string            `json:"email,omitempty" validate:"omitempty,email"`
	Address   *accounts.Address `json:"address" validate:"required"`
}

type updateAccountRequest struct {
	FirstName string            `json:"firstName" validate:"required"`
	LastName  string            `json:"lastName" validate:"required"`
	Phone     string            `json:"phone" validate:"omitempty,intl_phone"`
	Email     string            `json:"email,omitempty" validate:"omitempty,email"`
	IsActive  *bool             `json:"isActive,omitempty"`
	Address   *accounts.Address `json:"address" validate:"required"`
}

func (s *Server) createAccount(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if !s.decode(w, r, &req) {
		return
	}

	a := &accounts.Account{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Email:     req.Email,
		Address:   *req.Address,
	}
	if err := s.accounts.Add(r.Context(), a); err != nil {
		writeRepoError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

func (s *Server) getAccount(w http.ResponseWriter, r *http.Request) {
	a, err := s.accounts.GetByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeRepoError(w, r, err)
		return
	}
	if a == nil {
		writeError(w, http.StatusNotFound, "account not found")
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) listAccounts(w http.ResponseWriter, r *http.Request) {
	pageSize, token := pagingParams(r)
	page, err := s.accounts.Query(r.Context(), pageSize, token)
	if err != nil {
		writeRepoError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) updateAccount(w http.ResponseWriter, r *http.Request) {
	var req updateAccountRequest
	if !s.decode(w, r, &req) {
		return
	}

	ok, err := s.accounts.Update(r.Context(), mux.Vars(r)["id"], accounts.UpdateParams{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		IsActive:  req.IsActive,
		Address:   *req.Address,
	})
	if err != nil {
		writeRepoError(w, r, err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "account not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) deleteAccount(w http.ResponseWriter, r *http.Request) {
	ok, err := s.accounts.Delete(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeRepoError(w, r, err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "account not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// decode parses the JSON body into dst and validates it, answering 400 on
// either failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

// pagingParams reads the pageSize and continuationToken query parameters.
func pagingParams(r *http.Request) (int, string) {
	pageSize := 0
	if raw := r.URL.Query().Get("pageSize"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			pageSize = n
		}
	}
	return pageSize, r.URL.Query().Get("continuationToken")
}
