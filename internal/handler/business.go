package handler

import (
	"net/http"

	"scanstock-backend/internal/service"
	"github.com/go-chi/chi/v5"
)

// BusinessHandler manages the single business profile of the current user.
type BusinessHandler struct {
	Service *service.BusinessService
}

type businessRequest struct {
	Name           *string `json:"name"`
	Logo           *string `json:"logo"`
	Address        *string `json:"address"`
	City           *string `json:"city"`
	State          *string `json:"state"`
	PostalCode     *string `json:"postalCode"`
	Country        *string `json:"country"`
	PhoneNumber    *string `json:"phoneNumber"`
	Website        *string `json:"website"`
	TaxID          *string `json:"taxId"`
	Description    *string `json:"description"`
	Industry       *string `json:"industry"`
	CustomIndustry *string `json:"customIndustry"`
	IsActive       *bool   `json:"isActive"`
}

func (b businessRequest) input() service.BusinessInput {
	return service.BusinessInput{
		Name:           b.Name,
		Logo:           b.Logo,
		Address:        b.Address,
		City:           b.City,
		State:          b.State,
		PostalCode:     b.PostalCode,
		Country:        b.Country,
		PhoneNumber:    b.PhoneNumber,
		Website:        b.Website,
		TaxID:          b.TaxID,
		Description:    b.Description,
		Industry:       b.Industry,
		CustomIndustry: b.CustomIndustry,
		IsActive:       b.IsActive,
	}
}

func (h BusinessHandler) RegisterRoutes(r chi.Router) {
	r.Post("/business", h.create)
	r.Get("/business", h.get)
	r.Patch("/business", h.update)
	r.Delete("/business", h.delete)
}

func (h BusinessHandler) create(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req businessRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	b, err := h.Service.Create(r.Context(), user.ID, req.input())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, businessJSON(*b))
}

func (h BusinessHandler) get(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	b, err := h.Service.FindByOwner(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, businessJSON(*b))
}

func (h BusinessHandler) update(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req businessRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	b, err := h.Service.Update(r.Context(), user.ID, req.input())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, businessJSON(*b))
}

func (h BusinessHandler) delete(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	if err := h.Service.Remove(r.Context(), user.ID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "business deleted", nil)
}
