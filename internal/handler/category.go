package handler

import (
	"net/http"

	"scanstock-backend/internal/service"
	"github.com/go-chi/chi/v5"
)

type CategoryHandler struct {
	Service *service.CategoryService
}

type categoryRequest struct {
	Name        *string `json:"name"`
	Color       *string `json:"color"`
	Description *string `json:"description"`
}

func (c categoryRequest) input() service.CategoryInput {
	return service.CategoryInput{Name: c.Name, Color: c.Color, Description: c.Description}
}

func (h CategoryHandler) RegisterRoutes(r chi.Router) {
	r.Get("/categories", h.list)
	r.Post("/categories", h.create)
	r.Get("/categories/{id}", h.get)
	r.Patch("/categories/{id}", h.update)
	r.Delete("/categories/{id}", h.delete)
}

func (h CategoryHandler) list(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	items, err := h.Service.FindAll(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	resp := make([]map[string]any, 0, len(items))
	for _, c := range items {
		resp = append(resp, categoryJSON(c))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h CategoryHandler) create(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req categoryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	c, err := h.Service.Create(r.Context(), user.ID, req.input())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, categoryJSON(*c))
}

func (h CategoryHandler) get(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	c, err := h.Service.FindOne(r.Context(), user.ID, id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, categoryJSON(*c))
}

func (h CategoryHandler) update(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req categoryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	c, err := h.Service.Update(r.Context(), user.ID, id, req.input())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, categoryJSON(*c))
}

func (h CategoryHandler) delete(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.Service.Remove(r.Context(), user.ID, id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "category deleted", nil)
}
