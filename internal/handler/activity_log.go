package handler

import (
	"net/http"

	"scanstock-backend/internal/domain"
	"scanstock-backend/internal/service"
	"github.com/go-chi/chi/v5"
)

type ActivityHandler struct {
	Service *service.ActivityService
}

func (h ActivityHandler) RegisterRoutes(r chi.Router) {
	r.Get("/activities/recent", h.recent)
	r.Get("/activities/product/{productId}", h.forProduct)
	r.Get("/activities/sale/{saleId}", h.forSale)
	r.Get("/activities/type/{type}", h.byType)
}

func (h ActivityHandler) recent(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	items, err := h.Service.Recent(r.Context(), user.ID, queryLimit(r))
	writeActivities(w, r, items, err)
}

func (h ActivityHandler) forProduct(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	productID, ok := pathID(w, r, "productId")
	if !ok {
		return
	}
	items, err := h.Service.ForProduct(r.Context(), user.ID, productID, queryLimit(r))
	writeActivities(w, r, items, err)
}

func (h ActivityHandler) forSale(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	saleID, ok := pathID(w, r, "saleId")
	if !ok {
		return
	}
	items, err := h.Service.ForSale(r.Context(), user.ID, saleID, queryLimit(r))
	writeActivities(w, r, items, err)
}

func (h ActivityHandler) byType(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	typ := domain.ActivityType(chi.URLParam(r, "type"))
	items, err := h.Service.ByType(r.Context(), user.ID, typ, queryLimit(r))
	writeActivities(w, r, items, err)
}

func writeActivities(w http.ResponseWriter, r *http.Request, items []domain.Activity, err error) {
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	resp := make([]map[string]any, 0, len(items))
	for _, a := range items {
		resp = append(resp, activityJSON(a))
	}
	writeJSON(w, http.StatusOK, resp)
}
